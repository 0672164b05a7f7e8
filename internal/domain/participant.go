package domain

import "fmt"

// Identity is the comparable part of a participant.
type Identity struct {
	Name  string
	Email string
}

// Participant is one person taking part in the exchange.
type Participant struct {
	Name     string
	Email    string
	Wishlist []string
}

// ID returns the identity used for equality checks.
func (p Participant) ID() Identity {
	return Identity{Name: p.Name, Email: p.Email}
}

// Equal reports whether both participants share name and email.
func (p Participant) Equal(other Participant) bool {
	return p.ID() == other.ID()
}

// Items returns the raw wishlist entries; a missing wishlist is empty.
func (p Participant) Items() []string {
	if p.Wishlist == nil {
		return []string{}
	}
	return p.Wishlist
}

// Pair is a directed giver -> receiver relation.
type Pair struct {
	Giver    Participant
	Receiver Participant
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.Giver.Name, p.Receiver.Name)
}
