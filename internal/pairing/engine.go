// Package pairing draws the single-cycle giver/receiver assignment.
package pairing

import (
	"fmt"
	"math/rand/v2"

	"SecretSanta/internal/domain"
)

// Assign shuffles the participants and chains them into one cycle: everyone gives to
// the next person in the shuffled order and the last gives to the first.
func Assign(participants []domain.Participant, rng *rand.Rand) ([]domain.Pair, error) {
	if err := CheckParticipants(participants); err != nil {
		return nil, err
	}

	shuffled := make([]domain.Participant, len(participants))
	copy(shuffled, participants)

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairs := make([]domain.Pair, len(shuffled))
	for i := range shuffled {
		pairs[i] = domain.Pair{
			Giver:    shuffled[i],
			Receiver: shuffled[(i+1)%len(shuffled)],
		}
	}

	return pairs, nil
}

// CheckParticipants rejects duplicate identities and groups smaller than two.
func CheckParticipants(participants []domain.Participant) error {
	seen := make(map[domain.Identity]struct{}, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.ID()]; ok {
			return fmt.Errorf("%w: duplicate participant %s <%s>", domain.ErrConfiguration, p.Name, p.Email)
		}
		seen[p.ID()] = struct{}{}
	}

	if len(seen) < 2 {
		return fmt.Errorf("%w: need at least 2 participants, got %d", domain.ErrConfiguration, len(seen))
	}
	return nil
}

// Validate checks that nobody gives to themselves and that every participant gives
// and receives at most once.
func Validate(pairs []domain.Pair) error {
	givers := make(map[domain.Identity]struct{}, len(pairs))
	receivers := make(map[domain.Identity]struct{}, len(pairs))

	for _, pair := range pairs {
		if pair.Giver.Equal(pair.Receiver) {
			return fmt.Errorf("%w: %s is giving to themselves", domain.ErrPairingInvariant, pair.Giver.Name)
		}
		if _, ok := givers[pair.Giver.ID()]; ok {
			return fmt.Errorf("%w: %s is giving twice", domain.ErrPairingInvariant, pair.Giver.Name)
		}
		if _, ok := receivers[pair.Receiver.ID()]; ok {
			return fmt.Errorf("%w: %s is receiving twice", domain.ErrPairingInvariant, pair.Receiver.Name)
		}
		givers[pair.Giver.ID()] = struct{}{}
		receivers[pair.Receiver.ID()] = struct{}{}
	}

	return nil
}
