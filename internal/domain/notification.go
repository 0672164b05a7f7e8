package domain

import (
	"html/template"
	"strings"
)

// RenderContext is handed to the body template.
type RenderContext struct {
	Giver           Participant
	Receiver        Participant
	Wishlist        []template.HTML
	IncludeWishlist bool
}

// Envelope carries both body variants for one pair: the primary one with the
// wishlist and the visual one without it.
type Envelope struct {
	Pair    Pair
	Primary RenderContext
	Visual  RenderContext
}

// Notification is the message for one giver.
type Notification struct {
	To        string
	Subject   string
	TextBody  string
	ImageBody string
}

// TestAddress builds a redirected recipient from a template with a {name} placeholder.
func TestAddress(tmpl, name string) string {
	slug := strings.ReplaceAll(name, "&", "")
	slug = strings.ReplaceAll(slug, "  ", " ")
	slug = strings.ToLower(strings.ReplaceAll(slug, " ", "_"))
	return strings.ReplaceAll(tmpl, "{name}", slug)
}
