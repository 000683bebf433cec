package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Suggestion is a canned query offered on an empty conversation.
type Suggestion struct {
	Text string
	Icon string
}

var (
	dealerSuggestions = []Suggestion{
		{Text: "Show me status of my claims"},
		{Text: "Show me SKU Availability"},
		{Text: "Show me similar products to"},
		{Text: "Show me orders placed for me"},
	}
	adminSuggestions = []Suggestion{
		{Text: "List all sales reps"},
		{Text: "Show dealer performance"},
		{Text: "Add a new SKU"},
	}
	salesRepSuggestions = []Suggestion{
		{Text: "Show me SKU Availability"},
		{Text: "Show me dealer performance"},
		{Text: "Place an order"},
		{Text: "Show me regional sales"},
	}
	defaultSuggestions = []Suggestion{
		{Text: "Tell me about the product", Icon: "📦"},
	}
)

// Suggestions returns a copy of the fixed suggestion list for a role.
func Suggestions(r Role) []Suggestion {
	var src []Suggestion
	switch r {
	case RoleDealer:
		src = dealerSuggestions
	case RoleSalesRep:
		src = salesRepSuggestions
	case RoleAdmin:
		src = adminSuggestions
	default:
		src = defaultSuggestions
	}
	out := make([]Suggestion, len(src))
	copy(out, src)
	return out
}

// Label is the text shown in the suggestion panel, icon first when present
func (s Suggestion) Label() string {
	if s.Icon == "" {
		return s.Text
	}
	return s.Icon + " " + s.Text
}

var leadingSymbols = regexp.MustCompile(`^[^\w\s]*\s*`)

// CleanSuggestion strips a leading icon and the whitespace after it so the
// remaining text can be placed into the input box.
func CleanSuggestion(text string) string {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	return leadingSymbols.ReplaceAllString(text, "")
}

// DisplayName turns "jane.doe" into "Jane".
func DisplayName(username string) string {
	first := strings.TrimSpace(strings.Split(username, ".")[0])
	if first == "" {
		return "User"
	}
	r := []rune(first)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Greeting picks the salutation from the local hour of t.
func Greeting(t time.Time, name string) string {
	var salutation string
	switch h := t.Hour(); {
	case h < 12:
		salutation = "Good Morning"
	case h < 18:
		salutation = "Good Afternoon"
	default:
		salutation = "Good Evening"
	}
	return fmt.Sprintf("%s, %s", salutation, name)
}
