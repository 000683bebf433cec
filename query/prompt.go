package query

import "fmt"

// systemPrompt scopes an LLM backend to the dealer portal assistant role
func systemPrompt(req Request) string {
	role := req.Role
	if role == "" {
		role = "guest"
	}
	name := req.Username
	if name == "" {
		name = "a guest user"
	}
	return fmt.Sprintf(
		"You are Wheely, the assistant of a vehicle dealer portal. You are talking to %s (role: %s). "+
			"Answer questions about products, SKUs, orders, claims and dealer or sales performance. "+
			"If a message starts with a \"Context:\" block, treat it as an excerpt the user selected from an earlier answer. "+
			"If you do not know, say so briefly.",
		name, role,
	)
}
