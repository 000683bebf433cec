package model

import (
	"time"

	"wheely/identity"
	"wheely/storage"
)

// Status is the slice of pipeline state the presentation depends on
type Status struct {
	Pending     bool
	ContextNote string
}

// View is everything the renderer needs for one frame. It is derived, never
// mutated back into the store.
type View struct {
	Active        storage.Conversation
	Conversations []storage.Conversation
	Typing        bool
	HasMessages   bool
	Suggestions   []identity.Suggestion
	Greeting      string
	ContextNote   string
	RoleLabel     string
}

// Bind derives the view from the store, pipeline status and identity at time now.
func Bind(store *Store, status Status, user identity.User, now time.Time) View {
	active := store.Active()
	return View{
		Active:        active,
		Conversations: store.Sorted(),
		Typing:        status.Pending,
		HasMessages:   len(active.Messages) > 0,
		Suggestions:   identity.Suggestions(user.Role),
		Greeting:      identity.Greeting(now, user.DisplayName()),
		ContextNote:   status.ContextNote,
		RoleLabel:     user.Role.Label(),
	}
}
