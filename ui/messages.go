package ui

import (
	"wheely/storage"
)

// answerMsg carries a resolved exchange back to the UI goroutine
type answerMsg struct {
	conversationID string
	message        storage.Message
	err            error
}

type typewriterTickMsg struct{}

// backendStatusMsg reports the startup reachability check
type backendStatusMsg struct {
	err error
}

type markdownRenderedMsg struct {
	messageID string
	width     int
	rendered  string
}

type conversationExportedMsg struct {
	path string
	err  error
}

type conversationImportedMsg struct {
	conversation storage.Conversation
	err          error
}

type clearNoticeMsg struct {
	seq int
}
