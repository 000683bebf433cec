package model

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	titleWidth   = 30
	previewWidth = 50
	ellipsis     = "..."
)

// DeriveTitle turns the first user message into a sidebar title: whitespace
// runs collapse to one space and the result is cut to 30 columns plus "...".
func DeriveTitle(content string) string {
	return truncate(collapseSpace(content), titleWidth)
}

// DerivePreview is the sidebar preview of a conversation's latest message
func DerivePreview(content string) string {
	return truncate(collapseSpace(content), previewWidth)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate keeps width display columns and appends "..." only when it cut something
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "") + ellipsis
}
