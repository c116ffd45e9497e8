package models

import "time"

// Message is one entry of a topic log. Messages are immutable once appended.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
}

// Role represents the origin of a message.
type Role string

const (
	// RoleUser marks text typed (or picked from an example card) by the user.
	RoleUser Role = "user"
	// RoleAssistant marks greetings, tips and normalized collaborator replies.
	RoleAssistant Role = "assistant"
)
