package domain

import (
	"time"
)

// Sender tags who authored a transcript line.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderPersona Sender = "persona"
)

// Valid reports whether s is one of the known sender tags.
func (s Sender) Valid() bool {
	return s == SenderStudent || s == SenderPersona
}

// StudentSession binds a learner's run of the exercise to a domain and persona.
// Sessions are never mutated after creation.
type StudentSession struct {
	SessionID string
	StudentID *string
	DomainID  int64
	PersonaID int64
	CreatedAt time.Time
}

// SessionDetails is the display snapshot returned when a session starts.
type SessionDetails struct {
	DomainName        string
	DomainDescription *string
	PersonaName       string
	PersonaRole       string
	BackgroundStory   string
}

// ConversationMessage is one append-only transcript line.
type ConversationMessage struct {
	ID        int64
	SessionID string
	PersonaID int64
	Sender    Sender
	Message   string
	CreatedAt time.Time
}

// SolutionSubmission is a learner's submitted artefact. The type tag is free-form.
type SolutionSubmission struct {
	ID              int64
	SessionID       string
	SolutionType    string
	SolutionContent string
	CreatedAt       time.Time
}

// ExportRow is one joined transcript line used to build a conversation export.
type ExportRow struct {
	Sender      Sender
	Message     string
	CreatedAt   time.Time
	PersonaName string
	PersonaRole string
	DomainName  string
}
