package elicitation

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/cleia/internal/domain"
)

// PersonaSummary names the persona of an exported conversation.
type PersonaSummary struct {
	Name string
	Role string
}

// TranscriptLine is one exported message.
type TranscriptLine struct {
	Sender    domain.Sender
	Message   string
	Timestamp time.Time
}

// Transcript is an exported conversation. Domain and Persona are nil when the
// session has no messages.
type Transcript struct {
	Domain   *string
	Persona  *PersonaSummary
	Messages []TranscriptLine
}

// ExportConversation returns the ordered transcript of a session. An unknown
// session or an empty conversation yields an empty transcript, not an error.
func (s *Service) ExportConversation(ctx context.Context, sessionID string) (*Transcript, error) {
	rows, err := s.repo.ExportConversation(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("export conversation: %w", err)
	}

	t := &Transcript{Messages: make([]TranscriptLine, 0, len(rows))}
	if len(rows) > 0 {
		first := rows[0]
		t.Domain = &first.DomainName
		t.Persona = &PersonaSummary{Name: first.PersonaName, Role: first.PersonaRole}
	}
	for _, r := range rows {
		t.Messages = append(t.Messages, TranscriptLine{
			Sender:    r.Sender,
			Message:   r.Message,
			Timestamp: r.CreatedAt,
		})
	}
	return t, nil
}
