// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/cleia/internal/domain"
)

// Repository defines the data-access handle shared by every request.
// All lookups are exact matches on identifiers or session tokens.
type Repository interface {
	// ListDomains returns every domain in storage order.
	ListDomains(ctx context.Context) ([]domain.Domain, error)

	// ListPersonas returns the personas that belong to domainID.
	ListPersonas(ctx context.Context, domainID int64) ([]domain.Persona, error)

	// CreateDomain inserts a domain and returns its identifier.
	CreateDomain(ctx context.Context, name string, description *string) (int64, error)

	// CreatePersona inserts a persona and returns its identifier.
	// Returns domain.ErrDomainNotFound if the domain does not exist.
	CreatePersona(ctx context.Context, p domain.NewPersona) (int64, error)

	// CreateSession inserts a session after resolving its display details.
	// Returns domain.ErrDomainPersonaNotFound if the persona does not belong to the domain.
	CreateSession(ctx context.Context, session *domain.StudentSession) (*domain.SessionDetails, error)

	// GetSessionPersona resolves the persona linked to a session.
	GetSessionPersona(ctx context.Context, sessionID string) (*domain.Persona, error)

	// ListMessages returns the transcript of a session in chronological order.
	ListMessages(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error)

	// AppendMessage adds one line to a session transcript.
	AppendMessage(ctx context.Context, sessionID string, sender domain.Sender, message string) (*domain.ConversationMessage, error)

	// SubmitSolution stores a solution and returns its identifier.
	SubmitSolution(ctx context.Context, submission *domain.SolutionSubmission) (int64, error)

	// ExportConversation returns the joined transcript rows of a session.
	ExportConversation(ctx context.Context, sessionID string) ([]domain.ExportRow, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
