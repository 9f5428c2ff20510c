// Package elicitation implements the requirements-elicitation exercise:
// catalog browsing, session start, persona chat turns, solution submission
// and transcript export.
package elicitation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/cleia/internal/domain"
	"github.com/ashureev/cleia/internal/llm"
	"github.com/ashureev/cleia/internal/store"
	"github.com/google/uuid"
)

// Service coordinates the store and the inference endpoint. It holds no
// per-request state.
type Service struct {
	repo      store.Repository
	generator llm.Generator
	newToken  func() string
}

// NewService creates a service over an injected repository and generator.
func NewService(repo store.Repository, generator llm.Generator) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		newToken:  func() string { return uuid.New().String() },
	}
}

// ListDomains returns the domain catalog.
func (s *Service) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	return s.repo.ListDomains(ctx)
}

// ListPersonas returns the personas of one domain.
func (s *Service) ListPersonas(ctx context.Context, domainID int64) ([]domain.Persona, error) {
	return s.repo.ListPersonas(ctx, domainID)
}

// StartedSession is the result of StartSession.
type StartedSession struct {
	SessionID string
	Details   domain.SessionDetails
}

// StartSession opens a session for a persona of the given domain.
// A blank studentID is stored as null.
func (s *Service) StartSession(ctx context.Context, domainID, personaID int64, studentID *string) (*StartedSession, error) {
	if studentID != nil && strings.TrimSpace(*studentID) == "" {
		studentID = nil
	}

	session := &domain.StudentSession{
		SessionID: s.newToken(),
		StudentID: studentID,
		DomainID:  domainID,
		PersonaID: personaID,
	}
	details, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("Session started",
		"session_id", session.SessionID,
		"domain_id", domainID,
		"persona_id", personaID,
	)
	return &StartedSession{SessionID: session.SessionID, Details: *details}, nil
}

// CheckSession reports domain.ErrSessionNotFound for an unknown session token.
func (s *Service) CheckSession(ctx context.Context, sessionID string) error {
	if _, err := s.repo.GetSessionPersona(ctx, sessionID); err != nil {
		return fmt.Errorf("resolve session persona: %w", err)
	}
	return nil
}

// HandleMessage runs one chat turn: the student line is stored, the persona
// prompt is built from the prior transcript and the model reply is stored and
// returned. A failure after the student line is saved leaves it unanswered.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string) (string, error) {
	persona, err := s.repo.GetSessionPersona(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("resolve session persona: %w", err)
	}

	history, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	if _, err := s.repo.AppendMessage(ctx, sessionID, domain.SenderStudent, message); err != nil {
		return "", fmt.Errorf("save student message: %w", err)
	}

	prompt := llm.BuildPrompt(*persona, history, message)
	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	if _, err := s.repo.AppendMessage(ctx, sessionID, domain.SenderPersona, reply); err != nil {
		return "", fmt.Errorf("save persona reply: %w", err)
	}

	slog.Debug("Chat turn completed",
		"session_id", sessionID,
		"persona_id", persona.ID,
		"history_length", len(history),
		"reply_length", len(reply),
	)
	return reply, nil
}

// SubmitSolution stores a solution; the type tag is free-form.
func (s *Service) SubmitSolution(ctx context.Context, sessionID, solutionType, content string) error {
	id, err := s.repo.SubmitSolution(ctx, &domain.SolutionSubmission{
		SessionID:       sessionID,
		SolutionType:    solutionType,
		SolutionContent: content,
	})
	if err != nil {
		return fmt.Errorf("submit solution: %w", err)
	}
	slog.Info("Solution submitted", "session_id", sessionID, "solution_id", id, "solution_type", solutionType)
	return nil
}

// CreatePersona adds a persona with an empty initial prompt.
func (s *Service) CreatePersona(ctx context.Context, p domain.NewPersona) (int64, error) {
	p.InitialPrompt = ""
	id, err := s.repo.CreatePersona(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("create persona: %w", err)
	}
	slog.Info("Persona created", "persona_id", id, "domain_id", p.DomainID)
	return id, nil
}
