package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/cleia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open("sqlite://" + filepath.Join(t.TempDir(), "cleia.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

type fixture struct {
	domainID  int64
	personaID int64
}

func seedRetail(t *testing.T, s *SQLStore) fixture {
	t.Helper()
	ctx := context.Background()
	domainID, err := s.CreateDomain(ctx, "Retail", strPtr("Shops and stock"))
	require.NoError(t, err)
	personaID, err := s.CreatePersona(ctx, domain.NewPersona{
		DomainID:          domainID,
		Name:              "Maria",
		Role:              "Store Owner",
		BackgroundStory:   "Runs a corner shop.",
		PersonalityTraits: strPtr("impatient"),
	})
	require.NoError(t, err)
	return fixture{domainID: domainID, personaID: personaID}
}

func startSession(t *testing.T, s *SQLStore, f fixture, id string) {
	t.Helper()
	_, err := s.CreateSession(context.Background(), &domain.StudentSession{
		SessionID: id,
		DomainID:  f.domainID,
		PersonaID: f.personaID,
	})
	require.NoError(t, err)
}

func countRows(t *testing.T, s *SQLStore, table, sessionID string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE session_id = ?`, sessionID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestListDomainsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRetail(t, s)
	_, err := s.CreateDomain(ctx, "Logistics", nil)
	require.NoError(t, err)

	first, err := s.ListDomains(ctx)
	require.NoError(t, err)
	second, err := s.ListDomains(ctx)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "Retail", first[0].Name)
	assert.Nil(t, first[1].Description)
}

func TestListDomainsEmpty(t *testing.T) {
	s := newTestStore(t)

	domains, err := s.ListDomains(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, domains)
	assert.Empty(t, domains)
}

func TestListPersonasFiltersByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	retail := seedRetail(t, s)
	logisticsID, err := s.CreateDomain(ctx, "Logistics", nil)
	require.NoError(t, err)
	_, err = s.CreatePersona(ctx, domain.NewPersona{
		DomainID: logisticsID, Name: "Tom", Role: "Dispatcher", BackgroundStory: "Routes trucks.",
	})
	require.NoError(t, err)

	personas, err := s.ListPersonas(ctx, retail.domainID)
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Maria", personas[0].Name)
	assert.Equal(t, "", personas[0].InitialPrompt)

	none, err := s.ListPersonas(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreatePersonaUnknownDomain(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreatePersona(context.Background(), domain.NewPersona{
		DomainID: 42, Name: "Ghost", Role: "Nobody", BackgroundStory: "-",
	})
	assert.ErrorIs(t, err, domain.ErrDomainNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateSessionReturnsDetails(t *testing.T) {
	s := newTestStore(t)
	f := seedRetail(t, s)

	details, err := s.CreateSession(context.Background(), &domain.StudentSession{
		SessionID: "sess-1",
		StudentID: strPtr("student-7"),
		DomainID:  f.domainID,
		PersonaID: f.personaID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Retail", details.DomainName)
	require.NotNil(t, details.DomainDescription)
	assert.Equal(t, "Shops and stock", *details.DomainDescription)
	assert.Equal(t, "Maria", details.PersonaName)
	assert.Equal(t, "Store Owner", details.PersonaRole)

	var studentID string
	require.NoError(t, s.db.QueryRow(`SELECT student_id FROM student_sessions WHERE session_id = ?`, "sess-1").Scan(&studentID))
	assert.Equal(t, "student-7", studentID)
}

func TestCreateSessionRejectsPersonaFromOtherDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedRetail(t, s)
	otherDomain, err := s.CreateDomain(ctx, "Logistics", nil)
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, &domain.StudentSession{
		SessionID: "sess-mismatch",
		DomainID:  otherDomain,
		PersonaID: f.personaID,
	})
	assert.ErrorIs(t, err, domain.ErrDomainPersonaNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM student_sessions`).Scan(&n))
	assert.Zero(t, n, "rejected session must not be persisted")
}

func TestGetSessionPersona(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedRetail(t, s)
	startSession(t, s, f, "sess-1")

	p, err := s.GetSessionPersona(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, f.personaID, p.ID)
	assert.Equal(t, "impatient", p.Traits())

	_, err = s.GetSessionPersona(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAppendMessageUnknownSessionWritesNothing(t *testing.T) {
	s := newTestStore(t)
	seedRetail(t, s)

	_, err := s.AppendMessage(context.Background(), "missing", domain.SenderStudent, "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Zero(t, countRows(t, s, "conversations", "missing"))
}

func TestAppendMessageRejectsUnknownSender(t *testing.T) {
	s := newTestStore(t)
	f := seedRetail(t, s)
	startSession(t, s, f, "sess-1")

	_, err := s.AppendMessage(context.Background(), "sess-1", domain.Sender("admin"), "hello")
	assert.Error(t, err)
	assert.Zero(t, countRows(t, s, "conversations", "sess-1"))
}

func TestListMessagesKeepsAppendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedRetail(t, s)
	startSession(t, s, f, "sess-1")

	// Identical timestamps fall back to insertion order.
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	lines := []struct {
		sender domain.Sender
		text   string
	}{
		{domain.SenderStudent, "hi"},
		{domain.SenderStudent, "are you there?"},
		{domain.SenderPersona, "yes"},
	}
	for _, l := range lines {
		msg, err := s.AppendMessage(ctx, "sess-1", l.sender, l.text)
		require.NoError(t, err)
		assert.Equal(t, f.personaID, msg.PersonaID)
	}

	got, err := s.ListMessages(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, len(lines))
	for i, l := range lines {
		assert.Equal(t, l.sender, got[i].Sender)
		assert.Equal(t, l.text, got[i].Message)
		assert.True(t, got[i].CreatedAt.Equal(fixed))
	}
}

func TestSubmitSolutionAcceptsArbitraryType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedRetail(t, s)
	startSession(t, s, f, "sess-1")

	id, err := s.SubmitSolution(ctx, &domain.SolutionSubmission{
		SessionID:       "sess-1",
		SolutionType:    "napkin-sketch ✏️",
		SolutionContent: "As a shop owner I want...",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	var solutionType, content string
	err = s.db.QueryRow(
		`SELECT solution_type, solution_content FROM student_solutions WHERE id = ?`, id,
	).Scan(&solutionType, &content)
	require.NoError(t, err)
	assert.Equal(t, "napkin-sketch ✏️", solutionType)
	assert.Equal(t, "As a shop owner I want...", content)
}

func TestSubmitSolutionUnknownSession(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SubmitSolution(context.Background(), &domain.SolutionSubmission{
		SessionID: "missing", SolutionType: "doc", SolutionContent: "x",
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestExportConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedRetail(t, s)
	startSession(t, s, f, "sess-1")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	_, err := s.AppendMessage(ctx, "sess-1", domain.SenderStudent, "What's your biggest pain point?")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, "sess-1", domain.SenderPersona, "Stock-outs.")
	require.NoError(t, err)

	rows, err := s.ExportConversation(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Retail", rows[0].DomainName)
	assert.Equal(t, "Maria", rows[0].PersonaName)
	assert.Equal(t, domain.SenderStudent, rows[0].Sender)
	assert.Equal(t, domain.SenderPersona, rows[1].Sender)
	assert.False(t, rows[1].CreatedAt.Before(rows[0].CreatedAt))

	empty, err := s.ExportConversation(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
