package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/cleia/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore implements Repository on database/sql for SQLite and Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open creates a repository for the given DATABASE_URL and verifies connectivity.
func Open(databaseURL string) (*SQLStore, error) {
	dialect, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	if dialect.Path != "" {
		if err := os.MkdirAll(filepath.Dir(dialect.Path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.Driver, dialect.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect, now: time.Now}, nil
}

// Dialect returns the backend this store is connected to.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) q(query string) string {
	return s.dialect.Rebind(query)
}

// withTx runs fn in a transaction. Any error from fn rolls the transaction back.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back transaction", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "query", what, "error", err)
	}
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// ListDomains returns every domain ordered by id.
func (s *SQLStore) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM domains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	defer closeRows(rows, "domains")

	domains := []domain.Domain{}
	for rows.Next() {
		var d domain.Domain
		var description sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &description); err != nil {
			return nil, fmt.Errorf("scan domain row: %w", err)
		}
		if description.Valid {
			d.Description = &description.String
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domains: %w", err)
	}
	return domains, nil
}

// ListPersonas returns the personas of a domain ordered by id.
func (s *SQLStore) ListPersonas(ctx context.Context, domainID int64) ([]domain.Persona, error) {
	query := `
		SELECT id, domain_id, name, role, background_story, personality_traits, initial_prompt
		FROM personas WHERE domain_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.q(query), domainID)
	if err != nil {
		return nil, fmt.Errorf("query personas: %w", err)
	}
	defer closeRows(rows, "personas")

	personas := []domain.Persona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personas: %w", err)
	}
	return personas, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersona(row rowScanner) (*domain.Persona, error) {
	var p domain.Persona
	var traits sql.NullString
	if err := row.Scan(
		&p.ID, &p.DomainID, &p.Name, &p.Role,
		&p.BackgroundStory, &traits, &p.InitialPrompt,
	); err != nil {
		return nil, fmt.Errorf("scan persona row: %w", err)
	}
	if traits.Valid {
		p.PersonalityTraits = &traits.String
	}
	return &p, nil
}

// CreateDomain inserts a domain and returns its identifier.
func (s *SQLStore) CreateDomain(ctx context.Context, name string, description *string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO domains (name, description) VALUES (?, ?) RETURNING id`
		if err := tx.QueryRowContext(ctx, s.q(query), name, nullString(description)).Scan(&id); err != nil {
			return fmt.Errorf("insert domain: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreatePersona inserts a persona and returns its identifier.
func (s *SQLStore) CreatePersona(ctx context.Context, p domain.NewPersona) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO personas (
				domain_id, name, role, background_story, initial_prompt, personality_traits
			) VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`

		err := tx.QueryRowContext(ctx, s.q(query),
			p.DomainID, p.Name, p.Role, p.BackgroundStory,
			p.InitialPrompt, nullString(p.PersonalityTraits),
		).Scan(&id)
		if IsForeignKeyViolation(err) {
			return domain.ErrDomainNotFound
		}
		if err != nil {
			return fmt.Errorf("insert persona: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateSession resolves the display snapshot for the domain/persona pair and
// inserts the session in the same transaction. The persona must belong to the domain.
func (s *SQLStore) CreateSession(ctx context.Context, session *domain.StudentSession) (*domain.SessionDetails, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}

	var details domain.SessionDetails
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT d.name, d.description, p.name, p.role, p.background_story
			FROM domains d
			JOIN personas p ON p.domain_id = d.id
			WHERE d.id = ? AND p.id = ?`

		var description sql.NullString
		err := tx.QueryRowContext(ctx, s.q(query), session.DomainID, session.PersonaID).Scan(
			&details.DomainName, &description,
			&details.PersonaName, &details.PersonaRole, &details.BackgroundStory,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDomainPersonaNotFound
		}
		if err != nil {
			return fmt.Errorf("query session details: %w", err)
		}
		if description.Valid {
			details.DomainDescription = &description.String
		}

		insert := `
			INSERT INTO student_sessions (session_id, student_id, domain_id, persona_id, created_at)
			VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, s.q(insert),
			session.SessionID, nullString(session.StudentID),
			session.DomainID, session.PersonaID, session.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// GetSessionPersona resolves the persona linked to a session.
func (s *SQLStore) GetSessionPersona(ctx context.Context, sessionID string) (*domain.Persona, error) {
	query := `
		SELECT p.id, p.domain_id, p.name, p.role, p.background_story,
		       p.personality_traits, p.initial_prompt
		FROM student_sessions s
		JOIN personas p ON s.persona_id = p.id
		WHERE s.session_id = ?`

	p, err := scanPersona(s.db.QueryRowContext(ctx, s.q(query), sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListMessages returns the transcript of a session ordered by creation time.
func (s *SQLStore) ListMessages(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	query := `
		SELECT id, session_id, persona_id, sender, message, created_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.q(query), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer closeRows(rows, "conversations")

	messages := []domain.ConversationMessage{}
	for rows.Next() {
		var m domain.ConversationMessage
		var sender string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.PersonaID, &sender, &m.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		m.Sender = domain.Sender(sender)
		m.CreatedAt = time.UnixMilli(createdAt).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation: %w", err)
	}
	return messages, nil
}

// AppendMessage adds a transcript line. The persona is taken from the session row.
func (s *SQLStore) AppendMessage(ctx context.Context, sessionID string, sender domain.Sender, message string) (*domain.ConversationMessage, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("invalid sender %q", sender)
	}

	msg := &domain.ConversationMessage{
		SessionID: sessionID,
		Sender:    sender,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		lookup := `SELECT persona_id FROM student_sessions WHERE session_id = ?`
		err := tx.QueryRowContext(ctx, s.q(lookup), sessionID).Scan(&msg.PersonaID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("query session persona: %w", err)
		}

		insert := `
			INSERT INTO conversations (session_id, persona_id, sender, message, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`
		if err := tx.QueryRowContext(ctx, s.q(insert),
			sessionID, msg.PersonaID, string(sender), message, msg.CreatedAt.UnixMilli(),
		).Scan(&msg.ID); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SubmitSolution stores a solution. The type tag is not validated.
func (s *SQLStore) SubmitSolution(ctx context.Context, submission *domain.SolutionSubmission) (int64, error) {
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = s.now()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO student_solutions (session_id, solution_type, solution_content, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`
		err := tx.QueryRowContext(ctx, s.q(query),
			submission.SessionID, submission.SolutionType,
			submission.SolutionContent, submission.CreatedAt.UnixMilli(),
		).Scan(&submission.ID)
		if IsForeignKeyViolation(err) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("insert solution: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return submission.ID, nil
}

// ExportConversation returns the joined transcript rows of a session.
func (s *SQLStore) ExportConversation(ctx context.Context, sessionID string) ([]domain.ExportRow, error) {
	query := `
		SELECT c.sender, c.message, c.created_at,
		       p.name, p.role, d.name
		FROM conversations c
		JOIN student_sessions s ON c.session_id = s.session_id
		JOIN personas p ON c.persona_id = p.id
		JOIN domains d ON s.domain_id = d.id
		WHERE c.session_id = ?
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := s.db.QueryContext(ctx, s.q(query), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query export: %w", err)
	}
	defer closeRows(rows, "export")

	var out []domain.ExportRow
	for rows.Next() {
		var r domain.ExportRow
		var sender string
		var createdAt int64
		if err := rows.Scan(&sender, &r.Message, &createdAt, &r.PersonaName, &r.PersonaRole, &r.DomainName); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		r.Sender = domain.Sender(sender)
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export: %w", err)
	}
	return out, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
