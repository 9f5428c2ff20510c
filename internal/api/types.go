package api

import (
	"errors"
	"time"

	"github.com/ashureev/cleia/internal/domain"
	"github.com/ashureev/cleia/internal/elicitation"
)

// timestampLayout is RFC 3339 with fixed millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var errMissingField = errors.New("missing required field")

type validator interface {
	validate() error
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type personaResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	BackgroundStory string `json:"background_story"`
}

type startSessionRequest struct {
	DomainID  *int64  `json:"domain_id"`
	PersonaID *int64  `json:"persona_id"`
	StudentID *string `json:"student_id"`
}

func (req *startSessionRequest) validate() error {
	if req.DomainID == nil || req.PersonaID == nil {
		return errMissingField
	}
	return nil
}

type sessionDomain struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type sessionPersona struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	BackgroundStory string `json:"background_story"`
}

type startSessionResponse struct {
	SessionID string         `json:"session_id"`
	Domain    sessionDomain  `json:"domain"`
	Persona   sessionPersona `json:"persona"`
}

func newStartSessionResponse(s *elicitation.StartedSession) startSessionResponse {
	return startSessionResponse{
		SessionID: s.SessionID,
		Domain: sessionDomain{
			Name:        s.Details.DomainName,
			Description: s.Details.DomainDescription,
		},
		Persona: sessionPersona{
			Name:            s.Details.PersonaName,
			Role:            s.Details.PersonaRole,
			BackgroundStory: s.Details.BackgroundStory,
		},
	}
}

type chatRequest struct {
	SessionID string  `json:"session_id"`
	Message   *string `json:"message"`
}

func (req *chatRequest) validate() error {
	if req.SessionID == "" || req.Message == nil {
		return errMissingField
	}
	return nil
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type submitSolutionRequest struct {
	SessionID       string  `json:"session_id"`
	SolutionType    *string `json:"solution_type"`
	SolutionContent *string `json:"solution_content"`
}

func (req *submitSolutionRequest) validate() error {
	if req.SessionID == "" || req.SolutionType == nil || req.SolutionContent == nil {
		return errMissingField
	}
	return nil
}

type createPersonaRequest struct {
	DomainID          *int64  `json:"domain_id"`
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	BackgroundStory   string  `json:"background_story"`
	PersonalityTraits *string `json:"personality_traits"`
}

func (req *createPersonaRequest) validate() error {
	if req.DomainID == nil || req.Name == "" || req.Role == "" || req.BackgroundStory == "" {
		return errMissingField
	}
	return nil
}

func (req *createPersonaRequest) toDomain() domain.NewPersona {
	return domain.NewPersona{
		DomainID:          *req.DomainID,
		Name:              req.Name,
		Role:              req.Role,
		BackgroundStory:   req.BackgroundStory,
		PersonalityTraits: req.PersonalityTraits,
	}
}

type createPersonaResponse struct {
	Message   string `json:"message"`
	PersonaID int64  `json:"persona_id"`
}

type exportPersona struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type exportMessage struct {
	Sender    domain.Sender `json:"sender"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
}

type exportResponse struct {
	Domain   *string         `json:"domain"`
	Persona  *exportPersona  `json:"persona"`
	Messages []exportMessage `json:"messages"`
}

func newExportResponse(t *elicitation.Transcript) exportResponse {
	resp := exportResponse{
		Domain:   t.Domain,
		Messages: make([]exportMessage, 0, len(t.Messages)),
	}
	if t.Persona != nil {
		resp.Persona = &exportPersona{Name: t.Persona.Name, Role: t.Persona.Role}
	}
	for _, m := range t.Messages {
		resp.Messages = append(resp.Messages, exportMessage{
			Sender:    m.Sender,
			Message:   m.Message,
			Timestamp: formatTimestamp(m.Timestamp),
		})
	}
	return resp
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
