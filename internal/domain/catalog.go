// Package domain contains core domain types for the C-LEIA elicitation API.
package domain

// Domain is a business subject area that personas belong to.
type Domain struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Persona is a simulated business stakeholder voiced by the model.
type Persona struct {
	ID                int64   `json:"id"`
	DomainID          int64   `json:"domain_id"`
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	BackgroundStory   string  `json:"background_story"`
	PersonalityTraits *string `json:"personality_traits,omitempty"`
	InitialPrompt     string  `json:"-"`
}

// Traits returns the personality traits, or "" when none were recorded.
func (p *Persona) Traits() string {
	if p.PersonalityTraits == nil {
		return ""
	}
	return *p.PersonalityTraits
}

// NewPersona holds the fields accepted when an administrator creates a persona.
type NewPersona struct {
	DomainID          int64
	Name              string
	Role              string
	BackgroundStory   string
	PersonalityTraits *string
	InitialPrompt     string
}
