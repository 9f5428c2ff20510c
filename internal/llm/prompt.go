package llm

import (
	"strings"

	"github.com/ashureev/cleia/internal/domain"
)

// DefaultTraits replaces missing personality traits in the prompt.
const DefaultTraits = "No specific traits provided"

const exerciseInstructions = `This is a requirements elicitation exercise where a student is learning to gather business requirements.
The student should discover your needs through questioning.
Be realistic about your business constraints and priorities.
Don't volunteer all information at once - let the student ask good questions.
If asked about technical implementation, redirect to your business needs.
Stay in character throughout the conversation.
`

// BuildPrompt renders the single prompt string for one chat turn: persona
// context, behavioural instructions, the prior transcript and the new message
// followed by the persona's cue.
func BuildPrompt(p domain.Persona, history []domain.ConversationMessage, userMessage string) string {
	traits := strings.TrimSpace(p.Traits())
	if traits == "" {
		traits = DefaultTraits
	}

	var b strings.Builder
	if initial := strings.TrimSpace(p.InitialPrompt); initial != "" {
		b.WriteString(initial)
		b.WriteString("\n\n")
	}

	b.WriteString("IMPORTANT CONTEXT:\n")
	b.WriteString("- You are " + p.Name + ", a " + p.Role + "\n")
	b.WriteString("- Personality traits: " + traits + "\n")
	b.WriteString("- Background: " + p.BackgroundStory + "\n\n")
	b.WriteString(exerciseInstructions)

	b.WriteString("\n\nConversation History:\n")
	for _, m := range history {
		b.WriteString(string(m.Sender))
		b.WriteString(": ")
		b.WriteString(m.Message)
		b.WriteByte('\n')
	}
	b.WriteString(string(domain.SenderStudent) + ": " + userMessage + "\n")
	b.WriteString(string(domain.SenderPersona) + ":")
	return b.String()
}
