package llm

import "fmt"

// DefaultPersonality is the chat system instruction used until the user edits it
const DefaultPersonality = "You are HustleGenie, an AI assistant with a witty, encouraging, and magical personality. You help users with their side hustle questions, offering advice, motivation, and creative ideas. Keep your answers concise and fun. Format longer responses into paragraphs for readability."

// ChatFailureReply replaces the model's answer when a chat call fails
const ChatFailureReply = "Oops! My magic lamp seems to be on the fritz. Please try again in a moment."

const (
	ideasInstruction       = "You are HustleGenie, an AI assistant that helps people discover profitable side hustles. Your personality is witty, encouraging, and a bit magical. Your goal is to provide creative and actionable side hustle ideas based on the user's input. Respond with exactly 3 ideas in the requested JSON format."
	inspirationInstruction = "You are HustleGenie, an AI assistant that provides a single, inspiring side hustle idea to spark creativity. Your personality is witty, encouraging, and a bit magical. Respond with exactly 1 idea in the requested JSON format."
	planInstruction        = "You are HustleGenie, an AI assistant that creates actionable launch plans for side hustles. Your personality is encouraging and magical. Respond with exactly one 7-day plan in the requested JSON format."
)

const inspirationPrompt = `Conjure up ONE unique and inspiring side hustle idea.
It could be something creative, tech-focused, or a simple service with a unique twist.
The goal is to spark creativity. Make it exciting and magical.`

func ideasPrompt(form WishForm) string {
	return fmt.Sprintf(`Based on my wishes, conjure up 3 side hustle ideas for me. Be creative and encouraging!

My skills are: %q
I can commit: %q per week.
I prefer: %q hustles.
My main goal is: %q.

Generate ideas that are a good match for these criteria.`, form.Skills, form.Time, string(form.Location), form.Goal)
}

func planPrompt(idea HustleIdea) string {
	return fmt.Sprintf(`I've chosen a side hustle idea and I need a 7-day launch plan to get started.
The hustle is: %q
Description: %q

Conjure up a magical but practical 7-day step-by-step plan. For each day, provide a creative title and a few simple, actionable tasks.`, idea.Title, idea.Description)
}
