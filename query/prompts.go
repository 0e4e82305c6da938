package query

import "fmt"

// System prompts keyed by intent. Each one frames the model as a tutor with
// a different emphasis; the retrieved context arrives in the user prompt.
const (
	generalSystemPrompt = `You are an AI tutor for an educational platform.
Use the provided context to answer questions accurately and educationally.
Explain concepts clearly and relate them to practical applications when possible.
If you're not certain about something, say so rather than guessing.`

	proceduralSystemPrompt = `You are an AI tutor specializing in step-by-step procedural guidance.
Use the provided context to give clear, sequential instructions.
If the context contains procedural steps, present them in order.
Be encouraging and provide helpful hints when appropriate.`

	assessmentSystemPrompt = `You are an AI assessment assistant.
Use the provided context to create educational questions or evaluate understanding.
Focus on key concepts and learning objectives from the context.`
)

// fallbackAnswer is returned when answer generation fails. Retrieval results
// still shape the response's confidence and sources.
const fallbackAnswer = "I apologize, but I'm having trouble generating a response right now. Please try again."

func systemPrompt(intent Intent) string {
	switch intent {
	case IntentProcedural:
		return proceduralSystemPrompt
	case IntentAssessment:
		return assessmentSystemPrompt
	default:
		return generalSystemPrompt
	}
}

func userPrompt(question, contextText string) string {
	return fmt.Sprintf(`Context Information:
%s

Question: %s

Please provide a comprehensive answer based on the context provided. If the context doesn't contain enough information to fully answer the question, acknowledge this and provide what information you can.`,
		contextText, question)
}
