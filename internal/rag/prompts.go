package rag

import (
	"fmt"
	"strings"

	"github.com/quizzy-ai/quizzy/internal/vector"
)

const quizFormatInstructions = `Return ONLY a JSON array, no prose and no markdown fences. Each element must be an object with exactly these keys:
- "question": the question text
- "options": an array of exactly 4 answer strings
- "correct_answer": the exact text of the correct option
- "explanation": one or two sentences explaining why the answer is correct

Every question must be answerable from the provided material alone.`

var difficultyGuidance = map[string]string{
	"easy":   "Ask about definitions and directly stated facts.",
	"medium": "Ask questions that require connecting ideas from the material.",
	"hard":   "Ask questions that require reasoning over multiple parts of the material, with plausible distractors.",
}

func buildQuizPrompt(req QuizRequest, chunks []vector.Chunk) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are an expert exam author. Create exactly %d multiple-choice questions at %s difficulty.\n",
		req.NumQuestions, req.Difficulty))
	if guidance, ok := difficultyGuidance[req.Difficulty]; ok {
		sb.WriteString(guidance + "\n")
	}

	switch req.QuizType {
	case QuizTypeTopic, QuizTypeMultiPdfTopic:
		sb.WriteString(fmt.Sprintf("The quiz must focus on the topic: %q.\n", req.Topic))
	case QuizTypePageRange:
		sb.WriteString(fmt.Sprintf("The quiz covers pages %d to %d of the document.\n", req.StartPage, req.EndPage))
	}

	sb.WriteString("\nSTUDY MATERIAL:\n")
	sb.WriteString(formatChunks(chunks))
	sb.WriteString("\n\n")
	sb.WriteString(quizFormatInstructions)

	return sb.String()
}

func buildChatPrompt(question string, chunks []vector.Chunk) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful study assistant. Answer the question using only the provided material. ")
	sb.WriteString("If the material does not contain the answer, say so.\n\n")
	sb.WriteString("MATERIAL:\n")
	sb.WriteString(formatChunks(chunks))
	sb.WriteString("\n\nQUESTION: ")
	sb.WriteString(question)

	return sb.String()
}

func formatChunks(chunks []vector.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[%s, page %d]\n%s", chunk.PdfName, chunk.Page, chunk.Text))
	}
	return strings.Join(parts, "\n---\n")
}
