package rag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quizzy-ai/quizzy/internal/store/model"
)

// parseQuestions decodes the model completion into questions. Accepts either a
// bare JSON array or an object wrapping one under "questions", with or without
// markdown fences, since models are not perfectly obedient about format.
func parseQuestions(completion string) ([]model.QuizQuestion, error) {
	text := stripFences(strings.TrimSpace(completion))

	var questions []model.QuizQuestion
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return validateQuestions(questions)
	}

	var wrapped struct {
		Questions []model.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && len(wrapped.Questions) > 0 {
		return validateQuestions(wrapped.Questions)
	}

	return nil, fmt.Errorf("completion is not valid question JSON")
}

func validateQuestions(questions []model.QuizQuestion) ([]model.QuizQuestion, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("completion contains no questions")
	}

	for i, q := range questions {
		if q.Question == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d has fewer than 2 options", i+1)
		}
		if !containsOption(q.Options, q.CorrectAnswer) {
			return nil, fmt.Errorf("question %d correct answer is not among its options", i+1)
		}
	}
	return questions, nil
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
