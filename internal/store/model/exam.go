package model

import (
	"encoding/json"
	"time"
)

// QuizQuestion is one generated multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizMetadata describes how a quiz was generated.
type QuizMetadata struct {
	QuizType     string `json:"quiz_type"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	Topic        string `json:"topic,omitempty"`
	PdfCount     int    `json:"pdf_count"`
}

// Exam represents a quiz generation request. The webhook receiver persists
// the generated questions against it once the worker reports an outcome.
type Exam struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       *time.Time
	Username        string `gorm:"type:VARCHAR(255)"`
	OrgID           string `gorm:"index:exams_org_id_idx;type:VARCHAR(255)"`
	Name            string `gorm:"type:VARCHAR(255)"`
	ProcessingState string `gorm:"not null;type:VARCHAR(50);default:pending"`
	QuizID          *string
	Questions       *JSONField[[]QuizQuestion] `gorm:"type:jsonb"`
	Metadata        *JSONField[QuizMetadata]   `gorm:"type:jsonb"`
	Error           *string
	GeneratedAt     *time.Time
}

type ExamList []Exam

func (e Exam) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}
