package events

import (
	"github.com/quizzy-ai/quizzy/internal/store/model"
)

type JobEvent struct {
	JobID int64  `json:"job_id"`
	Queue string `json:"queue"`
	Kind  string `json:"kind"`
	State string `json:"state"`
	OrgID string `json:"org_id"`
}

type UploadProcessedEvent struct {
	UploadID uint    `json:"upload_id"`
	Status   string  `json:"status"`
	PdfID    *string `json:"pdf_id,omitempty"`
	Pages    *int    `json:"pages,omitempty"`
}

type QuizGeneratedEvent struct {
	ExamID    uint    `json:"exam_id"`
	Status    string  `json:"status"`
	QuizID    *string `json:"quiz_id,omitempty"`
	Questions int     `json:"questions"`
}

func NewUploadProcessedEvent(upload *model.Upload) UploadProcessedEvent {
	e := UploadProcessedEvent{
		UploadID: upload.ID,
		Status:   upload.ProcessingState,
		PdfID:    upload.PdfID,
		Pages:    upload.Pages,
	}
	return e
}

func NewQuizGeneratedEvent(exam *model.Exam) QuizGeneratedEvent {
	e := QuizGeneratedEvent{
		ExamID: exam.ID,
		Status: exam.ProcessingState,
		QuizID: exam.QuizID,
	}
	if exam.Questions != nil {
		e.Questions = len(exam.Questions.Data)
	}
	return e
}
