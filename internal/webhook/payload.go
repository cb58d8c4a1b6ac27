package webhook

import (
	"time"

	"github.com/quizzy-ai/quizzy/internal/store/model"
)

// UploadResult is posted to the upload-processed receiver once a PDF
// ingestion job reaches a terminal state. The upload id in the body mirrors
// the one in the target URL so receivers can reject mismatched deliveries.
type UploadResult struct {
	UploadID  uint      `json:"upload_id"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	PdfID     *string   `json:"pdf_id,omitempty"`
	PdfName   *string   `json:"pdf_name,omitempty"`
	Pages     *int      `json:"total_pages,omitempty"`
	Chunks    *int      `json:"chunks_indexed,omitempty"`
	Error     *string   `json:"error,omitempty"`
}

// QuizResult is posted to the quiz-generated receiver once a quiz
// generation job reaches a terminal state.
type QuizResult struct {
	ExamID    uint                 `json:"exam_id"`
	Success   bool                 `json:"success"`
	Timestamp time.Time            `json:"timestamp"`
	QuizID    *string              `json:"quiz_id,omitempty"`
	Questions []model.QuizQuestion `json:"questions,omitempty"`
	Metadata  *model.QuizMetadata  `json:"metadata,omitempty"`
	Error     *string              `json:"error,omitempty"`
}

func NewUploadProcessed(uploadID uint, pdfID, pdfName string, pages, chunks int) UploadResult {
	return UploadResult{
		UploadID:  uploadID,
		Success:   true,
		Timestamp: time.Now().UTC(),
		PdfID:     &pdfID,
		PdfName:   &pdfName,
		Pages:     &pages,
		Chunks:    &chunks,
	}
}

func NewUploadFailed(uploadID uint, reason string) UploadResult {
	return UploadResult{
		UploadID:  uploadID,
		Success:   false,
		Timestamp: time.Now().UTC(),
		Error:     &reason,
	}
}

func NewQuizGenerated(examID uint, quizID string, questions []model.QuizQuestion, meta model.QuizMetadata) QuizResult {
	return QuizResult{
		ExamID:    examID,
		Success:   true,
		Timestamp: time.Now().UTC(),
		QuizID:    &quizID,
		Questions: questions,
		Metadata:  &meta,
	}
}

func NewQuizFailed(examID uint, reason string) QuizResult {
	return QuizResult{
		ExamID:    examID,
		Success:   false,
		Timestamp: time.Now().UTC(),
		Error:     &reason,
	}
}
