package v1

import (
	"encoding/json"
	"time"
)

// PDFJobCreateRequest submits a PDF for asynchronous ingestion. Name
// overrides the display name derived from the URL.
type PDFJobCreateRequest struct {
	URL  string `json:"source_url" validate:"required,url"`
	Name string `json:"name" validate:"omitempty,max=255"`
}

// QuizJobCreateRequest submits a quiz for asynchronous generation.
type QuizJobCreateRequest struct {
	QuizType     string   `json:"quiz_type" validate:"required,oneof=topic page_range multi_pdf_topic"`
	PdfIDs       []string `json:"pdf_ids" validate:"required,min=1,dive,uuid4"`
	Topic        string   `json:"topic" validate:"required_unless=QuizType page_range"`
	StartPage    int      `json:"start_page" validate:"required_if=QuizType page_range,omitempty,min=1"`
	EndPage      int      `json:"end_page" validate:"required_if=QuizType page_range,omitempty,gtefield=StartPage"`
	NumQuestions int      `json:"num_questions" validate:"required,min=1,max=20"`
	Difficulty   string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// JobCreated acknowledges an accepted job submission. ResourceID is the
// identifier the job's output will be filed under (pdf id or quiz id),
// assigned at submission time.
type JobCreated struct {
	JobID      int64   `json:"job_id"`
	Queue      string  `json:"queue"`
	Status     string  `json:"status"`
	ResourceID *string `json:"resource_id,omitempty"`
	UploadID   *uint   `json:"upload_id,omitempty"`
	ExamID     *uint   `json:"exam_id,omitempty"`
}

// JobMeta carries queue-level detail about a job.
type JobMeta struct {
	Queue   string `json:"queue"`
	Kind    string `json:"kind"`
	Attempt int    `json:"attempt"`
}

// JobStatus is the full status payload for one job.
type JobStatus struct {
	JobID     int64           `json:"job_id"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Meta      JobMeta         `json:"meta"`
}

// QueueInfo describes one work queue.
type QueueInfo struct {
	Name   string         `json:"name"`
	Counts map[string]int `json:"counts"`
}

// QueueList is the payload of the queues endpoint.
type QueueList struct {
	Queues []QueueInfo `json:"queues"`
}

// Upload is the API representation of a stored PDF.
type Upload struct {
	ID              uint       `json:"id"`
	URL             string     `json:"url"`
	PdfName         *string    `json:"pdf_name,omitempty"`
	ProcessingState string     `json:"processing_state"`
	PdfID           *string    `json:"pdf_id,omitempty"`
	Pages           *int       `json:"pages,omitempty"`
	Error           *string    `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

type UploadList []Upload

// QuizQuestion is one generated multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Exam is the API representation of a quiz request and its outcome.
type Exam struct {
	ID              uint           `json:"id"`
	Name            string         `json:"name,omitempty"`
	ProcessingState string         `json:"processing_state"`
	QuizID          *string        `json:"quiz_id,omitempty"`
	Questions       []QuizQuestion `json:"questions,omitempty"`
	Error           *string        `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	GeneratedAt     *time.Time     `json:"generated_at,omitempty"`
}

type ExamList []Exam

// ChatRequest asks a free-form question over ingested PDFs.
type ChatRequest struct {
	PdfIDs   []string `json:"pdf_ids" validate:"required,min=1,dive,uuid4"`
	Question string   `json:"question" validate:"required,min=3"`
}

// ChatSource points at the material an answer was grounded on.
type ChatSource struct {
	PdfID   string `json:"pdf_id"`
	PdfName string `json:"pdf_name"`
	Page    int    `json:"page"`
}

// ChatResponse is the grounded answer to a chat request.
type ChatResponse struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources,omitempty"`
}

// ChatStreamEvent is one server-sent event of a streamed chat answer. Delta
// events carry a piece of the answer; the final event has Done set and the
// sources.
type ChatStreamEvent struct {
	Delta   string       `json:"delta,omitempty"`
	Done    bool         `json:"done,omitempty"`
	Sources []ChatSource `json:"sources,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Error is the generic error payload.
type Error struct {
	Message string `json:"message"`
}

// Health is the liveness payload.
type Health struct {
	Status string `json:"status"`
}
