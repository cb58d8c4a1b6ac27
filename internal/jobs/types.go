package jobs

import (
	"github.com/riverqueue/river"

	"github.com/quizzy-ai/quizzy/internal/store/model"
)

const (
	PDFQueue  = "pdf_processing"
	QuizQueue = "quiz_processing"

	MaxJobRetries = 1
)

// PDFArgs contains the arguments for a PDF ingestion job. Stored in
// river_job.args as JSON.
type PDFArgs struct {
	UploadID uint   `json:"upload_id"`
	PdfID    string `json:"pdf_id"`
	URL      string `json:"url"`
	OrgID    string `json:"org_id"`
	Username string `json:"username"`
}

func (PDFArgs) Kind() string {
	return "pdf_ingest"
}

func (PDFArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       PDFQueue,
		MaxAttempts: MaxJobRetries,
		Priority:    1,
	}
}

// QuizArgs contains the arguments for a quiz generation job.
type QuizArgs struct {
	ExamID       uint     `json:"exam_id"`
	QuizID       string   `json:"quiz_id"`
	QuizType     string   `json:"quiz_type"`
	PdfIDs       []string `json:"pdf_ids"`
	Topic        string   `json:"topic,omitempty"`
	StartPage    int      `json:"start_page,omitempty"`
	EndPage      int      `json:"end_page,omitempty"`
	NumQuestions int      `json:"num_questions"`
	Difficulty   string   `json:"difficulty"`
	OrgID        string   `json:"org_id"`
	Username     string   `json:"username"`
}

func (QuizArgs) Kind() string {
	return "quiz_generate"
}

func (QuizArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QuizQueue,
		MaxAttempts: MaxJobRetries,
		Priority:    2,
	}
}

// PDFResult is recorded as the job output of a successful ingestion.
type PDFResult struct {
	PdfID   string `json:"pdf_id"`
	PdfName string `json:"pdf_name"`
	Pages   int    `json:"total_pages"`
	Chunks  int    `json:"chunks_indexed"`
}

// QuizOutput is recorded as the job output of a successful generation.
type QuizOutput struct {
	QuizID    string               `json:"quiz_id"`
	Questions []model.QuizQuestion `json:"questions"`
	Metadata  model.QuizMetadata   `json:"metadata"`
}
