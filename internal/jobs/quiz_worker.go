package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/quizzy-ai/quizzy/internal/rag"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/webhook"
	"github.com/quizzy-ai/quizzy/pkg/log"
	"github.com/quizzy-ai/quizzy/pkg/metrics"
)

// QuizGenerator produces questions over already ingested PDFs.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, req rag.QuizRequest) ([]model.QuizQuestion, error)
}

type QuizWorker struct {
	river.WorkerDefaults[QuizArgs]
	generator QuizGenerator
	notifier  Notifier
	timeout   time.Duration
	logger    *log.StructuredLogger
}

func NewQuizWorker(generator QuizGenerator, notifier Notifier, timeout time.Duration) *QuizWorker {
	return &QuizWorker{
		generator: generator,
		notifier:  notifier,
		timeout:   timeout,
		logger:    log.NewDebugLogger("quiz_worker"),
	}
}

func (w *QuizWorker) Timeout(job *river.Job[QuizArgs]) time.Duration {
	return w.timeout
}

func (w *QuizWorker) Work(ctx context.Context, job *river.Job[QuizArgs]) error {
	start := time.Now()
	tracer := w.logger.WithContext(ctx).Operation("quiz_generate").
		WithParam("job_id", job.ID).
		WithParam("exam_id", job.Args.ExamID).
		WithString("quiz_type", job.Args.QuizType).
		Build()

	if err := ctx.Err(); err != nil {
		return err
	}

	questions, err := w.generator.GenerateQuiz(ctx, rag.QuizRequest{
		QuizType:     job.Args.QuizType,
		PdfIDs:       job.Args.PdfIDs,
		Topic:        job.Args.Topic,
		StartPage:    job.Args.StartPage,
		EndPage:      job.Args.EndPage,
		NumQuestions: job.Args.NumQuestions,
		Difficulty:   job.Args.Difficulty,
	})
	if err != nil {
		metrics.IncreaseJobsProcessed(QuizQueue, "failure")
		metrics.ObserveJobDuration(QuizQueue, time.Since(start))
		tracer.Error(err).Log()

		w.notifier.QuizGenerated(ctx, job.Args.ExamID, webhook.NewQuizFailed(job.Args.ExamID, err.Error()))
		return err
	}

	quizID := job.Args.QuizID
	meta := model.QuizMetadata{
		QuizType:     job.Args.QuizType,
		NumQuestions: len(questions),
		Difficulty:   job.Args.Difficulty,
		Topic:        job.Args.Topic,
		PdfCount:     len(job.Args.PdfIDs),
	}

	metrics.IncreaseJobsProcessed(QuizQueue, "success")
	metrics.ObserveJobDuration(QuizQueue, time.Since(start))
	tracer.Success().WithString("quiz_id", quizID).WithInt("questions", len(questions)).Log()

	w.notifier.QuizGenerated(ctx, job.Args.ExamID, webhook.NewQuizGenerated(job.Args.ExamID, quizID, questions, meta))

	return river.RecordOutput(ctx, QuizOutput{
		QuizID:    quizID,
		Questions: questions,
		Metadata:  meta,
	})
}
