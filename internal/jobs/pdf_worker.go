package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"github.com/tmc/langchaingo/schema"

	"github.com/quizzy-ai/quizzy/internal/pdf"
	"github.com/quizzy-ai/quizzy/internal/webhook"
	"github.com/quizzy-ai/quizzy/pkg/log"
	"github.com/quizzy-ai/quizzy/pkg/metrics"
)

// Downloader fetches a PDF and returns its bytes and display name.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Indexer writes chunked documents into the PDF's vector namespace.
type Indexer interface {
	IndexDocuments(ctx context.Context, pdfID string, docs []schema.Document) (int, error)
}

// Notifier reports job outcomes back to the API's webhook receivers.
type Notifier interface {
	UploadProcessed(ctx context.Context, uploadID uint, result webhook.UploadResult)
	QuizGenerated(ctx context.Context, examID uint, result webhook.QuizResult)
}

type PDFWorker struct {
	river.WorkerDefaults[PDFArgs]
	downloader Downloader
	indexer    Indexer
	notifier   Notifier
	timeout    time.Duration
	extract    func(data []byte) ([]string, error)
	logger     *log.StructuredLogger
}

func NewPDFWorker(downloader Downloader, indexer Indexer, notifier Notifier, timeout time.Duration) *PDFWorker {
	return &PDFWorker{
		downloader: downloader,
		indexer:    indexer,
		notifier:   notifier,
		timeout:    timeout,
		extract:    pdf.ExtractPages,
		logger:     log.NewDebugLogger("pdf_worker"),
	}
}

func (w *PDFWorker) Timeout(job *river.Job[PDFArgs]) time.Duration {
	return w.timeout
}

// SetExtractor overrides the page extraction function. Used by tests to avoid
// building real PDF fixtures.
func (w *PDFWorker) SetExtractor(extract func(data []byte) ([]string, error)) {
	w.extract = extract
}

func (w *PDFWorker) Work(ctx context.Context, job *river.Job[PDFArgs]) error {
	start := time.Now()
	tracer := w.logger.WithContext(ctx).Operation("pdf_ingest").
		WithParam("job_id", job.ID).
		WithParam("upload_id", job.Args.UploadID).
		WithString("url", job.Args.URL).
		Build()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, pdfName, err := w.downloader.Download(ctx, job.Args.URL)
	if err != nil {
		return w.fail(ctx, tracer, job, start, err)
	}
	tracer.Step("downloaded").WithInt("bytes", len(data)).Log()

	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := w.extract(data)
	if err != nil {
		return w.fail(ctx, tracer, job, start, err)
	}
	tracer.Step("extracted").WithInt("pages", len(pages)).Log()

	pdfID := job.Args.PdfID
	docs, err := pdf.BuildDocuments(pages, pdf.DocumentMeta{PdfID: pdfID, PdfName: pdfName})
	if err != nil {
		return w.fail(ctx, tracer, job, start, err)
	}

	chunks, err := w.indexer.IndexDocuments(ctx, pdfID, docs)
	if err != nil {
		return w.fail(ctx, tracer, job, start, err)
	}

	result := PDFResult{
		PdfID:   pdfID,
		PdfName: pdfName,
		Pages:   len(pages),
		Chunks:  chunks,
	}

	metrics.IncreaseJobsProcessed(PDFQueue, "success")
	metrics.ObserveJobDuration(PDFQueue, time.Since(start))
	tracer.Success().WithString("pdf_id", pdfID).WithInt("chunks", chunks).Log()

	w.notifier.UploadProcessed(ctx, job.Args.UploadID, webhook.NewUploadProcessed(job.Args.UploadID, pdfID, pdfName, len(pages), chunks))

	return river.RecordOutput(ctx, result)
}

func (w *PDFWorker) fail(ctx context.Context, tracer *log.OperationTracer, job *river.Job[PDFArgs], start time.Time, err error) error {
	metrics.IncreaseJobsProcessed(PDFQueue, "failure")
	metrics.ObserveJobDuration(PDFQueue, time.Since(start))
	tracer.Error(err).Log()

	w.notifier.UploadProcessed(ctx, job.Args.UploadID, webhook.NewUploadFailed(job.Args.UploadID, err.Error()))
	return err
}
