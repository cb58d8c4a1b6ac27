package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/tmc/langchaingo/schema"

	"github.com/quizzy-ai/quizzy/internal/jobs"
	"github.com/quizzy-ai/quizzy/internal/rag"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/webhook"
)

func TestJobs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Jobs Suite")
}

type stubDownloader struct {
	data []byte
	name string
	err  error
}

func (s *stubDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	return s.data, s.name, s.err
}

type stubIndexer struct {
	chunks int
	err    error
	calls  int
}

func (s *stubIndexer) IndexDocuments(ctx context.Context, pdfID string, docs []schema.Document) (int, error) {
	s.calls++
	return s.chunks, s.err
}

type stubNotifier struct {
	uploadID     uint
	uploadResult *webhook.UploadResult
	examID       uint
	quizResult   *webhook.QuizResult
}

func (s *stubNotifier) UploadProcessed(ctx context.Context, uploadID uint, result webhook.UploadResult) {
	s.uploadID = uploadID
	s.uploadResult = &result
}

func (s *stubNotifier) QuizGenerated(ctx context.Context, examID uint, result webhook.QuizResult) {
	s.examID = examID
	s.quizResult = &result
}

type stubGenerator struct {
	questions []model.QuizQuestion
	err       error
	lastReq   rag.QuizRequest
}

func (s *stubGenerator) GenerateQuiz(ctx context.Context, req rag.QuizRequest) ([]model.QuizQuestion, error) {
	s.lastReq = req
	return s.questions, s.err
}

var _ = Describe("PDFArgs", func() {
	It("returns the correct job kind", func() {
		Expect(jobs.PDFArgs{}.Kind()).To(Equal("pdf_ingest"))
	})

	It("enqueues on the pdf queue with a single attempt", func() {
		opts := jobs.PDFArgs{}.InsertOpts()
		Expect(opts.Queue).To(Equal(jobs.PDFQueue))
		Expect(opts.MaxAttempts).To(Equal(jobs.MaxJobRetries))
	})
})

var _ = Describe("QuizArgs", func() {
	It("returns the correct job kind", func() {
		Expect(jobs.QuizArgs{}.Kind()).To(Equal("quiz_generate"))
	})

	It("enqueues on the quiz queue with a single attempt", func() {
		opts := jobs.QuizArgs{}.InsertOpts()
		Expect(opts.Queue).To(Equal(jobs.QuizQueue))
		Expect(opts.MaxAttempts).To(Equal(jobs.MaxJobRetries))
	})
})

var _ = Describe("PDFWorker", func() {
	var (
		notifier *stubNotifier
		job      *river.Job[jobs.PDFArgs]
	)

	BeforeEach(func() {
		notifier = &stubNotifier{}
		job = &river.Job[jobs.PDFArgs]{
			JobRow: &rivertype.JobRow{ID: 42},
			Args: jobs.PDFArgs{
				UploadID: 7,
				PdfID:    "c1f9e6a0-0000-4000-8000-000000000001",
				URL:      "https://example.com/doc.pdf",
				OrgID:    "org1",
				Username: "user1",
			},
		}
	})

	It("returns the configured timeout", func() {
		worker := jobs.NewPDFWorker(nil, nil, nil, 10*time.Minute)
		Expect(worker.Timeout(nil)).To(Equal(10 * time.Minute))
	})

	It("reports a failure webhook when the download fails", func() {
		downloader := &stubDownloader{err: errors.New("connection refused")}
		worker := jobs.NewPDFWorker(downloader, &stubIndexer{}, notifier, time.Minute)

		err := worker.Work(context.TODO(), job)
		Expect(err).To(HaveOccurred())
		Expect(notifier.uploadID).To(Equal(uint(7)))
		Expect(notifier.uploadResult).ToNot(BeNil())
		Expect(notifier.uploadResult.UploadID).To(Equal(uint(7)))
		Expect(notifier.uploadResult.Success).To(BeFalse())
		Expect(*notifier.uploadResult.Error).To(ContainSubstring("connection refused"))
	})

	It("reports a failure webhook when the indexing fails", func() {
		downloader := &stubDownloader{data: []byte("%PDF-1.4 fake"), name: "doc.pdf"}
		indexer := &stubIndexer{err: errors.New("index unavailable")}
		worker := jobs.NewPDFWorker(downloader, indexer, notifier, time.Minute)
		worker.SetExtractor(func(data []byte) ([]string, error) {
			return []string{"page one text"}, nil
		})

		err := worker.Work(context.TODO(), job)
		Expect(err).To(HaveOccurred())
		Expect(indexer.calls).To(Equal(1))
		Expect(notifier.uploadResult).ToNot(BeNil())
		Expect(notifier.uploadResult.Success).To(BeFalse())
	})

	It("stops before downloading when the context is already cancelled", func() {
		ctx, cancel := context.WithCancel(context.TODO())
		cancel()

		worker := jobs.NewPDFWorker(&stubDownloader{}, &stubIndexer{}, notifier, time.Minute)
		err := worker.Work(ctx, job)
		Expect(err).To(MatchError(context.Canceled))
		Expect(notifier.uploadResult).To(BeNil())
	})
})

var _ = Describe("QuizWorker", func() {
	var (
		notifier *stubNotifier
		job      *river.Job[jobs.QuizArgs]
	)

	BeforeEach(func() {
		notifier = &stubNotifier{}
		job = &river.Job[jobs.QuizArgs]{
			JobRow: &rivertype.JobRow{ID: 43},
			Args: jobs.QuizArgs{
				ExamID:       11,
				QuizType:     "topic",
				PdfIDs:       []string{"abc"},
				Topic:        "photosynthesis",
				NumQuestions: 5,
				Difficulty:   "medium",
				OrgID:        "org1",
				Username:     "user1",
			},
		}
	})

	It("returns the configured timeout", func() {
		worker := jobs.NewQuizWorker(nil, nil, 15*time.Minute)
		Expect(worker.Timeout(nil)).To(Equal(15 * time.Minute))
	})

	It("passes the job arguments to the generator", func() {
		generator := &stubGenerator{err: errors.New("model unavailable")}
		worker := jobs.NewQuizWorker(generator, notifier, time.Minute)

		_ = worker.Work(context.TODO(), job)
		Expect(generator.lastReq.QuizType).To(Equal("topic"))
		Expect(generator.lastReq.Topic).To(Equal("photosynthesis"))
		Expect(generator.lastReq.NumQuestions).To(Equal(5))
		Expect(generator.lastReq.PdfIDs).To(Equal([]string{"abc"}))
	})

	It("reports a failure webhook when the generation fails", func() {
		generator := &stubGenerator{err: errors.New("model unavailable")}
		worker := jobs.NewQuizWorker(generator, notifier, time.Minute)

		err := worker.Work(context.TODO(), job)
		Expect(err).To(HaveOccurred())
		Expect(notifier.examID).To(Equal(uint(11)))
		Expect(notifier.quizResult).ToNot(BeNil())
		Expect(notifier.quizResult.ExamID).To(Equal(uint(11)))
		Expect(notifier.quizResult.Success).To(BeFalse())
		Expect(*notifier.quizResult.Error).To(ContainSubstring("model unavailable"))
	})

	It("stops before generating when the context is already cancelled", func() {
		ctx, cancel := context.WithCancel(context.TODO())
		cancel()

		generator := &stubGenerator{}
		worker := jobs.NewQuizWorker(generator, notifier, time.Minute)
		err := worker.Work(ctx, job)
		Expect(err).To(MatchError(context.Canceled))
		Expect(notifier.quizResult).To(BeNil())
	})
})
