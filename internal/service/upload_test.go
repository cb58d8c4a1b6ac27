package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/vector"
)

type stubVectorDeleter struct {
	deleted []string
	err     error
}

func (s *stubVectorDeleter) DeleteNamespace(ctx context.Context, pdfID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, pdfID)
	return nil
}

type stubChatter struct {
	answer string
	deltas []string
	chunks []vector.Chunk
	err    error
}

func (s *stubChatter) Chat(ctx context.Context, pdfIDs []string, question string) (string, []vector.Chunk, error) {
	return s.answer, s.chunks, s.err
}

func (s *stubChatter) ChatStream(ctx context.Context, pdfIDs []string, question string, onDelta func(delta string) error) (string, []vector.Chunk, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	for _, delta := range s.deltas {
		if err := onDelta(delta); err != nil {
			return "", nil, err
		}
	}
	return s.answer, s.chunks, nil
}

func createUpload(s store.Store, orgID, pdfID, state string) *model.Upload {
	upload := model.Upload{
		OrgID:           orgID,
		URL:             "https://example.com/doc.pdf",
		ProcessingState: state,
	}
	if pdfID != "" {
		upload.PdfID = &pdfID
	}
	created, err := s.Upload().Create(context.TODO(), upload)
	Expect(err).To(BeNil())
	return created
}

var _ = Describe("upload service", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		vectors *stubVectorDeleter
		srv     *service.UploadService
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
	})

	BeforeEach(func() {
		vectors = &stubVectorDeleter{}
		srv = service.NewUploadService(s, vectors)
	})

	AfterAll(func() {
		_ = s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM uploads;")
	})

	Context("ListUploads", func() {
		It("returns only the caller's organization uploads", func() {
			createUpload(s, "org1", "", model.ProcessingStatePending)
			createUpload(s, "org1", "", model.ProcessingStatePending)
			createUpload(s, "org2", "", model.ProcessingStatePending)

			uploads, err := srv.ListUploads(userContext("org1"))
			Expect(err).To(BeNil())
			Expect(uploads).To(HaveLen(2))
		})
	})

	Context("GetUploadByPdfID", func() {
		It("hides uploads belonging to another organization", func() {
			createUpload(s, "org2", "pdf-1", model.ProcessingStateProcessed)

			_, err := srv.GetUploadByPdfID(userContext("org1"), "pdf-1")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("returns the upload for its owner", func() {
			createUpload(s, "org1", "pdf-1", model.ProcessingStateProcessed)

			upload, err := srv.GetUploadByPdfID(userContext("org1"), "pdf-1")
			Expect(err).To(BeNil())
			Expect(*upload.PdfID).To(Equal("pdf-1"))
		})
	})

	Context("DeletePdf", func() {
		It("removes the vector namespace and the record for a processed upload", func() {
			created := createUpload(s, "org1", "pdf-1", model.ProcessingStateProcessed)

			Expect(srv.DeletePdf(userContext("org1"), "pdf-1")).To(Succeed())
			Expect(vectors.deleted).To(Equal([]string{"pdf-1"}))

			_, err := s.Upload().Get(context.TODO(), created.ID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("skips the vector namespace for a failed upload", func() {
			createUpload(s, "org1", "pdf-1", model.ProcessingStateFailed)

			Expect(srv.DeletePdf(userContext("org1"), "pdf-1")).To(Succeed())
			Expect(vectors.deleted).To(BeEmpty())
		})

		It("keeps the record when the namespace removal fails", func() {
			created := createUpload(s, "org1", "pdf-1", model.ProcessingStateProcessed)
			vectors.err = errors.New("index unavailable")

			err := srv.DeletePdf(userContext("org1"), "pdf-1")
			Expect(err).To(HaveOccurred())

			_, err = s.Upload().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
		})
	})
})

var _ = Describe("exam service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		srv    *service.ExamService
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
		srv = service.NewExamService(s)
	})

	AfterAll(func() {
		_ = s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM exams;")
	})

	It("hides exams belonging to another organization", func() {
		exam, err := s.Exam().Create(context.TODO(), model.Exam{
			OrgID:           "org2",
			ProcessingState: model.ProcessingStatePending,
		})
		Expect(err).To(BeNil())

		_, err = srv.GetExam(userContext("org1"), exam.ID)
		Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
	})

	It("lists only the caller's exams", func() {
		for _, org := range []string{"org1", "org2", "org1"} {
			_, err := s.Exam().Create(context.TODO(), model.Exam{
				OrgID:           org,
				ProcessingState: model.ProcessingStatePending,
			})
			Expect(err).To(BeNil())
		}

		exams, err := srv.ListExams(userContext("org1"))
		Expect(err).To(BeNil())
		Expect(exams).To(HaveLen(2))
	})
})

var _ = Describe("chat service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
	})

	AfterAll(func() {
		_ = s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM uploads;")
	})

	It("rejects questions over PDFs that are still processing", func() {
		createUpload(s, "org1", "pdf-1", model.ProcessingStatePending)
		srv := service.NewChatService(s, &stubChatter{})

		_, err := srv.Ask(userContext("org1"), v1.ChatRequest{PdfIDs: []string{"pdf-1"}, Question: "What?"})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrPdfNotReady{}))
	})

	It("rejects questions over PDFs from another organization", func() {
		createUpload(s, "org2", "pdf-1", model.ProcessingStateProcessed)
		srv := service.NewChatService(s, &stubChatter{})

		_, err := srv.Ask(userContext("org1"), v1.ChatRequest{PdfIDs: []string{"pdf-1"}, Question: "What?"})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
	})

	It("answers and deduplicates the sources", func() {
		createUpload(s, "org1", "pdf-1", model.ProcessingStateProcessed)
		chatter := &stubChatter{
			answer: "In the chloroplasts.",
			chunks: []vector.Chunk{
				{PdfID: "pdf-1", PdfName: "bio.pdf", Page: 3},
				{PdfID: "pdf-1", PdfName: "bio.pdf", Page: 3},
				{PdfID: "pdf-1", PdfName: "bio.pdf", Page: 4},
			},
		}
		srv := service.NewChatService(s, chatter)

		resp, err := srv.Ask(userContext("org1"), v1.ChatRequest{PdfIDs: []string{"pdf-1"}, Question: "Where?"})
		Expect(err).To(BeNil())
		Expect(resp.Answer).To(Equal("In the chloroplasts."))
		Expect(resp.Sources).To(HaveLen(2))
	})

	It("streams the answer delta by delta before the sources", func() {
		createUpload(s, "org1", "pdf-1", model.ProcessingStateProcessed)
		chatter := &stubChatter{
			answer: "In the chloroplasts.",
			deltas: []string{"In the ", "chloroplasts."},
			chunks: []vector.Chunk{
				{PdfID: "pdf-1", PdfName: "bio.pdf", Page: 3},
			},
		}
		srv := service.NewChatService(s, chatter)

		var got []string
		resp, err := srv.AskStream(userContext("org1"), v1.ChatRequest{PdfIDs: []string{"pdf-1"}, Question: "Where?"}, func(delta string) error {
			got = append(got, delta)
			return nil
		})
		Expect(err).To(BeNil())
		Expect(got).To(Equal([]string{"In the ", "chloroplasts."}))
		Expect(resp.Answer).To(Equal("In the chloroplasts."))
		Expect(resp.Sources).To(HaveLen(1))
	})

	It("validates ownership before any delta is sent", func() {
		createUpload(s, "org2", "pdf-1", model.ProcessingStateProcessed)
		chatter := &stubChatter{deltas: []string{"leak"}}
		srv := service.NewChatService(s, chatter)

		called := false
		_, err := srv.AskStream(userContext("org1"), v1.ChatRequest{PdfIDs: []string{"pdf-1"}, Question: "Where?"}, func(delta string) error {
			called = true
			return nil
		})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		Expect(called).To(BeFalse())
	})
})
