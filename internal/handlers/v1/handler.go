package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/handlers/validator"
	"github.com/quizzy-ai/quizzy/internal/service"
)

type ServiceHandler struct {
	jobSrv     *service.JobService
	uploadSrv  *service.UploadService
	examSrv    *service.ExamService
	webhookSrv *service.WebhookService
	chatSrv    *service.ChatService
	validator  *validator.Validator
}

func NewServiceHandler(
	jobSrv *service.JobService,
	uploadSrv *service.UploadService,
	examSrv *service.ExamService,
	webhookSrv *service.WebhookService,
	chatSrv *service.ChatService,
) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:     jobSrv,
		uploadSrv:  uploadSrv,
		examSrv:    examSrv,
		webhookSrv: webhookSrv,
		chatSrv:    chatSrv,
		validator:  validator.NewValidator(),
	}
}

// Routes mounts the authenticated API surface.
func (h *ServiceHandler) Routes(router chi.Router) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/pdfs", h.CreatePDFJob)
		r.Get("/pdfs", h.ListPdfs)
		r.Get("/pdfs/{pdfID}", h.GetPdf)
		r.Delete("/pdfs/{pdfID}", h.DeletePdf)

		r.Post("/quizzes", h.CreateQuizJob)
		r.Get("/exams", h.ListExams)
		r.Get("/exams/{id}", h.GetExam)

		r.Get("/jobs/{id}", h.GetJob)
		r.Delete("/jobs/{id}", h.CancelJob)
		r.Get("/queues", h.GetQueues)

		r.Post("/chat", h.Chat)
		r.Post("/chat/stream", h.ChatStream)
	})
}

// WebhookRoutes mounts the receivers the worker posts outcomes to. They sit
// outside the authenticated surface.
func (h *ServiceHandler) WebhookRoutes(router chi.Router) {
	router.Post("/webhook/upload-processed/{id}", h.UploadProcessed)
	router.Post("/webhook/quiz-generated/{id}", h.QuizGenerated)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message})
}
