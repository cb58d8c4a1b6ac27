package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func (h *ServiceHandler) CreateQuizJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("quiz_handler").WithContext(ctx).Operation("create_quiz_job").Build()

	var request api.QuizJobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := h.validator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.jobSrv.CreateQuizJob(ctx, request)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrPdfNotReady:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		}
		return
	}

	logger.Success().WithParam("job_id", created.JobID).Log()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

func (h *ServiceHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("quiz_handler").WithContext(ctx).Operation("list_exams").Build()

	exams, err := h.examSrv.ListExams(ctx)
	if err != nil {
		logger.Error(err).Log()
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list exams: %v", err))
		return
	}

	logger.Success().Log()
	render.JSON(w, r, exams)
}

func (h *ServiceHandler) GetExam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid exam id")
		return
	}
	logger := log.NewDebugLogger("quiz_handler").WithContext(ctx).Operation("get_exam").WithParam("exam_id", id).Build()

	exam, err := h.examSrv.GetExam(ctx, uint(id))
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get exam: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.JSON(w, r, exam)
}
