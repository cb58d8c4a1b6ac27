package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}
	logger := log.NewDebugLogger("job_handler").WithContext(ctx).Operation("get_job").WithParam("job_id", jobID).Build()

	status, err := h.jobSrv.GetJob(ctx, jobID)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrJobNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrJobAccessForbidden:
			renderError(w, r, http.StatusForbidden, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.JSON(w, r, status)
}

func (h *ServiceHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}
	logger := log.NewDebugLogger("job_handler").WithContext(ctx).Operation("cancel_job").WithParam("job_id", jobID).Build()

	status, err := h.jobSrv.CancelJob(ctx, jobID)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrJobNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrJobAccessForbidden:
			renderError(w, r, http.StatusForbidden, err.Error())
		case *service.ErrJobInvalidState:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to cancel job: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.JSON(w, r, status)
}

func (h *ServiceHandler) GetQueues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("job_handler").WithContext(ctx).Operation("get_queues").Build()

	queues, err := h.jobSrv.QueueInfo(ctx)
	if err != nil {
		logger.Error(err).Log()
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get queues: %v", err))
		return
	}

	logger.Success().Log()
	render.JSON(w, r, queues)
}
