package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/internal/webhook"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func (h *ServiceHandler) UploadProcessed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uploadID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid upload id")
		return
	}
	logger := log.NewDebugLogger("webhook_handler").WithContext(ctx).Operation("upload_processed").WithParam("upload_id", uploadID).Build()

	var result webhook.UploadResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if result.UploadID != 0 && result.UploadID != uint(uploadID) {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("upload id mismatch: body says %d", result.UploadID))
		return
	}

	if err := h.webhookSrv.UploadProcessed(ctx, uint(uploadID), result); err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to process webhook: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.NoContent(w, r)
}

func (h *ServiceHandler) QuizGenerated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	examID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid exam id")
		return
	}
	logger := log.NewDebugLogger("webhook_handler").WithContext(ctx).Operation("quiz_generated").WithParam("exam_id", examID).Build()

	var result webhook.QuizResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if result.ExamID != 0 && result.ExamID != uint(examID) {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("exam id mismatch: body says %d", result.ExamID))
		return
	}

	if err := h.webhookSrv.QuizGenerated(ctx, uint(examID), result); err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to process webhook: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.NoContent(w, r)
}
