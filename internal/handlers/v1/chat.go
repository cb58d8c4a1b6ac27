package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	api "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func (h *ServiceHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("chat_handler").WithContext(ctx).Operation("chat").Build()

	var request api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := h.validator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.chatSrv.Ask(ctx, request)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrPdfNotReady:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to answer: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.JSON(w, r, response)
}

// ChatStream answers over server-sent events: one data event per completion
// delta, then a final event carrying the sources. Validation failures are
// reported as plain JSON errors before the stream starts; once streaming, an
// error terminates the stream with an error event.
func (h *ServiceHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("chat_handler").WithContext(ctx).Operation("chat_stream").Build()

	var request api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := h.validator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	streaming := false
	writeEvent := func(event api.ChatStreamEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if !streaming {
			streaming = true
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	response, err := h.chatSrv.AskStream(ctx, request, func(delta string) error {
		return writeEvent(api.ChatStreamEvent{Delta: delta})
	})
	if err != nil {
		logger.Error(err).Log()
		if streaming {
			_ = writeEvent(api.ChatStreamEvent{Error: "answer generation failed"})
			return
		}
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrPdfNotReady:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to answer: %v", err))
		}
		return
	}

	if err := writeEvent(api.ChatStreamEvent{Done: true, Sources: response.Sources}); err != nil {
		logger.Error(err).Log()
		return
	}
	logger.Success().Log()
}
