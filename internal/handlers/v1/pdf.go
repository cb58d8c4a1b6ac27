package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func (h *ServiceHandler) CreatePDFJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("pdf_handler").WithContext(ctx).Operation("create_pdf_job").Build()

	var request api.PDFJobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := h.validator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.jobSrv.CreatePDFJob(ctx, request)
	if err != nil {
		logger.Error(err).Log()
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		return
	}

	logger.Success().WithParam("job_id", created.JobID).Log()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

func (h *ServiceHandler) ListPdfs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.NewDebugLogger("pdf_handler").WithContext(ctx).Operation("list_pdfs").Build()

	uploads, err := h.uploadSrv.ListUploads(ctx)
	if err != nil {
		logger.Error(err).Log()
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list pdfs: %v", err))
		return
	}

	logger.Success().Log()
	render.JSON(w, r, uploads)
}

func (h *ServiceHandler) GetPdf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pdfID := chi.URLParam(r, "pdfID")
	logger := log.NewDebugLogger("pdf_handler").WithContext(ctx).Operation("get_pdf").WithString("pdf_id", pdfID).Build()

	upload, err := h.uploadSrv.GetUploadByPdfID(ctx, pdfID)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get pdf: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.JSON(w, r, upload)
}

func (h *ServiceHandler) DeletePdf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pdfID := chi.URLParam(r, "pdfID")
	logger := log.NewDebugLogger("pdf_handler").WithContext(ctx).Operation("delete_pdf").WithString("pdf_id", pdfID).Build()

	if err := h.uploadSrv.DeletePdf(ctx, pdfID); err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to delete pdf: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.NoContent(w, r)
}
