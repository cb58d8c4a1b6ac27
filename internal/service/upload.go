package service

import (
	"context"
	"errors"

	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/service/mappers"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

// VectorDeleter removes a PDF's namespace from the vector index.
type VectorDeleter interface {
	DeleteNamespace(ctx context.Context, pdfID string) error
}

type UploadService struct {
	store   store.Store
	vectors VectorDeleter
	logger  *log.StructuredLogger
}

func NewUploadService(s store.Store, vectors VectorDeleter) *UploadService {
	return &UploadService{
		store:   s,
		vectors: vectors,
		logger:  log.NewDebugLogger("upload_service"),
	}
}

// ListUploads returns the caller's uploads, newest first.
func (s *UploadService) ListUploads(ctx context.Context) (v1.UploadList, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("list_uploads").Build()

	uploads, err := s.store.Upload().List(ctx,
		store.NewUploadQueryFilter().ByOrgID(user.Organization),
		store.NewUploadQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithInt("count", len(uploads)).Log()
	return mappers.UploadListToApi(uploads), nil
}

// GetUploadByPdfID returns the upload owning the given vector namespace.
func (s *UploadService) GetUploadByPdfID(ctx context.Context, pdfID string) (*v1.Upload, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("get_upload").WithString("pdf_id", pdfID).Build()

	upload, err := s.store.Upload().GetByPdfID(ctx, pdfID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPdfNotFound(pdfID)
		}
		tracer.Error(err).Log()
		return nil, err
	}
	if upload.OrgID != user.Organization {
		return nil, NewErrPdfNotFound(pdfID)
	}

	tracer.Success().Log()
	apiUpload := mappers.UploadToApi(upload)
	return &apiUpload, nil
}

// DeletePdf removes the upload record and its vector namespace.
func (s *UploadService) DeletePdf(ctx context.Context, pdfID string) error {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("delete_pdf").WithString("pdf_id", pdfID).Build()

	upload, err := s.store.Upload().GetByPdfID(ctx, pdfID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrPdfNotFound(pdfID)
		}
		tracer.Error(err).Log()
		return err
	}
	if upload.OrgID != user.Organization {
		return NewErrPdfNotFound(pdfID)
	}

	if upload.ProcessingState == model.ProcessingStateProcessed && s.vectors != nil {
		if err := s.vectors.DeleteNamespace(ctx, pdfID); err != nil {
			tracer.Error(err).Log()
			return err
		}
	}

	if err := s.store.Upload().Delete(ctx, upload.ID); err != nil {
		tracer.Error(err).Log()
		return err
	}

	tracer.Success().Log()
	return nil
}
