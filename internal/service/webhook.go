package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/quizzy-ai/quizzy/internal/events"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/webhook"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

// WebhookService persists job outcomes reported by the worker. Receivers are
// idempotent: once an upload or exam reached a terminal state, redeliveries
// are acknowledged without touching the record.
type WebhookService struct {
	store       store.Store
	eventWriter *events.EventProducer
	logger      *log.StructuredLogger
}

func NewWebhookService(s store.Store, eventWriter *events.EventProducer) *WebhookService {
	return &WebhookService{
		store:       s,
		eventWriter: eventWriter,
		logger:      log.NewDebugLogger("webhook_service"),
	}
}

func (s *WebhookService) UploadProcessed(ctx context.Context, uploadID uint, result webhook.UploadResult) error {
	tracer := s.logger.WithContext(ctx).Operation("upload_processed").
		WithParam("upload_id", uploadID).
		WithParam("success", result.Success).
		Build()

	upload, err := s.store.Upload().Get(ctx, uploadID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrUploadNotFound(uploadID)
		}
		tracer.Error(err).Log()
		return err
	}

	if upload.ProcessingState != model.ProcessingStatePending {
		tracer.Success().WithString("skipped", "already settled").Log()
		return nil
	}

	now := time.Now()
	if result.Success {
		upload.ProcessingState = model.ProcessingStateProcessed
		upload.PdfID = result.PdfID
		upload.PdfName = result.PdfName
		upload.Pages = result.Pages
		upload.ProcessedAt = &now
	} else {
		upload.ProcessingState = model.ProcessingStateFailed
		upload.Error = result.Error
		upload.ProcessedAt = &now
	}

	updated, err := s.store.Upload().Update(ctx, *upload)
	if err != nil {
		tracer.Error(err).Log()
		return err
	}

	s.writeEvent(ctx, events.UploadMessageKind, events.NewUploadProcessedEvent(updated))

	tracer.Success().Log()
	return nil
}

func (s *WebhookService) QuizGenerated(ctx context.Context, examID uint, result webhook.QuizResult) error {
	tracer := s.logger.WithContext(ctx).Operation("quiz_generated").
		WithParam("exam_id", examID).
		WithParam("success", result.Success).
		Build()

	exam, err := s.store.Exam().Get(ctx, examID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrExamNotFound(examID)
		}
		tracer.Error(err).Log()
		return err
	}

	if exam.ProcessingState != model.ProcessingStatePending {
		tracer.Success().WithString("skipped", "already settled").Log()
		return nil
	}

	now := time.Now()
	if result.Success {
		exam.ProcessingState = model.ProcessingStateProcessed
		exam.QuizID = result.QuizID
		exam.Questions = model.MakeJSONField(result.Questions)
		if result.Metadata != nil {
			exam.Metadata = model.MakeJSONField(*result.Metadata)
		}
		exam.GeneratedAt = &now
	} else {
		exam.ProcessingState = model.ProcessingStateFailed
		exam.Error = result.Error
		exam.GeneratedAt = &now
	}

	updated, err := s.store.Exam().Update(ctx, *exam)
	if err != nil {
		tracer.Error(err).Log()
		return err
	}

	s.writeEvent(ctx, events.QuizMessageKind, events.NewQuizGeneratedEvent(updated))

	tracer.Success().Log()
	return nil
}

func (s *WebhookService) writeEvent(ctx context.Context, kind string, payload any) {
	if s.eventWriter == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.eventWriter.Write(ctx, kind, bytes.NewReader(data)); err != nil {
		s.logger.WithContext(ctx).Operation("write_event").Build().Error(err).Log()
	}
}
