package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/events"
	"github.com/quizzy-ai/quizzy/internal/jobs"
	"github.com/quizzy-ai/quizzy/internal/pdf"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

// Job statuses reported by the API, independent of queue internals.
const (
	JobStatusQueued   = "queued"
	JobStatusStarted  = "started"
	JobStatusFinished = "finished"
	JobStatusFailed   = "failed"
	JobStatusCanceled = "canceled"
)

// Queue is the job-queue surface the service depends on. Satisfied by
// jobs.Client.
type Queue interface {
	InsertPDFJob(ctx context.Context, args jobs.PDFArgs) (int64, error)
	InsertQuizJob(ctx context.Context, args jobs.QuizArgs) (int64, error)
	JobGet(ctx context.Context, jobID int64) (*rivertype.JobRow, error)
	JobDelete(ctx context.Context, jobID int64) (*rivertype.JobRow, error)
	QueueCounts(ctx context.Context, queue string) (map[string]int, error)
}

type JobService struct {
	client      Queue
	store       store.Store
	eventWriter *events.EventProducer
	logger      *log.StructuredLogger
}

func NewJobService(client Queue, s store.Store, eventWriter *events.EventProducer) *JobService {
	return &JobService{
		client:      client,
		store:       s,
		eventWriter: eventWriter,
		logger:      log.NewDebugLogger("job_service"),
	}
}

// CreatePDFJob records the upload and enqueues its ingestion. The pdf id is
// assigned here so the caller can reference the resource before the worker
// picks the job up.
func (s *JobService) CreatePDFJob(ctx context.Context, req v1.PDFJobCreateRequest) (*v1.JobCreated, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("create_pdf_job").
		WithString("url", req.URL).
		Build()

	name := req.Name
	if name == "" {
		name = pdf.FileNameFromURL(req.URL)
	}
	pdfID := uuid.NewString()
	upload, err := s.store.Upload().Create(ctx, model.Upload{
		URL:             req.URL,
		PdfName:         &name,
		PdfID:           &pdfID,
		Username:        user.Username,
		OrgID:           user.Organization,
		ProcessingState: model.ProcessingStatePending,
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	jobID, err := s.client.InsertPDFJob(ctx, jobs.PDFArgs{
		UploadID: upload.ID,
		PdfID:    pdfID,
		URL:      req.URL,
		OrgID:    user.Organization,
		Username: user.Username,
	})
	if err != nil {
		tracer.Error(err).Log()
		reason := "failed to enqueue ingestion job"
		upload.ProcessingState = model.ProcessingStateFailed
		upload.Error = &reason
		if _, uerr := s.store.Upload().Update(ctx, *upload); uerr != nil {
			tracer.Error(uerr).Log()
		}
		return nil, err
	}

	s.writeJobEvent(ctx, jobID, jobs.PDFQueue, jobs.PDFArgs{}.Kind(), JobStatusQueued, user.Organization)

	tracer.Success().WithParam("job_id", jobID).WithParam("upload_id", upload.ID).Log()
	return &v1.JobCreated{
		JobID:      jobID,
		Queue:      jobs.PDFQueue,
		Status:     JobStatusQueued,
		ResourceID: &pdfID,
		UploadID:   &upload.ID,
	}, nil
}

// CreateQuizJob verifies the referenced PDFs are ready, records the exam and
// enqueues generation.
func (s *JobService) CreateQuizJob(ctx context.Context, req v1.QuizJobCreateRequest) (*v1.JobCreated, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("create_quiz_job").
		WithString("quiz_type", req.QuizType).
		WithInt("pdf_count", len(req.PdfIDs)).
		Build()

	for _, pdfID := range req.PdfIDs {
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
		if upload.ProcessingState != model.ProcessingStateProcessed {
			return nil, NewErrPdfNotReady(pdfID)
		}
	}

	quizID := uuid.NewString()
	exam, err := s.store.Exam().Create(ctx, model.Exam{
		Name:            req.Topic,
		QuizID:          &quizID,
		Username:        user.Username,
		OrgID:           user.Organization,
		ProcessingState: model.ProcessingStatePending,
		Metadata: model.MakeJSONField(model.QuizMetadata{
			QuizType:     req.QuizType,
			NumQuestions: req.NumQuestions,
			Difficulty:   req.Difficulty,
			Topic:        req.Topic,
			PdfCount:     len(req.PdfIDs),
		}),
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	jobID, err := s.client.InsertQuizJob(ctx, jobs.QuizArgs{
		ExamID:       exam.ID,
		QuizID:       quizID,
		QuizType:     req.QuizType,
		PdfIDs:       req.PdfIDs,
		Topic:        req.Topic,
		StartPage:    req.StartPage,
		EndPage:      req.EndPage,
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
		OrgID:        user.Organization,
		Username:     user.Username,
	})
	if err != nil {
		tracer.Error(err).Log()
		reason := "failed to enqueue generation job"
		exam.ProcessingState = model.ProcessingStateFailed
		exam.Error = &reason
		if _, uerr := s.store.Exam().Update(ctx, *exam); uerr != nil {
			tracer.Error(uerr).Log()
		}
		return nil, err
	}

	s.writeJobEvent(ctx, jobID, jobs.QuizQueue, jobs.QuizArgs{}.Kind(), JobStatusQueued, user.Organization)

	tracer.Success().WithParam("job_id", jobID).WithParam("exam_id", exam.ID).Log()
	return &v1.JobCreated{
		JobID:      jobID,
		Queue:      jobs.QuizQueue,
		Status:     JobStatusQueued,
		ResourceID: &quizID,
		ExamID:     &exam.ID,
	}, nil
}

func (s *JobService) GetJob(ctx context.Context, jobID int64) (*v1.JobStatus, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("get_job").WithParam("job_id", jobID).Build()

	row, err := s.client.JobGet(ctx, jobID)
	if err != nil {
		if err == river.ErrNotFound {
			return nil, NewErrJobNotFound(jobID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	if err := checkAccess(row, &user); err != nil {
		return nil, err
	}

	tracer.Success().Log()
	return rowToJobStatus(row), nil
}

// CancelJob removes a job that has not been picked up yet. Anything past
// queued is either already running or settled. The job row is deleted, so
// subsequent lookups report it as unknown.
func (s *JobService) CancelJob(ctx context.Context, jobID int64) (*v1.JobStatus, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("cancel_job").WithParam("job_id", jobID).Build()

	row, err := s.client.JobGet(ctx, jobID)
	if err != nil {
		if err == river.ErrNotFound {
			return nil, NewErrJobNotFound(jobID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	if err := checkAccess(row, &user); err != nil {
		return nil, err
	}

	if status := mapJobState(row.State); status != JobStatusQueued {
		return nil, NewErrJobInvalidState(jobID, status)
	}

	deleted, err := s.client.JobDelete(ctx, jobID)
	if err != nil {
		if errors.Is(err, rivertype.ErrJobRunning) {
			return nil, NewErrJobInvalidState(jobID, JobStatusStarted)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	s.writeJobEvent(ctx, jobID, row.Queue, row.Kind, JobStatusCanceled, user.Organization)

	tracer.Success().Log()
	status := rowToJobStatus(deleted)
	status.Status = JobStatusCanceled
	return status, nil
}

func (s *JobService) QueueInfo(ctx context.Context) (*v1.QueueList, error) {
	tracer := s.logger.WithContext(ctx).Operation("queue_info").Build()

	list := &v1.QueueList{Queues: make([]v1.QueueInfo, 0, 2)}
	for _, queue := range []string{jobs.PDFQueue, jobs.QuizQueue} {
		counts, err := s.client.QueueCounts(ctx, queue)
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		list.Queues = append(list.Queues, v1.QueueInfo{Name: queue, Counts: counts})
	}

	tracer.Success().Log()
	return list, nil
}

func (s *JobService) writeJobEvent(ctx context.Context, jobID int64, queue, kind, state, orgID string) {
	if s.eventWriter == nil {
		return
	}
	data, err := json.Marshal(events.JobEvent{
		JobID: jobID,
		Queue: queue,
		Kind:  kind,
		State: state,
		OrgID: orgID,
	})
	if err != nil {
		return
	}
	if err := s.eventWriter.Write(ctx, events.JobMessageKind, bytes.NewReader(data)); err != nil {
		s.logger.WithContext(ctx).Operation("write_job_event").Build().Error(err).Log()
	}
}

func checkAccess(row *rivertype.JobRow, user *auth.User) error {
	var args struct {
		OrgID    string `json:"org_id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(row.EncodedArgs, &args); err != nil {
		return err
	}
	if args.Username != user.Username || args.OrgID != user.Organization {
		return NewErrJobAccessForbidden(row.ID)
	}
	return nil
}

func rowToJobStatus(row *rivertype.JobRow) *v1.JobStatus {
	status := &v1.JobStatus{
		JobID:     row.ID,
		Status:    mapJobState(row.State),
		CreatedAt: row.CreatedAt,
		StartedAt: row.AttemptedAt,
		EndedAt:   row.FinalizedAt,
		Meta: v1.JobMeta{
			Queue:   row.Queue,
			Kind:    row.Kind,
			Attempt: row.Attempt,
		},
	}

	if row.State == rivertype.JobStateCompleted {
		status.Result = row.Output()
	}
	if len(row.Errors) > 0 {
		msg := row.Errors[len(row.Errors)-1].Error
		status.Error = &msg
	}
	return status
}

func mapJobState(state rivertype.JobState) string {
	switch state {
	case rivertype.JobStateAvailable, rivertype.JobStateScheduled, rivertype.JobStatePending, rivertype.JobStateRetryable:
		return JobStatusQueued
	case rivertype.JobStateRunning:
		return JobStatusStarted
	case rivertype.JobStateCompleted:
		return JobStatusFinished
	case rivertype.JobStateDiscarded:
		return JobStatusFailed
	case rivertype.JobStateCancelled:
		return JobStatusCanceled
	default:
		return string(state)
	}
}
