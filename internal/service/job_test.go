package service

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/jobs"
)

type stubQueue struct {
	rows      map[int64]*rivertype.JobRow
	deleted   []int64
	deleteErr error
}

func newStubQueue(rows ...*rivertype.JobRow) *stubQueue {
	q := &stubQueue{rows: make(map[int64]*rivertype.JobRow)}
	for _, row := range rows {
		q.rows[row.ID] = row
	}
	return q
}

func (q *stubQueue) InsertPDFJob(ctx context.Context, args jobs.PDFArgs) (int64, error) {
	return 0, errors.New("not implemented")
}

func (q *stubQueue) InsertQuizJob(ctx context.Context, args jobs.QuizArgs) (int64, error) {
	return 0, errors.New("not implemented")
}

func (q *stubQueue) JobGet(ctx context.Context, jobID int64) (*rivertype.JobRow, error) {
	row, found := q.rows[jobID]
	if !found {
		return nil, river.ErrNotFound
	}
	return row, nil
}

func (q *stubQueue) JobDelete(ctx context.Context, jobID int64) (*rivertype.JobRow, error) {
	if q.deleteErr != nil {
		return nil, q.deleteErr
	}
	row, found := q.rows[jobID]
	if !found {
		return nil, river.ErrNotFound
	}
	delete(q.rows, jobID)
	q.deleted = append(q.deleted, jobID)
	return row, nil
}

func (q *stubQueue) QueueCounts(ctx context.Context, queue string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, row := range q.rows {
		if row.Queue == queue {
			counts[string(row.State)]++
		}
	}
	return counts, nil
}

func ownedRow(id int64, state rivertype.JobState) *rivertype.JobRow {
	return &rivertype.JobRow{
		ID:          id,
		State:       state,
		Queue:       jobs.PDFQueue,
		Kind:        jobs.PDFArgs{}.Kind(),
		EncodedArgs: []byte(`{"org_id": "org1", "username": "user1"}`),
	}
}

var _ = Describe("job cancellation", func() {
	ctx := auth.NewTokenContext(context.TODO(), auth.User{Username: "user1", Organization: "org1"})

	It("removes a queued job so later lookups miss", func() {
		queue := newStubQueue(ownedRow(1, rivertype.JobStateAvailable))
		srv := NewJobService(queue, nil, nil)

		status, err := srv.CancelJob(ctx, 1)
		Expect(err).To(BeNil())
		Expect(status.Status).To(Equal(JobStatusCanceled))
		Expect(queue.deleted).To(Equal([]int64{1}))

		_, err = srv.GetJob(ctx, 1)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobNotFound{}))
	})

	It("refuses to cancel a running job", func() {
		queue := newStubQueue(ownedRow(2, rivertype.JobStateRunning))
		srv := NewJobService(queue, nil, nil)

		_, err := srv.CancelJob(ctx, 2)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobInvalidState{}))
		Expect(queue.deleted).To(BeEmpty())
	})

	It("refuses to cancel a settled job", func() {
		for _, state := range []rivertype.JobState{
			rivertype.JobStateCompleted,
			rivertype.JobStateDiscarded,
		} {
			queue := newStubQueue(ownedRow(3, state))
			srv := NewJobService(queue, nil, nil)

			_, err := srv.CancelJob(ctx, 3)
			Expect(err).To(BeAssignableToTypeOf(&ErrJobInvalidState{}))
			Expect(queue.deleted).To(BeEmpty())
		}
	})

	It("maps a claim race to an invalid state error", func() {
		queue := newStubQueue(ownedRow(4, rivertype.JobStateAvailable))
		queue.deleteErr = rivertype.ErrJobRunning
		srv := NewJobService(queue, nil, nil)

		_, err := srv.CancelJob(ctx, 4)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobInvalidState{}))
	})

	It("returns not found for an unknown job", func() {
		srv := NewJobService(newStubQueue(), nil, nil)

		_, err := srv.CancelJob(ctx, 99)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobNotFound{}))
	})

	It("forbids cancelling another user's job", func() {
		queue := newStubQueue(ownedRow(5, rivertype.JobStateAvailable))
		otherCtx := auth.NewTokenContext(context.TODO(), auth.User{Username: "user2", Organization: "org1"})
		srv := NewJobService(queue, nil, nil)

		_, err := srv.CancelJob(otherCtx, 5)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobAccessForbidden{}))
		Expect(queue.deleted).To(BeEmpty())
	})
})

var _ = Describe("mapJobState", func() {
	It("maps waiting states to queued", func() {
		for _, state := range []rivertype.JobState{
			rivertype.JobStateAvailable,
			rivertype.JobStateScheduled,
			rivertype.JobStatePending,
			rivertype.JobStateRetryable,
		} {
			Expect(mapJobState(state)).To(Equal(JobStatusQueued))
		}
	})

	It("maps the terminal states", func() {
		Expect(mapJobState(rivertype.JobStateRunning)).To(Equal(JobStatusStarted))
		Expect(mapJobState(rivertype.JobStateCompleted)).To(Equal(JobStatusFinished))
		Expect(mapJobState(rivertype.JobStateDiscarded)).To(Equal(JobStatusFailed))
		Expect(mapJobState(rivertype.JobStateCancelled)).To(Equal(JobStatusCanceled))
	})
})

var _ = Describe("checkAccess", func() {
	user := auth.User{Username: "user1", Organization: "org1"}

	It("allows the job owner", func() {
		row := &rivertype.JobRow{
			ID:          1,
			EncodedArgs: []byte(`{"org_id": "org1", "username": "user1"}`),
		}
		Expect(checkAccess(row, &user)).To(Succeed())
	})

	It("forbids other users", func() {
		row := &rivertype.JobRow{
			ID:          1,
			EncodedArgs: []byte(`{"org_id": "org1", "username": "someone-else"}`),
		}
		err := checkAccess(row, &user)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobAccessForbidden{}))
	})

	It("forbids other organizations", func() {
		row := &rivertype.JobRow{
			ID:          1,
			EncodedArgs: []byte(`{"org_id": "org2", "username": "user1"}`),
		}
		err := checkAccess(row, &user)
		Expect(err).To(BeAssignableToTypeOf(&ErrJobAccessForbidden{}))
	})
})

var _ = Describe("rowToJobStatus", func() {
	It("maps the row fields", func() {
		created := time.Now().Add(-time.Minute)
		started := time.Now().Add(-30 * time.Second)
		ended := time.Now()

		row := &rivertype.JobRow{
			ID:          5,
			State:       rivertype.JobStateCompleted,
			Queue:       "pdf_processing",
			Kind:        "pdf_ingest",
			Attempt:     1,
			CreatedAt:   created,
			AttemptedAt: &started,
			FinalizedAt: &ended,
			EncodedArgs: []byte(`{}`),
		}

		status := rowToJobStatus(row)
		Expect(status.JobID).To(Equal(int64(5)))
		Expect(status.Status).To(Equal(JobStatusFinished))
		Expect(status.StartedAt).To(Equal(&started))
		Expect(status.EndedAt).To(Equal(&ended))
		Expect(status.Meta.Queue).To(Equal("pdf_processing"))
		Expect(status.Meta.Kind).To(Equal("pdf_ingest"))
	})

	It("carries the last recorded error", func() {
		row := &rivertype.JobRow{
			ID:    6,
			State: rivertype.JobStateDiscarded,
			Errors: []rivertype.AttemptError{
				{Error: "download failed"},
			},
			EncodedArgs: []byte(`{}`),
		}

		status := rowToJobStatus(row)
		Expect(status.Status).To(Equal(JobStatusFailed))
		Expect(status.Error).ToNot(BeNil())
		Expect(*status.Error).To(Equal("download failed"))
	})
})
