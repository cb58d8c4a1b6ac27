package service

import (
	"context"
	"errors"

	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/service/mappers"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

type ExamService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewExamService(s store.Store) *ExamService {
	return &ExamService{
		store:  s,
		logger: log.NewDebugLogger("exam_service"),
	}
}

// ListExams returns the caller's exams, newest first.
func (s *ExamService) ListExams(ctx context.Context) (v1.ExamList, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("list_exams").Build()

	exams, err := s.store.Exam().List(ctx, store.NewExamQueryFilter().ByOrgID(user.Organization))
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithInt("count", len(exams)).Log()
	return mappers.ExamListToApi(exams), nil
}

func (s *ExamService) GetExam(ctx context.Context, id uint) (*v1.Exam, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("get_exam").WithParam("exam_id", id).Build()

	exam, err := s.store.Exam().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrExamNotFound(id)
		}
		tracer.Error(err).Log()
		return nil, err
	}
	if exam.OrgID != user.Organization {
		return nil, NewErrExamNotFound(id)
	}

	tracer.Success().Log()
	apiExam := mappers.ExamToApi(exam)
	return &apiExam, nil
}
