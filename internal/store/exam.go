package store

import (
	"context"
	"errors"
	"time"

	"github.com/quizzy-ai/quizzy/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Exam interface {
	List(ctx context.Context, filter *ExamQueryFilter) (model.ExamList, error)
	Get(ctx context.Context, id uint) (*model.Exam, error)
	GetByQuizID(ctx context.Context, quizID string) (*model.Exam, error)
	Create(ctx context.Context, exam model.Exam) (*model.Exam, error)
	Update(ctx context.Context, exam model.Exam) (*model.Exam, error)
	Delete(ctx context.Context, id uint) error
	InitialMigration() error
}

type ExamStore struct {
	db *gorm.DB
}

// Make sure we conform to Exam interface
var _ Exam = (*ExamStore)(nil)

func NewExamStore(db *gorm.DB) Exam {
	return &ExamStore{db: db}
}

func (e *ExamStore) InitialMigration() error {
	return e.db.AutoMigrate(&model.Exam{})
}

func (e *ExamStore) List(ctx context.Context, filter *ExamQueryFilter) (model.ExamList, error) {
	var exams model.ExamList
	tx := e.getDB(ctx).Model(&exams).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&exams)
	if result.Error != nil {
		return nil, result.Error
	}
	return exams, nil
}

func (e *ExamStore) Get(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	result := e.getDB(ctx).First(&exam, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &exam, nil
}

func (e *ExamStore) GetByQuizID(ctx context.Context, quizID string) (*model.Exam, error) {
	var exam model.Exam
	result := e.getDB(ctx).First(&exam, "quiz_id = ?", quizID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &exam, nil
}

func (e *ExamStore) Create(ctx context.Context, exam model.Exam) (*model.Exam, error) {
	result := e.getDB(ctx).Clauses(clause.Returning{}).Create(&exam)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &exam, nil
}

func (e *ExamStore) Update(ctx context.Context, exam model.Exam) (*model.Exam, error) {
	var existing model.Exam
	if err := e.getDB(ctx).First(&existing, "id = ?", exam.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	now := time.Now()
	exam.UpdatedAt = &now
	if err := e.getDB(ctx).Model(&existing).Updates(&exam).Error; err != nil {
		return nil, err
	}

	return e.Get(ctx, exam.ID)
}

func (e *ExamStore) Delete(ctx context.Context, id uint) error {
	result := e.getDB(ctx).Unscoped().Delete(&model.Exam{}, id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (e *ExamStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return e.db
}
