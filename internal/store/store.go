package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Upload() Upload
	Exam() Exam
	Close() error
}

type DataStore struct {
	db     *gorm.DB
	upload Upload
	exam   Exam
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		upload: NewUploadStore(db),
		exam:   NewExamStore(db),
		db:     db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Upload() Upload {
	return s.upload
}

func (s *DataStore) Exam() Exam {
	return s.exam
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
