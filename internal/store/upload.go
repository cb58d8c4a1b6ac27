package store

import (
	"context"
	"errors"
	"time"

	"github.com/quizzy-ai/quizzy/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Upload interface {
	List(ctx context.Context, filter *UploadQueryFilter, opts *UploadQueryOptions) (model.UploadList, error)
	Get(ctx context.Context, id uint) (*model.Upload, error)
	GetByPdfID(ctx context.Context, pdfID string) (*model.Upload, error)
	Create(ctx context.Context, upload model.Upload) (*model.Upload, error)
	Update(ctx context.Context, upload model.Upload) (*model.Upload, error)
	Delete(ctx context.Context, id uint) error
	InitialMigration() error
}

type UploadStore struct {
	db *gorm.DB
}

// Make sure we conform to Upload interface
var _ Upload = (*UploadStore)(nil)

func NewUploadStore(db *gorm.DB) Upload {
	return &UploadStore{db: db}
}

func (u *UploadStore) InitialMigration() error {
	return u.db.AutoMigrate(&model.Upload{})
}

func (u *UploadStore) List(ctx context.Context, filter *UploadQueryFilter, opts *UploadQueryOptions) (model.UploadList, error) {
	var uploads model.UploadList
	tx := u.getDB(ctx).Model(&uploads)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&uploads)
	if result.Error != nil {
		return nil, result.Error
	}
	return uploads, nil
}

func (u *UploadStore) Get(ctx context.Context, id uint) (*model.Upload, error) {
	var upload model.Upload
	result := u.getDB(ctx).First(&upload, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &upload, nil
}

func (u *UploadStore) GetByPdfID(ctx context.Context, pdfID string) (*model.Upload, error) {
	var upload model.Upload
	result := u.getDB(ctx).First(&upload, "pdf_id = ?", pdfID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &upload, nil
}

func (u *UploadStore) Create(ctx context.Context, upload model.Upload) (*model.Upload, error) {
	result := u.getDB(ctx).Clauses(clause.Returning{}).Create(&upload)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &upload, nil
}

func (u *UploadStore) Update(ctx context.Context, upload model.Upload) (*model.Upload, error) {
	var existing model.Upload
	if err := u.getDB(ctx).First(&existing, "id = ?", upload.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	now := time.Now()
	upload.UpdatedAt = &now
	if err := u.getDB(ctx).Model(&existing).Updates(&upload).Error; err != nil {
		return nil, err
	}

	return u.Get(ctx, upload.ID)
}

func (u *UploadStore) Delete(ctx context.Context, id uint) error {
	result := u.getDB(ctx).Unscoped().Delete(&model.Upload{}, id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (u *UploadStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return u.db
}
