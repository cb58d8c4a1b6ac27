package store

import (
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByCreatedTime
	SortByUpdatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type UploadQueryFilter BaseQuerier

func NewUploadQueryFilter() *UploadQueryFilter {
	return &UploadQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *UploadQueryFilter) ByUsername(username string) *UploadQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("username = ?", username)
	})
	return qf
}

func (qf *UploadQueryFilter) ByOrgID(id string) *UploadQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", id)
	})
	return qf
}

func (qf *UploadQueryFilter) ByPdfID(pdfID string) *UploadQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pdf_id = ?", pdfID)
	})
	return qf
}

func (qf *UploadQueryFilter) ByProcessingState(state string) *UploadQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("processing_state = ?", state)
	})
	return qf
}

type UploadQueryOptions BaseQuerier

func NewUploadQueryOptions() *UploadQueryOptions {
	return &UploadQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *UploadQueryOptions) WithSortOrder(sort SortOrder) *UploadQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

type ExamQueryFilter BaseQuerier

func NewExamQueryFilter() *ExamQueryFilter {
	return &ExamQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ExamQueryFilter) ByUsername(username string) *ExamQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("username = ?", username)
	})
	return qf
}

func (qf *ExamQueryFilter) ByOrgID(id string) *ExamQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", id)
	})
	return qf
}

func (qf *ExamQueryFilter) ByQuizID(quizID string) *ExamQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("quiz_id = ?", quizID)
	})
	return qf
}

func (qf *ExamQueryFilter) ByProcessingState(state string) *ExamQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("processing_state = ?", state)
	})
	return qf
}
