package service

import (
	"fmt"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(jobID int64) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %d not found", jobID)}
}

type ErrJobInvalidState struct {
	error
}

func NewErrJobInvalidState(jobID int64, state string) *ErrJobInvalidState {
	return &ErrJobInvalidState{fmt.Errorf("job %d cannot be canceled in state %q", jobID, state)}
}

type ErrJobAccessForbidden struct {
	error
}

func NewErrJobAccessForbidden(jobID int64) *ErrJobAccessForbidden {
	return &ErrJobAccessForbidden{fmt.Errorf("access to job %d is forbidden", jobID)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id any, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %v not found", resourceType, id)}
}

func NewErrUploadNotFound(id uint) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "upload")
}

func NewErrExamNotFound(id uint) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "exam")
}

func NewErrPdfNotFound(pdfID string) *ErrResourceNotFound {
	return NewErrResourceNotFound(pdfID, "pdf")
}

type ErrPdfNotReady struct {
	error
}

func NewErrPdfNotReady(pdfID string) *ErrPdfNotReady {
	return &ErrPdfNotReady{fmt.Errorf("pdf %s has not finished processing", pdfID)}
}
