package service

import (
	"context"
	"errors"

	v1 "github.com/quizzy-ai/quizzy/api/v1"
	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/vector"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

// Chatter answers a free-form question over ingested PDFs, either in one
// piece or streamed delta by delta.
type Chatter interface {
	Chat(ctx context.Context, pdfIDs []string, question string) (string, []vector.Chunk, error)
	ChatStream(ctx context.Context, pdfIDs []string, question string, onDelta func(delta string) error) (string, []vector.Chunk, error)
}

type ChatService struct {
	store   store.Store
	chatter Chatter
	logger  *log.StructuredLogger
}

func NewChatService(s store.Store, chatter Chatter) *ChatService {
	return &ChatService{
		store:   s,
		chatter: chatter,
		logger:  log.NewDebugLogger("chat_service"),
	}
}

// Ask validates the PDFs belong to the caller and are ready, then answers the
// question over them.
func (s *ChatService) Ask(ctx context.Context, req v1.ChatRequest) (*v1.ChatResponse, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("ask").
		WithInt("pdf_count", len(req.PdfIDs)).
		Build()

	if err := s.ensureReady(ctx, user.Organization, req.PdfIDs); err != nil {
		return nil, err
	}

	answer, chunks, err := s.chatter.Chat(ctx, req.PdfIDs, req.Question)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().Log()
	return &v1.ChatResponse{Answer: answer, Sources: sourcesFromChunks(chunks)}, nil
}

// AskStream answers like Ask but forwards each completion delta to onDelta as
// it arrives. The final response carries the assembled answer and sources.
func (s *ChatService) AskStream(ctx context.Context, req v1.ChatRequest, onDelta func(delta string) error) (*v1.ChatResponse, error) {
	user := auth.MustHaveUser(ctx)
	tracer := s.logger.WithContext(ctx).Operation("ask_stream").
		WithInt("pdf_count", len(req.PdfIDs)).
		Build()

	if err := s.ensureReady(ctx, user.Organization, req.PdfIDs); err != nil {
		return nil, err
	}

	answer, chunks, err := s.chatter.ChatStream(ctx, req.PdfIDs, req.Question, onDelta)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().Log()
	return &v1.ChatResponse{Answer: answer, Sources: sourcesFromChunks(chunks)}, nil
}

// ensureReady verifies every referenced PDF exists, belongs to the caller's
// organization and finished ingestion.
func (s *ChatService) ensureReady(ctx context.Context, orgID string, pdfIDs []string) error {
	for _, pdfID := range pdfIDs {
		upload, err := s.store.Upload().GetByPdfID(ctx, pdfID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrPdfNotFound(pdfID)
			}
			return err
		}
		if upload.OrgID != orgID {
			return NewErrPdfNotFound(pdfID)
		}
		if upload.ProcessingState != model.ProcessingStateProcessed {
			return NewErrPdfNotReady(pdfID)
		}
	}
	return nil
}

func sourcesFromChunks(chunks []vector.Chunk) []v1.ChatSource {
	var sources []v1.ChatSource
	seen := make(map[v1.ChatSource]bool)
	for _, chunk := range chunks {
		source := v1.ChatSource{PdfID: chunk.PdfID, PdfName: chunk.PdfName, Page: chunk.Page}
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	return sources
}
