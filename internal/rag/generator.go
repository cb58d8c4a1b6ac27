package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/internal/store/model"
	"github.com/quizzy-ai/quizzy/internal/vector"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

// Quiz types accepted by the generation pipeline.
const (
	QuizTypeTopic         = "topic"
	QuizTypePageRange     = "page_range"
	QuizTypeMultiPdfTopic = "multi_pdf_topic"
)

const (
	MinQuestions = 1
	MaxQuestions = 20

	// Retrieval pulls more chunks than questions so the model has material
	// to choose from.
	chunksPerQuestion = 3
	maxChatChunks     = 8
)

// Retriever fetches the closest chunks for a query from the given PDFs.
type Retriever interface {
	Query(ctx context.Context, pdfIDs []string, query string, opts vector.QueryOptions) ([]vector.Chunk, error)
}

// QuizRequest describes one quiz to generate.
type QuizRequest struct {
	QuizType     string
	PdfIDs       []string
	Topic        string
	StartPage    int
	EndPage      int
	NumQuestions int
	Difficulty   string
}

// Generator turns retrieved PDF chunks into quizzes and chat answers.
type Generator struct {
	llm       llms.Model
	retriever Retriever
	logger    *log.StructuredLogger
}

func NewGenerator(cfg *config.Config, retriever Retriever) (*Generator, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.Service.OpenAI.APIKey),
		openai.WithModel(cfg.Service.OpenAI.ChatModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &Generator{
		llm:       llm,
		retriever: retriever,
		logger:    log.NewDebugLogger("rag_generator"),
	}, nil
}

// GenerateQuiz retrieves material matching the request and asks the model for
// questions over it.
func (g *Generator) GenerateQuiz(ctx context.Context, req QuizRequest) ([]model.QuizQuestion, error) {
	tracer := g.logger.WithContext(ctx).Operation("generate_quiz").
		WithString("quiz_type", req.QuizType).
		WithInt("num_questions", req.NumQuestions).
		WithString("difficulty", req.Difficulty).
		Build()

	opts := vector.QueryOptions{TopK: req.NumQuestions * chunksPerQuestion}
	query := req.Topic
	if req.QuizType == QuizTypePageRange {
		query = "key concepts, definitions and facts"
		opts.StartPage = req.StartPage
		opts.EndPage = req.EndPage
	}

	chunks, err := g.retriever.Query(ctx, req.PdfIDs, query, opts)
	if err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(chunks) == 0 {
		err := fmt.Errorf("no relevant material found for the requested quiz")
		tracer.Error(err).Log()
		return nil, err
	}
	tracer.Step("retrieved").WithInt("chunks", len(chunks)).Log()

	prompt := buildQuizPrompt(req, chunks)
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	questions, err := parseQuestions(completion)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	}

	tracer.Success().WithInt("questions", len(questions)).Log()
	return questions, nil
}

// Chat answers a free-form question over the given PDFs and returns the answer
// together with the chunks it was grounded on.
func (g *Generator) Chat(ctx context.Context, pdfIDs []string, question string) (string, []vector.Chunk, error) {
	tracer := g.logger.WithContext(ctx).Operation("chat").
		WithInt("pdf_count", len(pdfIDs)).
		Build()

	chunks, err := g.retriever.Query(ctx, pdfIDs, question, vector.QueryOptions{TopK: maxChatChunks})
	if err != nil {
		tracer.Error(err).Log()
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}

	prompt := buildChatPrompt(question, chunks)
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(0.2))
	if err != nil {
		tracer.Error(err).Log()
		return "", nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	tracer.Success().WithInt("chunks", len(chunks)).Log()
	return strings.TrimSpace(completion), chunks, nil
}

// ChatStream answers like Chat but forwards completion deltas to onDelta as
// the model emits them. The assembled answer and the grounding chunks are
// returned once the stream ends.
func (g *Generator) ChatStream(ctx context.Context, pdfIDs []string, question string, onDelta func(delta string) error) (string, []vector.Chunk, error) {
	tracer := g.logger.WithContext(ctx).Operation("chat_stream").
		WithInt("pdf_count", len(pdfIDs)).
		Build()

	chunks, err := g.retriever.Query(ctx, pdfIDs, question, vector.QueryOptions{TopK: maxChatChunks})
	if err != nil {
		tracer.Error(err).Log()
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}

	prompt := buildChatPrompt(question, chunks)
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(0.2),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return onDelta(string(chunk))
		}))
	if err != nil {
		tracer.Error(err).Log()
		return "", nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	tracer.Success().WithInt("chunks", len(chunks)).Log()
	return strings.TrimSpace(completion), chunks, nil
}
