package rag

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tmc/langchaingo/llms"

	"github.com/quizzy-ai/quizzy/internal/vector"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

func TestRag(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rag Suite")
}

type stubRetriever struct {
	chunks    []vector.Chunk
	err       error
	lastQuery string
	lastOpts  vector.QueryOptions
}

func (s *stubRetriever) Query(ctx context.Context, pdfIDs []string, query string, opts vector.QueryOptions) ([]vector.Chunk, error) {
	s.lastQuery = query
	s.lastOpts = opts
	return s.chunks, s.err
}

type stubLLM struct {
	completion string
	err        error
	lastPrompt string
}

func (s *stubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	s.lastPrompt = prompt
	return s.completion, s.err
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			s.lastPrompt = text.Text
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, word := range strings.SplitAfter(s.completion, " ") {
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.completion}},
	}, nil
}

func newTestGenerator(llm llms.Model, retriever Retriever) *Generator {
	return &Generator{
		llm:       llm,
		retriever: retriever,
		logger:    log.NewDebugLogger("rag_generator"),
	}
}

const validCompletion = `[
  {
    "question": "What is photosynthesis?",
    "options": ["A chemical process in plants", "A type of rock", "A star", "An animal"],
    "correct_answer": "A chemical process in plants",
    "explanation": "Plants convert light to energy."
  },
  {
    "question": "Where does it occur?",
    "options": ["Chloroplasts", "Mitochondria", "Nucleus", "Ribosomes"],
    "correct_answer": "Chloroplasts",
    "explanation": "Chloroplasts hold the chlorophyll."
  }
]`

var someChunks = []vector.Chunk{
	{Text: "Photosynthesis converts light into chemical energy.", PdfID: "abc", PdfName: "bio.pdf", Page: 3},
	{Text: "It happens inside the chloroplasts.", PdfID: "abc", PdfName: "bio.pdf", Page: 4},
}

var _ = Describe("GenerateQuiz", func() {
	It("generates questions from retrieved material", func() {
		llm := &stubLLM{completion: validCompletion}
		retriever := &stubRetriever{chunks: someChunks}
		g := newTestGenerator(llm, retriever)

		questions, err := g.GenerateQuiz(context.TODO(), QuizRequest{
			QuizType:     QuizTypeTopic,
			PdfIDs:       []string{"abc"},
			Topic:        "photosynthesis",
			NumQuestions: 2,
			Difficulty:   "medium",
		})
		Expect(err).To(BeNil())
		Expect(questions).To(HaveLen(2))
		Expect(questions[0].CorrectAnswer).To(Equal("A chemical process in plants"))

		Expect(retriever.lastQuery).To(Equal("photosynthesis"))
		Expect(retriever.lastOpts.TopK).To(Equal(6))
		Expect(llm.lastPrompt).To(ContainSubstring("bio.pdf"))
		Expect(llm.lastPrompt).To(ContainSubstring("photosynthesis"))
	})

	It("uses a generic query and page bounds for page range quizzes", func() {
		llm := &stubLLM{completion: validCompletion}
		retriever := &stubRetriever{chunks: someChunks}
		g := newTestGenerator(llm, retriever)

		_, err := g.GenerateQuiz(context.TODO(), QuizRequest{
			QuizType:     QuizTypePageRange,
			PdfIDs:       []string{"abc"},
			StartPage:    2,
			EndPage:      5,
			NumQuestions: 2,
			Difficulty:   "easy",
		})
		Expect(err).To(BeNil())
		Expect(retriever.lastQuery).To(Equal("key concepts, definitions and facts"))
		Expect(retriever.lastOpts.StartPage).To(Equal(2))
		Expect(retriever.lastOpts.EndPage).To(Equal(5))
	})

	It("truncates surplus questions to the requested count", func() {
		llm := &stubLLM{completion: validCompletion}
		retriever := &stubRetriever{chunks: someChunks}
		g := newTestGenerator(llm, retriever)

		questions, err := g.GenerateQuiz(context.TODO(), QuizRequest{
			QuizType:     QuizTypeTopic,
			PdfIDs:       []string{"abc"},
			Topic:        "photosynthesis",
			NumQuestions: 1,
			Difficulty:   "easy",
		})
		Expect(err).To(BeNil())
		Expect(questions).To(HaveLen(1))
	})

	It("fails when no material matches", func() {
		g := newTestGenerator(&stubLLM{completion: validCompletion}, &stubRetriever{})

		_, err := g.GenerateQuiz(context.TODO(), QuizRequest{
			QuizType:     QuizTypeTopic,
			PdfIDs:       []string{"abc"},
			Topic:        "unknown topic",
			NumQuestions: 2,
			Difficulty:   "easy",
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no relevant material"))
	})
})

var _ = Describe("Chat", func() {
	It("answers using retrieved chunks and returns the sources", func() {
		llm := &stubLLM{completion: "  It occurs in the chloroplasts.  "}
		retriever := &stubRetriever{chunks: someChunks}
		g := newTestGenerator(llm, retriever)

		answer, sources, err := g.Chat(context.TODO(), []string{"abc"}, "Where does photosynthesis occur?")
		Expect(err).To(BeNil())
		Expect(answer).To(Equal("It occurs in the chloroplasts."))
		Expect(sources).To(HaveLen(2))
		Expect(retriever.lastOpts.TopK).To(Equal(maxChatChunks))
	})
})

var _ = Describe("ChatStream", func() {
	It("forwards deltas as they arrive and still returns the full answer", func() {
		llm := &stubLLM{completion: "It occurs in the chloroplasts."}
		retriever := &stubRetriever{chunks: someChunks}
		g := newTestGenerator(llm, retriever)

		var deltas []string
		answer, sources, err := g.ChatStream(context.TODO(), []string{"abc"}, "Where does photosynthesis occur?", func(delta string) error {
			deltas = append(deltas, delta)
			return nil
		})
		Expect(err).To(BeNil())
		Expect(answer).To(Equal("It occurs in the chloroplasts."))
		Expect(strings.Join(deltas, "")).To(Equal("It occurs in the chloroplasts."))
		Expect(len(deltas)).To(BeNumerically(">", 1))
		Expect(sources).To(HaveLen(2))
	})

	It("aborts the stream when the delta callback fails", func() {
		llm := &stubLLM{completion: "It occurs in the chloroplasts."}
		g := newTestGenerator(llm, &stubRetriever{chunks: someChunks})

		_, _, err := g.ChatStream(context.TODO(), []string{"abc"}, "Where?", func(delta string) error {
			return context.Canceled
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("parseQuestions", func() {
	It("parses a bare JSON array", func() {
		questions, err := parseQuestions(validCompletion)
		Expect(err).To(BeNil())
		Expect(questions).To(HaveLen(2))
	})

	It("parses markdown fenced output", func() {
		questions, err := parseQuestions("```json\n" + validCompletion + "\n```")
		Expect(err).To(BeNil())
		Expect(questions).To(HaveLen(2))
	})

	It("parses output wrapped in a questions object", func() {
		questions, err := parseQuestions(`{"questions": ` + validCompletion + `}`)
		Expect(err).To(BeNil())
		Expect(questions).To(HaveLen(2))
	})

	It("rejects a question whose answer is not among its options", func() {
		_, err := parseQuestions(`[{"question": "Q?", "options": ["a", "b"], "correct_answer": "c"}]`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not among its options"))
	})

	It("rejects a question with fewer than two options", func() {
		_, err := parseQuestions(`[{"question": "Q?", "options": ["a"], "correct_answer": "a"}]`)
		Expect(err).To(HaveOccurred())
	})

	It("rejects non JSON output", func() {
		_, err := parseQuestions("Sure! Here are your questions:")
		Expect(err).To(HaveOccurred())
	})
})
