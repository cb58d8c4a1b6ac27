package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/pkg/log"
)

const upsertBatchSize = 50

// Chunk is one retrieved piece of PDF text together with its provenance.
type Chunk struct {
	Text    string
	PdfID   string
	PdfName string
	Page    int
	Score   float32
}

// IndexService stores and retrieves PDF chunks in a Pinecone index. Every PDF
// gets its own namespace so one document can be dropped without touching the
// rest of the index.
type IndexService struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
	logger    *log.StructuredLogger
}

func NewIndexService(cfg *config.Config) (*IndexService, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.Service.Pinecone.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithToken(cfg.Service.OpenAI.APIKey),
		openai.WithEmbeddingModel(cfg.Service.OpenAI.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &IndexService{
		client:    pc,
		embedder:  embedder,
		indexName: cfg.Service.Pinecone.IndexName,
		logger:    log.NewDebugLogger("vector_index"),
	}, nil
}

// Namespace returns the Pinecone namespace holding the given PDF's chunks.
func Namespace(pdfID string) string {
	return "pdf_" + pdfID
}

// IndexDocuments embeds the chunks and upserts them into the PDF's namespace,
// replacing whatever the namespace held before. Returns the number of vectors
// written.
func (s *IndexService) IndexDocuments(ctx context.Context, pdfID string, docs []schema.Document) (int, error) {
	tracer := s.logger.WithContext(ctx).Operation("index_documents").
		WithString("pdf_id", pdfID).
		WithInt("documents", len(docs)).
		Build()

	conn, err := s.connect(ctx, Namespace(pdfID))
	if err != nil {
		tracer.Error(err).Log()
		return 0, err
	}

	if err := s.clearNamespace(ctx, conn); err != nil {
		tracer.Error(err).Log()
		return 0, err
	}

	total := 0
	for start := 0; start < len(docs); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.PageContent
		}

		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			tracer.Error(err).Log()
			return total, fmt.Errorf("failed to embed documents: %w", err)
		}

		upsert := make([]*pinecone.Vector, len(batch))
		for i, doc := range batch {
			metadata := map[string]any{"text": doc.PageContent}
			for k, v := range doc.Metadata {
				if k == "id" {
					continue
				}
				metadata[k] = v
			}

			metadataStruct, err := structpb.NewStruct(metadata)
			if err != nil {
				tracer.Error(err).Log()
				return total, fmt.Errorf("failed to build metadata: %w", err)
			}

			values := vectors[i]
			upsert[i] = &pinecone.Vector{
				Id:       fmt.Sprint(doc.Metadata["id"]),
				Values:   &values,
				Metadata: metadataStruct,
			}
		}

		count, err := conn.UpsertVectors(ctx, upsert)
		if err != nil {
			tracer.Error(err).Log()
			return total, fmt.Errorf("failed to upsert vectors: %w", err)
		}
		total += int(count)
	}

	tracer.Success().WithInt("vectors", total).Log()
	return total, nil
}

// QueryOptions narrows a retrieval to a page window inside the namespaces.
type QueryOptions struct {
	TopK      int
	StartPage int
	EndPage   int
}

// Query embeds the query text and retrieves the closest chunks from each of
// the given PDFs' namespaces.
func (s *IndexService) Query(ctx context.Context, pdfIDs []string, query string, opts QueryOptions) ([]Chunk, error) {
	tracer := s.logger.WithContext(ctx).Operation("query").
		WithInt("pdf_count", len(pdfIDs)).
		WithInt("top_k", opts.TopK).
		Build()

	queryVectors, err := s.embedder.EmbedDocuments(ctx, []string{query})
	if err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	var filter *structpb.Struct
	if opts.StartPage > 0 && opts.EndPage > 0 {
		filter, err = structpb.NewStruct(map[string]any{
			"page": map[string]any{"$gte": opts.StartPage, "$lte": opts.EndPage},
		})
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
	}

	var chunks []Chunk
	for _, pdfID := range pdfIDs {
		conn, err := s.connect(ctx, Namespace(pdfID))
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}

		result, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          queryVectors[0],
			TopK:            uint32(topK),
			MetadataFilter:  filter,
			IncludeValues:   false,
			IncludeMetadata: true,
		})
		if err != nil {
			tracer.Error(err).Log()
			return nil, fmt.Errorf("failed to query namespace for pdf %s: %w", pdfID, err)
		}

		for _, match := range result.Matches {
			if match.Vector == nil || match.Vector.Metadata == nil {
				continue
			}
			metadata := match.Vector.Metadata.AsMap()

			chunk := Chunk{PdfID: pdfID, Score: match.Score}
			if text, ok := metadata["text"].(string); ok {
				chunk.Text = text
			}
			if name, ok := metadata["pdf_name"].(string); ok {
				chunk.PdfName = name
			}
			if page, ok := metadata["page"].(float64); ok {
				chunk.Page = int(page)
			}
			if chunk.Text != "" {
				chunks = append(chunks, chunk)
			}
		}
	}

	tracer.Success().WithInt("chunks", len(chunks)).Log()
	return chunks, nil
}

// DeleteNamespace removes all vectors belonging to the given PDF.
func (s *IndexService) DeleteNamespace(ctx context.Context, pdfID string) error {
	tracer := s.logger.WithContext(ctx).Operation("delete_namespace").
		WithString("pdf_id", pdfID).
		Build()

	conn, err := s.connect(ctx, Namespace(pdfID))
	if err != nil {
		tracer.Error(err).Log()
		return err
	}

	if err := s.clearNamespace(ctx, conn); err != nil {
		tracer.Error(err).Log()
		return err
	}

	tracer.Success().Log()
	return nil
}

// VectorCount returns the number of vectors stored for the given PDF.
func (s *IndexService) VectorCount(ctx context.Context, pdfID string) (int, error) {
	conn, err := s.connect(ctx, Namespace(pdfID))
	if err != nil {
		return 0, err
	}

	stats, err := conn.DescribeIndexStats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to describe index stats: %w", err)
	}

	summary, ok := stats.Namespaces[Namespace(pdfID)]
	if !ok || summary == nil {
		return 0, nil
	}
	return int(summary.VectorCount), nil
}

func (s *IndexService) connect(ctx context.Context, namespace string) (*pinecone.IndexConnection, error) {
	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	conn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return conn, nil
}

func (s *IndexService) clearNamespace(ctx context.Context, conn *pinecone.IndexConnection) error {
	if err := conn.DeleteAllVectorsInNamespace(ctx); err != nil {
		// A namespace that was never written to does not exist yet.
		if strings.Contains(err.Error(), "Namespace not found") {
			return nil
		}
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}
