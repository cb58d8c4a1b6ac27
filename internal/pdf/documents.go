package pdf

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// DocumentMeta identifies the source PDF the chunks belong to.
type DocumentMeta struct {
	PdfID   string
	PdfName string
}

// BuildDocuments splits the extracted page texts into overlapping chunks and
// attaches the metadata the retrieval side depends on. Chunk IDs are stable
// for a given PDF so re-ingestion overwrites rather than duplicates.
func BuildDocuments(pages []string, meta DocumentMeta) ([]schema.Document, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	docs := make([]schema.Document, 0, len(pages))
	for pageIdx, pageText := range pages {
		if strings.TrimSpace(pageText) == "" {
			continue
		}

		chunks, err := splitter.SplitText(pageText)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", pageIdx+1, err)
		}

		for chunkIdx, chunk := range chunks {
			docs = append(docs, schema.Document{
				PageContent: chunk,
				Metadata: map[string]any{
					"id":          fmt.Sprintf("%s_p%d_c%d", meta.PdfID, pageIdx+1, chunkIdx),
					"pdf_id":      meta.PdfID,
					"pdf_name":    meta.PdfName,
					"page":        pageIdx + 1,
					"total_pages": len(pages),
					"chunk":       chunkIdx,
				},
			})
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no extractable text found in document")
	}

	return docs, nil
}
