package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
)

// DocsWriter creates summary documents.
type DocsWriter struct {
	srv *docs.Service
	log *zap.Logger
}

func NewDocsWriter(srv *docs.Service, log *zap.Logger) *DocsWriter {
	return &DocsWriter{srv: srv, log: nopIfNil(log)}
}

// CreateDocument creates a document titled title holding body and returns
// its id.
func (w *DocsWriter) CreateDocument(ctx context.Context, title, body string) (string, error) {
	doc, err := w.srv.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if body != "" {
		req := &docs.BatchUpdateDocumentRequest{
			Requests: []*docs.Request{{
				InsertText: &docs.InsertTextRequest{
					Text:     body,
					Location: &docs.Location{Index: 1},
				},
			}},
		}
		if _, err := w.srv.Documents.BatchUpdate(doc.DocumentId, req).Context(ctx).Do(); err != nil {
			return doc.DocumentId, fmt.Errorf("write document %s: %w", doc.DocumentId, err)
		}
	}
	w.log.Info("document created", zap.String("id", doc.DocumentId), zap.String("title", title))
	return doc.DocumentId, nil
}
