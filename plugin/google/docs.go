package google

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"

	"github.com/hrygo/rift/plugin/capability"
)

// Docs implements capability.Docs. Search and sharing go through Drive.
type Docs struct {
	svc   *docs.Service
	drive *Drive
}

// Ensure Docs implements capability.Docs
var _ capability.Docs = (*Docs)(nil)

// DocumentURL is the editor link of a document.
func DocumentURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", id)
}

func (d *Docs) Create(ctx context.Context, title, content string) (_ *capability.Document, err error) {
	defer observe("docs", "create")(&err)

	doc, err := d.svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("docs", "create", err)
	}
	out := &capability.Document{ID: doc.DocumentId, Title: doc.Title, URL: DocumentURL(doc.DocumentId)}
	if content != "" {
		if err := d.Append(ctx, doc.DocumentId, content); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Docs) Append(ctx context.Context, id, text string) (err error) {
	defer observe("docs", "append")(&err)

	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				EndOfSegmentLocation: &docs.EndOfSegmentLocation{},
				Text:                 text,
			},
		}},
	}
	_, err = d.svc.Documents.BatchUpdate(id, req).Context(ctx).Do()
	return wrapErr("docs", "append", err)
}

func (d *Docs) Search(ctx context.Context, query string, max int) ([]capability.File, error) {
	return d.drive.Search(ctx, query, MimeDocument, max)
}

func (d *Docs) Share(ctx context.Context, id, email, role string) error {
	return d.drive.Share(ctx, id, email, role)
}
