package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/rift/plugin/ai/extract"
)

func (s *Service) searchDrive(ctx context.Context, t *turn) (*Result, error) {
	q := s.x.DriveSearch(ctx, t.prompt)
	return s.searchFiles(ctx, t, s.drive(q.FileType), q.Query)
}

func (s *Service) openDrive(ctx context.Context, t *turn) (*Result, error) {
	q := s.x.DriveSearch(ctx, t.prompt)
	return s.openFile(ctx, t, s.drive(q.FileType), q.Query)
}

func (s *Service) shareDrive(ctx context.Context, t *turn) (*Result, error) {
	return s.shareFile(ctx, t, s.drive(""))
}

func (s *Service) searchDocs(ctx context.Context, t *turn) (*Result, error) {
	q := s.x.DriveSearch(ctx, t.prompt)
	return s.searchFiles(ctx, t, s.docs(), q.Query)
}

func (s *Service) openDoc(ctx context.Context, t *turn) (*Result, error) {
	q := s.x.DriveSearch(ctx, t.prompt)
	return s.openFile(ctx, t, s.docs(), q.Query)
}

func (s *Service) shareDoc(ctx context.Context, t *turn) (*Result, error) {
	return s.shareFile(ctx, t, s.docs())
}

func (s *Service) createDoc(ctx context.Context, t *turn) (*Result, error) {
	d := s.x.DocsCreate(ctx, t.prompt)
	doc, err := s.clients.Docs.Create(ctx, d.Title, d.Content)
	if err != nil {
		return nil, failed("Failed to create document", err)
	}
	if doc.URL != "" {
		if err := s.openURL(doc.URL); err != nil {
			t.rc.Warn("failed to open browser", slog.String("error", err.Error()))
		}
	}
	return &Result{
		Type:     TypeDocsCreate,
		Success:  true,
		Response: fmt.Sprintf("Created new Google Doc %q. Opening in your browser.", doc.Title),
		Result:   doc,
		URL:      doc.URL,
	}, nil
}

func (s *Service) updateDoc(ctx context.Context, t *turn) (*Result, error) {
	u := s.x.DocsUpdate(ctx, t.prompt)
	if strings.TrimSpace(u.Target) == "" || strings.TrimSpace(u.Content) == "" {
		return chatResult("Please specify which document to update and what content to add."), nil
	}

	var id, title string
	if n, ok := extract.Ordinal(u.Target); ok {
		item, err := resolveFile(t.state, n)
		if err != nil {
			return errorResult(upperFirst(err.Error()) + "."), nil
		}
		id, title = item.ID, item.Title
	} else {
		files, err := s.clients.Docs.Search(ctx, u.Target, 5)
		if err != nil {
			return nil, failed("Failed to update document", err)
		}
		if len(files) == 0 {
			return errorResult(fmt.Sprintf("No documents found matching %q.", u.Target)), nil
		}
		i := exactName(files, u.Target)
		if i < 0 {
			i = 0
		}
		id, title = files[i].ID, files[i].Name
	}

	if err := s.clients.Docs.Append(ctx, id, u.Content); err != nil {
		return nil, failed("Failed to update document", err)
	}
	return &Result{
		Type:     TypeDocsUpdate,
		Success:  true,
		Response: fmt.Sprintf("Updated %q with your content.", title),
	}, nil
}
