package google

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/hrygo/rift/plugin/capability"
)

// Google Workspace mime types.
const (
	MimeDocument     = "application/vnd.google-apps.document"
	MimeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimePresentation = "application/vnd.google-apps.presentation"
	MimeFolder       = "application/vnd.google-apps.folder"
)

const (
	fileFields = "id, name, mimeType, webViewLink, modifiedTime, owners(emailAddress)"

	// maxContentBytes caps how much of a file is read for display.
	maxContentBytes = 1 << 20
)

// exportTypes maps Workspace types to the text format they export as.
var exportTypes = map[string]string{
	MimeDocument:     "text/plain",
	MimeSpreadsheet:  "text/csv",
	MimePresentation: "text/plain",
}

// Drive implements capability.Drive.
type Drive struct {
	svc *drive.Service
}

// Ensure Drive implements capability.Drive
var _ capability.Drive = (*Drive)(nil)

func (d *Drive) Search(ctx context.Context, query, mimeType string, max int) (_ []capability.File, err error) {
	defer observe("drive", "search")(&err)

	call := d.svc.Files.List().
		Q(searchQuery(query, mimeType)).
		Fields("files(" + fileFields + ")").
		OrderBy("modifiedTime desc").
		Context(ctx)
	if max > 0 {
		call = call.PageSize(int64(max))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("drive", "search", err)
	}

	files := make([]capability.File, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, toFile(f))
	}
	return files, nil
}

func (d *Drive) GetContent(ctx context.Context, id string) (_ *capability.FileContent, err error) {
	defer observe("drive", "content")(&err)

	f, err := d.svc.Files.Get(id).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("drive", "content", err)
	}
	out := &capability.FileContent{File: toFile(f)}

	var body io.ReadCloser
	switch {
	case exportTypes[f.MimeType] != "":
		resp, err := d.svc.Files.Export(id, exportTypes[f.MimeType]).Context(ctx).Download()
		if err != nil {
			return nil, wrapErr("drive", "export", err)
		}
		body = resp.Body
	case strings.HasPrefix(f.MimeType, "text/") || f.MimeType == "application/json":
		resp, err := d.svc.Files.Get(id).Context(ctx).Download()
		if err != nil {
			return nil, wrapErr("drive", "download", err)
		}
		body = resp.Body
	default:
		// Binary files are described, not read.
		return out, nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxContentBytes))
	if err != nil {
		return nil, wrapErr("drive", "content", err)
	}
	out.Content = string(data)
	return out, nil
}

func (d *Drive) Share(ctx context.Context, id, email, role string) (err error) {
	defer observe("drive", "share")(&err)

	if role == "" {
		role = capability.RoleReader
	}
	perm := &drive.Permission{Type: "user", Role: role, EmailAddress: email}
	_, err = d.svc.Permissions.Create(id, perm).SendNotificationEmail(true).Context(ctx).Do()
	return wrapErr("drive", "share", err)
}

// searchQuery builds a Drive files.list q expression.
func searchQuery(query, mimeType string) string {
	clauses := []string{"trashed = false"}
	if query = strings.TrimSpace(query); query != "" {
		clauses = append(clauses, fmt.Sprintf("name contains '%s'", escapeQuery(query)))
	}
	if mimeType != "" {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", escapeQuery(mimeType)))
	}
	return strings.Join(clauses, " and ")
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toFile(f *drive.File) capability.File {
	out := capability.File{ID: f.Id, Name: f.Name, MimeType: f.MimeType, WebViewLink: f.WebViewLink}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = t
	}
	for _, o := range f.Owners {
		out.Owners = append(out.Owners, o.EmailAddress)
	}
	return out
}
