package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/capability"
)

const fileSearchLimit = 10

var errNotFiles = errors.New("the last search did not list files or documents; search Drive or Docs first")

// library is a searchable, shareable file store: Drive, or the Docs subset
// of it. The search, open and share handlers are written once against it.
type library struct {
	kind       session.ResultKind
	searchMode session.Mode
	openMode   session.Mode
	// noun and plural name the entries in messages.
	noun   string
	plural string
	where  string
	// openHint tells the user how to open an entry of a listing.
	openHint string

	searchType string
	openType   string
	shareType  string
	// action names what failed in error messages, e.g. "search Drive".
	searchAction string
	openAction   string
	shareAction  string
	// fileType, when set, restricts searches and allows an empty query.
	fileType string

	search func(ctx context.Context, query string, max int) ([]capability.File, error)
	share  func(ctx context.Context, id, email, role string) error
}

func (s *Service) drive(fileType string) library {
	mimeType := extract.DriveSearch{FileType: fileType}.MimeType()
	return library{
		fileType:     fileType,
		kind:         session.KindFiles,
		searchMode:   session.ModeDriveSearch,
		openMode:     session.ModeDriveOpen,
		noun:         "file",
		plural:       "files",
		where:        "Google Drive",
		openHint:     `You can open a file by saying "open file #[number]" or "open [filename]".`,
		searchType:   TypeDriveSearch,
		openType:     TypeDriveOpen,
		shareType:    TypeDriveShare,
		searchAction: "Failed to search Drive",
		openAction:   "Failed to open file",
		shareAction:  "Failed to share file",
		search: func(ctx context.Context, query string, max int) ([]capability.File, error) {
			return s.clients.Drive.Search(ctx, query, mimeType, max)
		},
		share: func(ctx context.Context, id, email, role string) error {
			return s.clients.Drive.Share(ctx, id, email, role)
		},
	}
}

func (s *Service) docs() library {
	return library{
		kind:         session.KindDocs,
		searchMode:   session.ModeDocsSearch,
		openMode:     session.ModeDocsOpen,
		noun:         "document",
		plural:       "documents",
		where:        "Google Docs",
		openHint:     `You can open a document by saying "open doc #[number]" or "open [document name]".`,
		searchType:   TypeDocsSearch,
		openType:     TypeDocsOpen,
		shareType:    TypeDocsShare,
		searchAction: "Failed to search documents",
		openAction:   "Failed to open document",
		shareAction:  "Failed to share document",
		search: func(ctx context.Context, query string, max int) ([]capability.File, error) {
			return s.clients.Docs.Search(ctx, query, max)
		},
		share: func(ctx context.Context, id, email, role string) error {
			return s.clients.Docs.Share(ctx, id, email, role)
		},
	}
}

// searchFiles lists the entries of lib matching query and caches them for
// ordinal references.
func (s *Service) searchFiles(ctx context.Context, t *turn, lib library, query string) (*Result, error) {
	label := query
	if label == "" {
		if lib.fileType == "" {
			return chatResult(fmt.Sprintf("Please specify what you want to search for in %s.", lib.where)), nil
		}
		label = lib.fileType
	}
	files, err := lib.search(ctx, query, fileSearchLimit)
	if err != nil {
		return nil, failed(lib.searchAction, err)
	}
	if len(files) == 0 {
		return &Result{Type: lib.searchType, Response: fmt.Sprintf("No %s found matching %q.", lib.plural, label)}, nil
	}
	items := fileItems(files)
	t.state.SetResults(lib.kind, query, items)
	return &Result{
		Type:         lib.searchType,
		Success:      true,
		Response:     fmt.Sprintf("Found %d %s matching %q:\n\n", len(files), lib.plural, label) + s.formatFiles(files) + lib.openHint,
		Result:       files,
		Items:        items,
		FollowUpMode: true,
		FollowUpType: lib.searchMode,
	}, nil
}

// openFile opens the entry the prompt names: by position in the last
// listing, or by a name that matches exactly one entry.
func (s *Service) openFile(ctx context.Context, t *turn, lib library, query string) (*Result, error) {
	if n, ok := extract.Ordinal(t.prompt); ok {
		item, err := resolveFile(t.state, n)
		if err != nil {
			return errorResult(upperFirst(err.Error()) + "."), nil
		}
		return s.openItem(t, lib, item)
	}
	if query == "" {
		return chatResult(fmt.Sprintf("Please specify which %s you want to open from %s.", lib.noun, lib.where)), nil
	}
	files, err := lib.search(ctx, query, fileSearchLimit)
	if err != nil {
		return nil, failed(lib.openAction, err)
	}
	switch len(files) {
	case 0:
		return &Result{Type: lib.searchType, Response: fmt.Sprintf("No %s found matching %q.", lib.plural, query)}, nil
	case 1:
		return s.openItem(t, lib, fileItems(files)[0])
	}
	if i := exactName(files, query); i >= 0 {
		return s.openItem(t, lib, fileItems(files)[i])
	}
	items := fileItems(files)
	t.state.SetResults(lib.kind, query, items)
	return &Result{
		Type: lib.searchType,
		Response: fmt.Sprintf("Found multiple %s matching %q:\n\n", lib.plural, query) + s.formatFiles(files) +
			fmt.Sprintf("Please specify which %s to open by number (e.g., \"open %s #2\").", lib.noun, lib.noun),
		Result:       files,
		Items:        items,
		FollowUpMode: true,
		FollowUpType: lib.searchMode,
	}, nil
}

// shareFile shares the entry named by the prompt's target with its recipients.
func (s *Service) shareFile(ctx context.Context, t *turn, lib library) (*Result, error) {
	sh := s.x.Share(ctx, t.prompt)
	if sh.Target == "" || (len(sh.Emails) == 0 && len(sh.Names) == 0) {
		return chatResult(fmt.Sprintf("Please specify which %s to share and with whom (email addresses).", lib.noun)), nil
	}
	var item session.Item
	if n, ok := extract.Ordinal(sh.Target); ok {
		it, err := resolveFile(t.state, n)
		if err != nil {
			return errorResult(upperFirst(err.Error()) + "."), nil
		}
		item = it
	} else {
		files, err := lib.search(ctx, sh.Target, fileSearchLimit)
		if err != nil {
			return nil, failed(lib.shareAction, err)
		}
		if len(files) == 0 {
			return errorResult(fmt.Sprintf("No %s found matching %q.", lib.plural, sh.Target)), nil
		}
		i := exactName(files, sh.Target)
		if i < 0 && len(files) > 1 {
			items := fileItems(files)
			t.state.SetResults(lib.kind, sh.Target, items)
			return &Result{
				Type: lib.searchType,
				Response: fmt.Sprintf("Found multiple %s matching %q:\n\n", lib.plural, sh.Target) + s.formatFiles(files) +
					fmt.Sprintf("Please specify which %s to share by number (e.g., \"share %s #1 with name@example.com\").", lib.noun, lib.noun),
				Items:        items,
				FollowUpMode: true,
				FollowUpType: lib.searchMode,
			}, nil
		}
		if i < 0 {
			i = 0
		}
		item = fileItems(files)[i]
	}
	return s.shareWith(ctx, t, lib, item, sh)
}

// resolveFile returns item n of the last listing. Only Drive and Docs
// listings qualify; an email or playlist id must never reach Drive.
func resolveFile(st *session.State, n int) (session.Item, error) {
	r := st.Results()
	if r == nil || len(r.Items) == 0 {
		return session.Item{}, session.ErrNoResults
	}
	if !(ordinalRef{noun: "file"}).accepts(r.Kind) {
		return session.Item{}, errNotFiles
	}
	return st.Resolve(n)
}

// shareItem shares a listing entry with the recipients the prompt names.
func (s *Service) shareItem(ctx context.Context, t *turn, lib library, item session.Item) (*Result, error) {
	sh := s.x.Share(ctx, t.prompt)
	if len(sh.Emails) == 0 && len(sh.Names) == 0 {
		return chatResult(fmt.Sprintf("Who should I share %q with? Please give email addresses.", item.Title)), nil
	}
	return s.shareWith(ctx, t, lib, item, sh)
}

func (s *Service) shareWith(ctx context.Context, t *turn, lib library, item session.Item, sh extract.Share) (*Result, error) {
	recipients, missing := s.recipients(ctx, t, sh)
	if len(recipients) == 0 {
		return errorResult("Could not find an email address for: " + strings.Join(missing, ", ")), nil
	}
	role := sh.Role
	if role == "" {
		role = capability.RoleReader
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Shared %q with:", item.Title)
	shared := 0
	for _, email := range recipients {
		if err := lib.share(ctx, item.ID, email, role); err != nil {
			if errors.Is(err, capability.ErrAuthRequired) {
				return nil, err
			}
			t.rc.Warn("share failed", slog.String("email", email), slog.String("error", err.Error()))
			fmt.Fprintf(&b, "\n✗ %s (%v)", email, err)
			continue
		}
		shared++
		fmt.Fprintf(&b, "\n✓ %s", email)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\n\nCould not find an email address for: %s", strings.Join(missing, ", "))
	}
	if shared == 0 {
		return errorResult(lib.shareAction + ":\n" + b.String()), nil
	}
	return &Result{Type: lib.shareType, Success: true, Response: b.String(), Result: item}, nil
}

// openItem opens a listing entry in the browser.
func (s *Service) openItem(t *turn, lib library, item session.Item) (*Result, error) {
	if item.URL == "" {
		return errorResult(fmt.Sprintf("%q has no link to open.", item.Title)), nil
	}
	if err := s.openURL(item.URL); err != nil {
		t.rc.Warn("failed to open browser", slog.String("error", err.Error()))
	}
	return &Result{
		Type:         lib.openType,
		Success:      true,
		Response:     fmt.Sprintf("Opening %q in your browser.", item.Title),
		URL:          item.URL,
		Result:       item,
		FollowUpMode: true,
		FollowUpType: lib.openMode,
	}, nil
}

// recipients returns the addresses of a share payload, resolving names.
func (s *Service) recipients(ctx context.Context, t *turn, sh extract.Share) (emails, missing []string) {
	resolved, missing := s.resolveNames(ctx, t, sh.Names)
	return dedupe(append(append([]string{}, sh.Emails...), resolved...)), missing
}

// resolveNames maps contact names to addresses. Names that do not resolve
// are returned in missing.
func (s *Service) resolveNames(ctx context.Context, t *turn, names []string) (emails, missing []string) {
	for _, name := range names {
		if strings.Contains(name, "@") {
			emails = append(emails, name)
			continue
		}
		addr, err := s.clients.Contacts.ResolveEmail(ctx, name)
		if err != nil {
			t.rc.Debug("contact not resolved", slog.String("name", name), slog.String("error", err.Error()))
			missing = append(missing, name)
			continue
		}
		emails = append(emails, addr)
	}
	return emails, missing
}

func (s *Service) formatFiles(files []capability.File) string {
	var b strings.Builder
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, f.Name, mimeLabel(f.MimeType))
		if !f.ModifiedTime.IsZero() {
			fmt.Fprintf(&b, "   Modified: %s\n", s.formatDate(f.ModifiedTime))
		}
		if f.WebViewLink != "" {
			fmt.Fprintf(&b, "   %s\n", f.WebViewLink)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func fileItems(files []capability.File) []session.Item {
	items := make([]session.Item, 0, len(files))
	for _, f := range files {
		items = append(items, session.Item{
			ID:       f.ID,
			Title:    f.Name,
			Subtitle: mimeLabel(f.MimeType),
			URL:      f.WebViewLink,
			MimeType: f.MimeType,
		})
	}
	return items
}

func exactName(files []capability.File, name string) int {
	for i, f := range files {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

var mimeLabels = map[string]string{
	"application/vnd.google-apps.document":     "Google Doc",
	"application/vnd.google-apps.spreadsheet":  "Google Sheet",
	"application/vnd.google-apps.presentation": "Google Slides",
	"application/vnd.google-apps.folder":       "Folder",
	"application/vnd.google-apps.form":         "Google Form",
	"application/pdf":                          "PDF",
	"text/plain":                               "Text",
	"image/png":                                "Image",
	"image/jpeg":                               "Image",
}

func mimeLabel(mime string) string {
	if l, ok := mimeLabels[mime]; ok {
		return l
	}
	if mime == "" {
		return "File"
	}
	return mime
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
