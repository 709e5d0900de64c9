package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/people/v1"

	"github.com/hrygo/rift/plugin/capability"
)

const (
	contactTTL         = 5 * time.Minute
	contactCleanup     = 10 * time.Minute
	contactReadMask    = "names,emailAddresses"
	contactSearchLimit = 10
)

// Contacts implements capability.Contacts over the People API. Lookups are
// cached per name and concurrent lookups of one name share a request.
type Contacts struct {
	svc   *people.Service
	cache *cache.Cache
	group singleflight.Group
}

// Ensure Contacts implements capability.Contacts
var _ capability.Contacts = (*Contacts)(nil)

// NewContacts creates a Contacts client.
func NewContacts(svc *people.Service) *Contacts {
	return &Contacts{svc: svc, cache: cache.New(contactTTL, contactCleanup)}
}

func (c *Contacts) ResolveEmail(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty contact name", capability.ErrNotFound)
	}
	if addr, err := mail.ParseAddress(name); err == nil {
		return addr.Address, nil
	}

	key := strings.ToLower(name)
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		email, err := c.lookup(ctx, name)
		if err != nil {
			return "", err
		}
		c.cache.Set(key, email, cache.DefaultExpiration)
		return email, nil
	})
	if err != nil {
		return "", err
	}
	slog.Debug("contact resolved", "name", name, "shared", shared)
	return v.(string), nil
}

// lookup searches saved contacts, then "other contacts" (people the user has
// emailed).
func (c *Contacts) lookup(ctx context.Context, name string) (_ string, err error) {
	defer observe("people", "search")(&err)

	resp, err := c.svc.People.SearchContacts().
		Query(name).
		ReadMask(contactReadMask).
		PageSize(contactSearchLimit).
		Context(ctx).Do()
	if err != nil {
		return "", wrapErr("people", "search", err)
	}
	for _, r := range resp.Results {
		if email := bestEmail(r.Person, name); email != "" {
			return email, nil
		}
	}

	other, err := c.svc.OtherContacts.Search().
		Query(name).
		ReadMask(contactReadMask).
		PageSize(contactSearchLimit).
		Context(ctx).Do()
	if err != nil {
		return "", wrapErr("people", "search-other", err)
	}
	for _, r := range other.Results {
		if email := bestEmail(r.Person, name); email != "" {
			return email, nil
		}
	}
	return "", fmt.Errorf("%w: no contact matches %q", capability.ErrNotFound, name)
}

// bestEmail returns the primary address of p when one of its names contains
// query.
func bestEmail(p *people.Person, query string) string {
	if p == nil || len(p.EmailAddresses) == 0 {
		return ""
	}
	q := strings.ToLower(query)
	matched := len(p.Names) == 0
	for _, n := range p.Names {
		if strings.Contains(strings.ToLower(n.DisplayName), q) {
			matched = true
			break
		}
	}
	if !matched {
		return ""
	}
	for _, e := range p.EmailAddresses {
		if e.Metadata != nil && e.Metadata.Primary {
			return e.Value
		}
	}
	return p.EmailAddresses[0].Value
}
