package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	applog "planejai/internal/log"
)

const persistTimeout = 5 * time.Second

// CookieRepository is the persistence the Jar writes through to.
type CookieRepository interface {
	SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error
	LoadCookies(ctx context.Context) ([]StoredCookie, error)
	DeleteCookies(ctx context.Context, origin string) error
}

var _ CookieRepository = (*SQLiteRepository)(nil)

// Jar is an http.CookieJar that keeps cookies in memory and writes every
// change through to a CookieRepository, so a session survives restarts.
type Jar struct {
	mu     sync.RWMutex
	inner  *cookiejar.Jar
	repo   CookieRepository
	logger *applog.Logger
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar loads the stored cookies into a fresh in-memory jar.
func NewJar(ctx context.Context, repo CookieRepository, logger *applog.Logger) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &Jar{
		inner:  inner,
		repo:   repo,
		logger: applog.OrDefault(logger, applog.ComponentStorage),
	}

	stored, err := repo.LoadCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	byURL := map[string][]*http.Cookie{}
	for _, sc := range stored {
		key := sc.Origin + sc.Cookie.Path
		byURL[key] = append(byURL[key], sc.Cookie)
	}
	for raw, cookies := range byURL {
		u, err := url.Parse(raw)
		if err != nil {
			j.logger.WarnContext(ctx, "Skipping stored cookies with bad origin", "origin", raw, applog.FieldError, err.Error())
			continue
		}
		inner.SetCookies(u, cookies)
	}
	j.logger.DebugContext(ctx, "Loaded stored cookies", applog.FieldOperation, applog.OpLoad, applog.FieldCount, len(stored))
	return j, nil
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

// SetCookies updates the in-memory jar and persists the change. Persistence
// failures are logged; the in-memory session keeps working.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	j.inner.SetCookies(u, cookies)
	j.mu.RUnlock()

	if len(cookies) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := j.repo.SaveCookies(ctx, Origin(u), cookies); err != nil {
		j.logger.Warn("Failed to persist cookies", applog.FieldOperation, applog.OpSave, applog.FieldError, err.Error())
	}
}

// Clear forgets every cookie for base, both in memory and on disk.
func (j *Jar) Clear(ctx context.Context, base *url.URL) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()

	if base == nil {
		return nil
	}
	if err := j.repo.DeleteCookies(ctx, Origin(base)); err != nil {
		return err
	}
	return nil
}

// Origin returns scheme://host for u.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
