package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"planejai/internal/api"
	"planejai/internal/cache"
	"planejai/internal/config"
	"planejai/internal/core"
	applog "planejai/internal/log"
	"planejai/internal/resources"
	"planejai/internal/sheets"
	"planejai/internal/sheets/google"
	"planejai/internal/sheets/memory"
	"planejai/internal/storage"
	"planejai/internal/store"
)

const prefLastEmail = "last_email"

// App is the wired client stack for one CLI invocation.
type App struct {
	Config    *config.Config
	Logger    *applog.Logger
	Repo      *storage.SQLiteRepository
	Jar       *storage.Jar
	API       *api.Client
	Resources *resources.Client
	Session   *store.Session
	Nav       *api.PathNavigator

	exporter sheets.TransactionExporter
	base     *url.URL
}

// NewApp opens the session database and builds the client stack. Messages
// meant for the user (such as the session-expired notice) go to notices.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger, notices io.Writer) (*App, error) {
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}

	repo, err := InitSQLite(logger, cfg.SessionDBPath)
	if err != nil {
		return nil, err
	}
	jar, err := storage.NewJar(ctx, repo, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	nav := api.NewPathNavigator("/", func(path string) {
		if path == api.LoginPath {
			fmt.Fprintln(notices, "Session expired. Run `planejai login` to sign in again.")
		}
	})
	guard := api.NewGuard(nav)

	client, err := api.NewClient(api.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		Jar:               jar,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Guard:             guard,
		Logger:            logger,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}

	rc := resources.New(client, cfg.APIPrefix)
	perfil := storedSessionPerfil{
		reader: rc.Usuarios,
		guard:  guard,
		jar:    jar,
		route:  base.JoinPath(cfg.APIPrefix, "usuario", "me"),
	}
	sess := store.NewSession(guard, rc.Auth, perfil, rc.Categorias, logger,
		cache.WithTimeout(cfg.FetchTimeout),
		cache.WithLogger(logger))
	sess.ResetOnExpiry()

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Repo:      repo,
		Jar:       jar,
		API:       client,
		Resources: rc,
		Session:   sess,
		Nav:       nav,
		base:      base,
	}

	// A stale cookie is useless once the server rejected it.
	guard.OnChange(func(st api.SessionState) {
		if st != api.SessionExpired {
			return
		}
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Jar.Clear(cctx, a.base); err != nil {
			logger.Warn("Failed to clear stored session", applog.FieldError, err.Error())
		}
	})
	return a, nil
}

// storedSessionPerfil loads the profile and treats a 401 as an expired
// session when the request carried a stored session cookie. The profile
// route matches the guard's allow-list, so the transport reports such a 401
// as a credential error and every wallet-scoped command would keep failing
// on the stale cookie.
type storedSessionPerfil struct {
	reader store.PerfilReader
	guard  *api.Guard
	jar    http.CookieJar
	route  *url.URL
}

var _ store.PerfilReader = storedSessionPerfil{}

func (p storedSessionPerfil) Atual(ctx context.Context) (core.Perfil, error) {
	hadSession := len(p.jar.Cookies(p.route)) > 0
	perfil, err := p.reader.Atual(ctx)
	if err == nil || !hadSession || api.StatusOf(err) != http.StatusUnauthorized {
		return perfil, err
	}
	p.guard.Expire()
	return perfil, api.ErrSessionExpired
}

// Close logs request counters and releases the session database.
func (a *App) Close() error {
	if a.API != nil {
		m := a.API.Metrics()
		a.Logger.Debug("API usage",
			applog.FieldCount, m.TotalRequests,
			"failures", m.Failures,
			"avg_duration_ms", m.AverageResponseTime.Milliseconds())
	}
	if a.Repo == nil {
		return nil
	}
	return a.Repo.Close()
}

// Logout ends the session on the server and forgets it locally, including
// the persisted cookies. Local cleanup happens even if the server call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	if cerr := a.Jar.Clear(ctx, a.base); cerr != nil {
		err = errors.Join(err, fmt.Errorf("clear cookies: %w", cerr))
	}
	return err
}

// Exporter returns the configured export backend, building it on first use.
func (a *App) Exporter(ctx context.Context) (sheets.TransactionExporter, error) {
	if a.exporter != nil {
		return a.exporter, nil
	}
	exp, err := NewExporter(ctx, a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	a.exporter = exp
	return exp, nil
}

// SetExporter overrides the export backend.
func (a *App) SetExporter(exp sheets.TransactionExporter) {
	a.exporter = exp
}

// NewExporter builds the export backend named by cfg.ExportBackend.
func NewExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.TransactionExporter, error) {
	switch cfg.ExportBackend {
	case "sheets":
		return google.New(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			Logger:          logger,
		})
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown export backend %q", cfg.ExportBackend)
	}
}
