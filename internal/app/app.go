package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"RelatedNews/internal/config"
	"RelatedNews/internal/domain"
	"RelatedNews/internal/infrastructure/cachetags"
	"RelatedNews/internal/infrastructure/httpapi"
	"RelatedNews/internal/infrastructure/render"
	"RelatedNews/internal/infrastructure/storage"
	"RelatedNews/internal/logging"
	"RelatedNews/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	store     *storage.SQLStore
	presenter *usecase.Presenter
	editor    *usecase.Editor
	server    *httpapi.Server
}

// New opens the content store and builds the related-news components.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	driver, err := sqlDriverName(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if cfg.Database.Driver == storage.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store := storage.NewSQLStore(db, cfg.Database.Driver)
	cache := cachetags.NewStore()

	selector := usecase.NewSelector(store, cfg.Related.ContentType, baseLogger.With("component", "selector"))
	presenter := usecase.NewPresenter(usecase.PresenterDeps{
		Selector: selector,
		Store:    store,
		Renderer: render.NewDefaultRenderer(cfg.Related.PathPattern, cfg.Related.ExcerptLength, baseLogger.With("component", "render")),
		ViewMode: cfg.Related.ViewMode,
		CacheTag: cfg.Related.CacheTag,
		Logger:   baseLogger.With("component", "presenter"),
	})
	editor := usecase.NewEditor(store, cache, cfg.Related.CacheTag, baseLogger.With("component", "editor"))

	server := httpapi.NewServer(httpapi.Deps{
		Presenter: presenter,
		Editor:    editor,
		Cache:     cache,
		CacheTag:  cfg.Related.CacheTag,
		PageCount: cfg.Related.PageCount,
		TermCount: cfg.Related.TermCount,
		Logger:    baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		store:     store,
		presenter: presenter,
		editor:    editor,
		server:    server,
	}, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case storage.DriverPostgres:
		return "postgres", nil
	case storage.DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Migrate creates the content tables.
func (a *Application) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// Related renders the related block for one news item; count <= 0 uses the page default.
func (a *Application) Related(ctx context.Context, id domain.ItemID, count int) (domain.Bundle, error) {
	if count <= 0 {
		count = a.cfg.Related.PageCount
	}
	return a.presenter.BuildRelatedByID(ctx, id, count)
}

// Handler exposes the HTTP routes.
func (a *Application) Handler() http.Handler {
	return a.server.Routes()
}

// Run serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
