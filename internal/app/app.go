package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"SecretSanta/internal/config"
	"SecretSanta/internal/infrastructure/mail"
	"SecretSanta/internal/infrastructure/product"
	"SecretSanta/internal/infrastructure/render"
	"SecretSanta/internal/infrastructure/storage"
	"SecretSanta/internal/logging"
	"SecretSanta/internal/ports"
	"SecretSanta/internal/scraper"
	"SecretSanta/internal/usecase"
)

// Options carries the command line switches.
type Options struct {
	Preview bool
	Test    bool
	Seed    *uint64
	Stdout  io.Writer
}

// Application wires configuration to the pipeline and owns the resources it opened.
type Application struct {
	pipeline *usecase.Pipeline
	opts     Options
	closers  []io.Closer
	logger   *slog.Logger
}

// New builds a runnable application from the loaded configuration.
func New(ctx context.Context, cfg config.Config, opts Options, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, nil)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	a := &Application{opts: opts, logger: baseLogger}

	store, err := a.openStore(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.Scrape.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Scrape.RatePerSecond), 1)
	}
	fetcher := product.NewFetcher(&http.Client{Timeout: cfg.Scrape.Timeout}, limiter)

	resolver := product.NewCache(product.CacheDeps{
		Store:    store,
		Fetcher:  fetcher,
		Disabled: cfg.Scrape.Disabled,
		Logger:   baseLogger.With("component", "product.cache"),
	})

	templates, err := render.LoadTemplates(cfg.Render.TemplateDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := scraper.NewRegistry(cfg.ScraperList()...)
	baseLogger.Debug("scrapers registered", "sources", registry.Sources(), "scrape_disabled", cfg.Scrape.Disabled)

	builder := usecase.NewBuilder(usecase.BuilderDeps{
		Scrapers: registry,
		Resolver: resolver,
		Logger:   baseLogger.With("component", "builder"),
	})

	deps := usecase.PipelineDeps{
		Participants: cfg.ParticipantList(),
		Subject:      cfg.Email.Subject,
		TestAddress:  cfg.Email.TestAddress,
		Builder:      builder,
		Renderer:     templates,
		Rand:         newRand(opts.Seed),
		Logger:       baseLogger.With("component", "pipeline"),
	}

	if opts.Preview {
		deps.Previewer = mail.NewPreview(opts.Stdout, cfg.Preview.Output, templates.Style(), cfg.Preview.Style)
	} else {
		snapshotter := render.NewSnapshotter(cfg.Render.Width, cfg.Render.Height, cfg.Render.BrowserBin,
			baseLogger.With("component", "render.snapshot"))
		a.closers = append(a.closers, snapshotter)
		deps.Snapshotter = snapshotter
		deps.Mailer = mail.NewSMTPMailer(cfg.SMTP, cfg.Email.FromName, templates.Style())
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// Run performs a single exchange.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Run(ctx, usecase.RunOptions{Preview: a.opts.Preview, Test: a.opts.Test})
}

// Close releases stores and the browser.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) openStore(ctx context.Context, cfg config.CacheConfig) (ports.ProductCache, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return storage.NewMemory(), nil
	case config.CacheSQLite, config.CachePostgres:
		store, err := storage.OpenSQLStore(ctx, cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case config.CacheRedis:
		store := storage.NewRedisStore(cfg.RedisAddr)
		a.closers = append(a.closers, store)
		return store, nil
	case config.CacheFile, "":
		return storage.NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func newRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}
