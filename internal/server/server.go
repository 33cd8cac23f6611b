// Package server wires the resolution engine together and serves the
// site over HTTP: request path in, rendered page out, with development
// mode adding the change watcher and hot-reload hub.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/cms"
	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/content"
	"github.com/conneroisu/mdserve/internal/hub"
	"github.com/conneroisu/mdserve/internal/inflect"
	"github.com/conneroisu/mdserve/internal/markdown"
	"github.com/conneroisu/mdserve/internal/resolver"
	"github.com/conneroisu/mdserve/internal/selector"
	"github.com/conneroisu/mdserve/internal/watcher"
)

const debounceDelay = 300 * time.Millisecond

// Server is the explicit context object holding every engine component.
// It is built once at startup and torn down on shutdown; nothing in the
// engine lives in package-level state.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	siteData cms.SiteData
	siteCode cms.SiteCode

	resolver *resolver.Resolver
	store    *content.Store
	selector *selector.Selector
	cache    *cache.ResolutionCache
	markdown *markdown.Renderer
	sandbox  *content.Sandbox

	// watcher and hub exist only in development mode.
	watcher *watcher.ChangeWatcher
	hub     *hub.NotificationHub

	httpServer  *http.Server
	serverMutex sync.Mutex
}

// New wires a Server from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	contentResolver, err := resolver.New(cfg.Dirs.Content)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	templateResolver, err := resolver.New(cfg.Dirs.Templates)
	if err != nil {
		return nil, fmt.Errorf("template root: %w", err)
	}

	siteData, err := cms.LoadSiteData(cfg.Dirs.SiteData)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		siteData: siteData,
		siteCode: cms.SiteCode{},
		resolver: contentResolver,
		store:    content.NewStore(contentResolver.Root(), logger),
		selector: selector.New(templateResolver.Root(), inflect.New()),
		cache:    cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL),
		markdown: markdown.New(markdown.DefaultOptions()),
	}
	s.sandbox = content.NewSandbox(siteData, s.siteCode, logger)

	if cfg.Development() {
		fw, err := watcher.New(debounceDelay, logger)
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
		s.watcher = fw
		s.hub = hub.New(cfg.Server.AllowedOrigins, logger)
	}

	return s, nil
}

// Start runs the server until ctx is cancelled or listening fails.
func (s *Server) Start(ctx context.Context) error {
	if s.watcher != nil {
		s.setupWatcher(ctx)
	}

	mux := http.NewServeMux()
	if s.hub != nil {
		mux.Handle("/ws/hot-reload", s.hub)
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleContent)

	var handler http.Handler = mux
	if s.config.Development() {
		handler = injectReloadScript(handler)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    s.config.Addr(),
		Handler: handler,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info("serving site",
		"addr", s.config.Addr(),
		"content", s.store.Root(),
		"templates", s.selector.Root(),
		"mode", s.config.Mode)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the watcher, disconnects reload clients, and drains
// the HTTP server.
func (s *Server) Shutdown() error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("stopping watcher", "error", err)
		}
	}
	if s.hub != nil {
		s.hub.Close()
	}

	s.serverMutex.Lock()
	srv := s.httpServer
	s.serverMutex.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// setupWatcher connects filesystem changes to cache invalidation and
// reload broadcasts. The watcher produces debounced batches; this
// single consumer applies invalidation and triggers the broadcast, so
// watching I/O never contends with request-side cache reads.
func (s *Server) setupWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.NoHidden)
	s.watcher.AddFilter(watcher.NoEditorArtifacts)
	s.watcher.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug("file changed", "path", event.Path, "type", event.Type.String())
		}
		s.cache.Invalidate()
		s.hub.BroadcastReload()
		return nil
	})

	for _, root := range []string{s.store.Root(), s.selector.Root()} {
		if err := s.watcher.AddRecursive(root); err != nil {
			s.logger.Warn("watching root", "root", root, "error", err)
		}
	}

	s.watcher.Start(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
