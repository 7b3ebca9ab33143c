// Package serve implements the canvasbabel serve command: one process that
// exposes the HTTP API, the WebSocket event feed, and the bookmark store.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DarlingtonDeveloper/CanvasBabel/api"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/config"
	"github.com/DarlingtonDeveloper/CanvasBabel/ws"
)

// App is a wired server, ready to be mounted on a listener.
type App struct {
	Handler http.Handler
	Hub     *ws.Hub
	Store   bookmarks.Store
}

// Close releases the bookmark store.
func (a *App) Close() error {
	return a.Store.Close()
}

// OpenStore opens the bookmark backend cfg selects.
func OpenStore(cfg *config.Config) (bookmarks.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return bookmarks.NewMemoryStore(), nil
	case "sqlite":
		return bookmarks.OpenSQLite(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// New wires the store, hub, and routes. The hub runs until ctx is done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(cfg.APIToken)
	go hub.Run(ctx)

	apiServer := api.NewServer(store, hub, api.Options{
		BaseURL:        cfg.BaseURL,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	hub.SetStateProvider(func() interface{} {
		return apiServer.BookmarkState(ctx)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWebSocket)
	mux.Handle("/api/", apiServer.Routes())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":"canvasbabel","version":%q}`+"\n", api.Version)
	})

	handler := api.Chain(mux,
		api.RequestIDMiddleware,
		api.CORSMiddleware(cfg.AllowedOrigins),
		api.AuthMiddleware(cfg.APIToken),
	)
	return &App{Handler: handler, Hub: hub, Store: store}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests for up to cfg.ShutdownGrace.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("CanvasBabel starting on %s (store=%s)", addr, cfg.Store.Driver)
	if cfg.Store.Driver == "sqlite" {
		log.Printf("Bookmarks: %s", cfg.Store.Path)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
