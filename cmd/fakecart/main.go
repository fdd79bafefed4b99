package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmcdole/laptophub/internal/fakeapi"
)

func main() {
	var (
		addr   string
		token  string
		user   string
		nested bool
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	flag.StringVar(&token, "token", "", "require this bearer token")
	flag.StringVar(&user, "seed-user", "", "put a sample line in this user's cart")
	flag.BoolVar(&nested, "nested", false, "answer cart lines with nested product objects")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := run(addr, token, user, nested, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, token, user string, nested bool, logger *slog.Logger) error {
	opts := []fakeapi.Option{fakeapi.WithLogger(logger)}
	if token != "" {
		opts = append(opts, fakeapi.WithToken(token))
	}
	if nested {
		opts = append(opts, fakeapi.WithNestedProducts())
	}

	api := fakeapi.New(opts...)
	seedCatalog(api)
	if user != "" {
		api.SeedLine(user, 2, 1)
	}

	r := chi.NewRouter()
	r.Mount("/api", api.Router())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fake shop api listening", "addr", "http://"+addr+"/api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func seedCatalog(api *fakeapi.Server) {
	for _, p := range []fakeapi.Product{
		{ID: 1, Name: "Lenovo ThinkPad X1 Carbon", Brand: "Lenovo", Price: decimal.RequireFromString("1899.00"), Stock: 4,
			Description: "14\" ultraligera, Intel Core Ultra 7, 32GB RAM"},
		{ID: 2, Name: "Apple MacBook Air M3", Brand: "Apple", Price: decimal.RequireFromString("1299.00"), Stock: 10,
			Description: "13.6\" Liquid Retina, 16GB RAM, 512GB SSD"},
		{ID: 3, Name: "Dell XPS 13", Brand: "Dell", Price: decimal.RequireFromString("1149.50"), Stock: 2},
		{ID: 4, Name: "ASUS ROG Zephyrus G14", Brand: "ASUS", Price: decimal.RequireFromString("1999.99"), Stock: 0},
		{ID: 5, Name: "Cámara web HD 1080p", Brand: "Logitech", Price: decimal.RequireFromString("79.90"), Stock: 25},
	} {
		api.AddProduct(p)
	}
}
