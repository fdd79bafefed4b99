package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/laptophub/internal/adapter"
	"github.com/mmcdole/laptophub/internal/adapter/source/laptophub"
	"github.com/mmcdole/laptophub/internal/metrics"
	"github.com/mmcdole/laptophub/internal/service"
	"github.com/mmcdole/laptophub/internal/store"
	"github.com/mmcdole/laptophub/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		productID   int64
		clearCache  bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Int64Var(&productID, "product", 0, "open the product page for this id next to the cart")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete the local cart cache and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("laptophub %s\n", Version)
		return
	}

	// A bare numeric argument also selects the product
	if productID == 0 && flag.NArg() > 0 {
		id, err := strconv.ParseInt(flag.Arg(0), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid product id %q\n", flag.Arg(0))
			os.Exit(2)
		}
		productID = id
	}

	if err := run(productID, clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(productID int64, clearCache bool) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if clearCache {
		return adapter.ClearCache(cfg.CacheDir())
	}

	// Setup logger
	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting laptophub", "version", Version, "server", cfg.Server.URL)

	if !cfg.IsConfigured() {
		return errors.New("server.url is not set; add it to config.yaml or set LAPTOPHUB_SERVER_URL")
	}

	session := adapter.NewSessionFromConfig(cfg)
	userID, _ := session.UserID()

	client := laptophub.NewClient(laptophub.ClientConfig{
		BaseURL:     cfg.Server.URL,
		Timeout:     cfg.Server.Timeout,
		RateLimit:   cfg.Server.RateLimit,
		Burst:       cfg.Server.Burst,
		ReadRetries: cfg.Server.Retries,
	}, session, logger)

	cache, err := store.NewCartStore(cfg.CacheDir(), cfg.Server.URL, userID)
	if err != nil {
		logger.Warn("cart cache unavailable, using memory", "error", err)
		cache = store.NewMemoryStore()
	}
	defer cache.Close()

	// Create services
	cartSvc := service.NewCartService(client, session, cache, service.NewEventBus(), logger)
	sessionSvc := service.NewSessionService(session, cartSvc, logger)

	recorder := metrics.NewRecorder()
	cartSvc.SetMetrics(recorder)
	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen, recorder, logger)
	}

	// Create TUI model
	model := tui.NewModel(tui.Options{
		Cart:      cartSvc,
		Session:   sessionSvc,
		Products:  client,
		Identity:  session,
		ProductID: productID,
		Logger:    logger,
	})
	defer model.Close()

	// Run the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI", "productID", productID)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener stopped", "error", err)
	}
}
