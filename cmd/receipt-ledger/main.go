package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/receipt-ledger/internal/extraction"
	"github.com/zombor/receipt-ledger/internal/ledger"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("receipt-ledger")
	var (
		port        = fs.IntLong("port", 8484, "HTTP server port")
		dbPath      = fs.StringLong("db", "receipt-ledger.db", "Database file path")
		apiKey      = fs.StringLong("api-key", "", "Gemini API key (or set GEMINI_API_KEY env var); overrides the stored key")
		modelID     = fs.StringLong("model", ledger.DefaultModelID, "Extraction model id used until one is configured")
		scanTimeout = fs.DurationLong("scan-timeout", 60*time.Second, "Upper bound on a single extraction call")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Opening ledger database...", "path", *dbPath)
	store, err := ledger.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedSettings(store, *apiKey, *modelID); err != nil {
		slog.Error("Failed to seed settings", "error", err)
		os.Exit(1)
	}

	client := extraction.NewGeminiClient()
	workflow := ledger.NewWorkflow(store, client, *scanTimeout)

	basicAuth := ledger.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := ledger.NewServer(workflow, store, client, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// seedSettings folds startup configuration into the persisted settings: a
// key given on the command line (or GEMINI_API_KEY) replaces the stored
// one, and the model flag fills in a first-run default without clobbering a
// configured choice.
func seedSettings(store ledger.Store, apiKey, modelID string) error {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	settings, err := store.Settings()
	if err != nil {
		return err
	}

	changed := false
	if apiKey != "" && settings.APIKey != apiKey {
		settings.APIKey = apiKey
		changed = true
	}
	if settings.ModelID == "" || (modelID != ledger.DefaultModelID && settings.ModelID == ledger.DefaultModelID) {
		settings.ModelID = modelID
		changed = true
	}

	if !changed {
		return nil
	}
	return store.SaveSettings(settings)
}
