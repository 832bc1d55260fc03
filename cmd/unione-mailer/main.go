// Package main is the entry point for the unione-mailer SMTP relay.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fiCeVitka/unione-mailer/internal/config"
	"github.com/fiCeVitka/unione-mailer/internal/provider"
	"github.com/fiCeVitka/unione-mailer/internal/provider/ses"
	"github.com/fiCeVitka/unione-mailer/internal/provider/stdout"
	"github.com/fiCeVitka/unione-mailer/internal/provider/unione"
	"github.com/fiCeVitka/unione-mailer/internal/smtp"
	smtptls "github.com/fiCeVitka/unione-mailer/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Load or generate TLS certificates
	tlsConfig, err := smtptls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile, "localhost")
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	tlsMode := "self-signed"
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		tlsMode = "file"
	}

	// Select email delivery provider
	prov := selectProvider(cfg)

	// Create SMTP server
	server := smtp.New(smtp.ServerConfig{
		ListenAddr:     cfg.SMTP.Listen,
		Hostname:       "localhost",
		Provider:       prov,
		TLSConfig:      tlsConfig,
		AuthUsername:   cfg.SMTP.Username,
		AuthPassword:   cfg.SMTP.Password,
		MaxMessageSize: cfg.SMTP.MaxMessageSize,
	})

	slog.Info("starting unione-mailer",
		"listen", cfg.SMTP.Listen,
		"provider", prov.Name(),
		"auth_enabled", cfg.AuthEnabled(),
		"tls_mode", tlsMode,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("unione-mailer stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newUniOneProvider builds the UniOne provider from configuration.
func newUniOneProvider(cfg *config.Config) provider.Provider {
	slog.Info("using UniOne provider",
		"host", cfg.UniOne.Host,
		"locale", cfg.UniOne.Locale,
		"skip_unsubscribe", cfg.UniOne.SkipUnsubscribe,
		"check_deletable_suppressions", cfg.UniOne.CheckDeletableSuppressions,
	)
	return unione.New(unione.Config{
		APIKey:                     cfg.UniOne.APIKey,
		Locale:                     cfg.UniOne.Locale,
		Host:                       cfg.UniOne.Host,
		Port:                       cfg.UniOne.Port,
		SkipUnsubscribe:            cfg.UniOne.SkipUnsubscribe,
		CheckDeletableSuppressions: cfg.UniOne.CheckDeletableSuppressions,
	})
}

// newSESProvider builds the SES provider from configuration.
func newSESProvider(cfg *config.Config) provider.Provider {
	slog.Info("using AWS SES provider", "region", cfg.SES.Region)
	p, err := ses.New(context.Background(), ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		slog.Error("failed to create SES provider", "error", err)
		os.Exit(1)
	}
	return p
}

// selectProvider chooses the email delivery backend based on configuration.
// An explicit provider setting takes precedence; otherwise UniOne is used
// when configured, then SES, then stdout.
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "unione":
		if !cfg.UniOneConfigured() {
			slog.Error("UniOne provider selected but UNIONE_API_KEY is required")
			os.Exit(1)
		}
		return newUniOneProvider(cfg)

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION and SES_SENDER are required")
			os.Exit(1)
		}
		return newSESProvider(cfg)

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	case "":
		// Auto-detection fallback
		if cfg.UniOneConfigured() {
			return newUniOneProvider(cfg)
		}
		if cfg.SESConfigured() {
			return newSESProvider(cfg)
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}
