package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/finprofile/contact-api/config"
	"github.com/finprofile/contact-api/domain/contact"
	"github.com/finprofile/contact-api/internal/log"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "webhook-test", "test-webhook":
		if err := runWebhookTest(logger); err != nil {
			logger.Error("Webhook test failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Webhook test delivered; check the channel for the marked message")
		return

	case "check-config":
		runConfigCheck(logger)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// runWebhookTest sends a clearly marked synthetic submission through the real
// notifier so operators can verify SLACK_WEBHOOK_URL end to end.
func runWebhookTest(logger *log.Logger) error {
	cfg := config.NewContactConfig()

	if cfg.WebhookURL == "" {
		return fmt.Errorf("SLACK_WEBHOOK_URL is not configured")
	}

	notifier := contact.NewSlackNotifier(&contact.NotifierConfig{
		WebhookURL:  cfg.WebhookURL,
		Timeout:     cfg.NotifyTimeout,
		MaxAttempts: 1,
	}, logger)

	submission := contact.ToSubmission(&contact.SubmitContactRequest{
		Company: "TEST: delivery check",
		Name:    "Webhook Smoke Test",
		Phone:   "+0 000 000 0000",
		Email:   "noreply@example.com",
		Needs:   fmt.Sprintf("Synthetic submission sent by the cli at %s. Safe to ignore.", time.Now().UTC().Format(time.RFC3339)),
		Lang:    "en",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return notifier.Notify(ctx, submission)
}

// runConfigCheck prints the effective intake configuration without secrets.
func runConfigCheck(logger *log.Logger) {
	cfg := config.NewContactConfig()

	logger.Info("Effective contact configuration",
		"webhook_configured", cfg.WebhookURL != "",
		"allow_all_origins", cfg.AllowAllOrigins,
		"allowed_origins", cfg.AllowedOrigins,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow.String(),
		"notify_timeout", cfg.NotifyTimeout.String(),
		"notify_retry_attempts", cfg.NotifyRetryAttempts,
	)
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  webhook-test  Send a marked test submission to the configured webhook and exit")
	fmt.Println("  check-config  Print the effective intake configuration (secrets redacted)")
}
