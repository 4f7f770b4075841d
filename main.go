package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/netmpowers/bookwatch/internal/binsearch"
	"github.com/netmpowers/bookwatch/internal/config"
	"github.com/netmpowers/bookwatch/internal/database"
	"github.com/netmpowers/bookwatch/internal/notify"
	"github.com/netmpowers/bookwatch/internal/server"
	"github.com/netmpowers/bookwatch/internal/watch"
)

func main() {
	retrieve := flag.Bool("retrieve", false, "run a single retrieval pass, deliver the digest, and exit")
	flag.Parse()

	// A missing .env is fine; settings fall back to real env vars and defaults.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	client := binsearch.NewClient(cfg.SearchBaseURL, cfg.MaxResults, cfg.MaxAgeDays, cfg.FetchTimeout)
	runner := watch.NewRunner(db, client, cfg.FetchDelay)
	notifier := notify.New(cfg.OutputLogPath, notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
	})

	if *retrieve {
		report, err := runner.RunAll(context.Background())
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}
		if report.Empty() {
			log.Printf("Nothing new")
			return
		}
		if err := notifier.Deliver(report); err != nil {
			log.Printf("Notification error: %v", err)
		}
		return
	}

	poller := watch.NewPoller(runner, notifier, cfg.PollInterval)
	poller.Start()
	defer poller.Stop()

	srv := server.New(db, client, runner, notifier)
	if err := srv.Start(cfg.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
