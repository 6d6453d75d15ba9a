package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/vecinet/backend/internal/database"
	"github.com/vecinet/backend/internal/email"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/posts"
)

// One-shot expiry sweep, for cron setups that do not keep the server's
// background sweeper running. With EMAIL_FROM set it also mails owners
// whose posts are inside the extend-me window.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize("info", "sweep.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	service := posts.NewService(database.DB, posts.DefaultOptions())
	n, err := service.SweepExpired(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Marked %d posts expired", n)

	if from := os.Getenv("EMAIL_FROM"); from != "" {
		sender, err := email.NewEmailService(
			os.Getenv("AWS_REGION"),
			from,
			os.Getenv("EMAIL_FROM_NAME"),
			os.Getenv("WEB_BASE_URL"),
		)
		if err != nil {
			log.Fatalf("Failed to initialize email service: %v", err)
		}

		reminder := email.NewReminder(database.DB, sender, service.ExpiringWindow())
		sent, err := reminder.Run(context.Background())
		if err != nil {
			log.Fatalf("Expiry reminders failed: %v", err)
		}
		log.Printf("Sent %d expiry reminders", sent)
	}
}
