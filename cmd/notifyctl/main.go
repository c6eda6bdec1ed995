package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-notification-api/internal/cli"
	"github.com/go-notification-api/internal/pkg/logging"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(logging.New(os.Stderr, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")))

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
