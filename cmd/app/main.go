package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/murtazox04/kelishamiz-backend/config"
	"github.com/murtazox04/kelishamiz-backend/internal/app"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file; real environment variables take precedence")
	flag.Parse()

	// Config
	err := godotenv.Load(*envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("config error: %s", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config error: %s", err)
	}

	// Run
	app.Run(cfg)
}
