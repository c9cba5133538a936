package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	ProgramID      string
	WSEndpoint     string
	Commitment     string
	AllowedOrigins []string
}

// Load reads .env (if present) and builds the config.
// DATABASE_URL is the only hard requirement; without it there is
// nothing to index into.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	programID := os.Getenv("PROGRAM_ID")
	if programID == "" {
		programID = "GZB6nqB9xSC8VKwWajtCu2TotPXz1mZCR5VwMLEKDj81"
	}

	commitment := os.Getenv("COMMITMENT")
	if commitment == "" {
		commitment = "confirmed"
	}

	origins := []string{"http://localhost:3000"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return &Config{
		Port:           port,
		DatabaseURL:    dsn,
		ProgramID:      programID,
		WSEndpoint:     os.Getenv("WSS_ENDPOINT"),
		Commitment:     commitment,
		AllowedOrigins: origins,
	}
}
