package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bellapacxx/roulette-backend/chain"
	"github.com/bellapacxx/roulette-backend/config"
	"github.com/bellapacxx/roulette-backend/events"
	"github.com/bellapacxx/roulette-backend/routes"
	"github.com/bellapacxx/roulette-backend/services"
	"github.com/bellapacxx/roulette-backend/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg *config.Config, ledger store.Ledger, hub *services.Hub) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup REST routes
	routes.SetupRoutes(r, ledger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket feed endpoint
	r.GET("/ws", services.HandleWebSocket(hub))

	return r
}

func main() {
	// Load env variables
	cfg := config.Load()

	// Connect to database
	db := config.SetupDatabase(cfg.DatabaseURL)
	ledger := store.NewGormLedger(db)

	// Real-time fan-out hub
	hub := services.NewHub()

	// Event pipeline: decode -> dedup -> persist -> settle -> publish
	settler := services.NewSettler(ledger, hub)
	listener := services.NewListener(ledger, events.NewDecoder(), settler, hub)

	ctx := context.Background()
	if cfg.WSEndpoint != "" {
		sub := chain.NewSubscriber(cfg.WSEndpoint, cfg.ProgramID, cfg.Commitment)
		go sub.Run(ctx)
		go listener.Run(ctx, sub.Logs())
	} else {
		log.Println("[WARN] WSS_ENDPOINT not set, starting query API without chain listener")
	}

	// Setup Gin router
	router := setupRouter(cfg, ledger, hub)

	// Start server
	log.Printf("🚀 Roulette indexer starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
