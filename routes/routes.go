package routes

import (
	"github.com/bellapacxx/roulette-backend/controllers"
	"github.com/bellapacxx/roulette-backend/store"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the read-only query API over the ledger.
func SetupRoutes(r *gin.Engine, ledger store.Ledger) {
	api := r.Group("/api")

	// ----------------------
	// Round routes
	// ----------------------
	api.GET("/rounds/:round/bets", controllers.RoundBets(ledger))       // All bets in a round
	api.GET("/rounds/:round/outcome", controllers.RoundOutcome(ledger)) // Settlement result

	// ----------------------
	// Player routes
	// ----------------------
	api.GET("/players/:address/rounds/:round/bets", controllers.PlayerRoundBets(ledger)) // Annotated bets
	api.GET("/players/:address/claimable", controllers.Claimable(ledger))                // Latest unclaimed payout
}
