package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bellapacxx/roulette-backend/store"

	"github.com/gin-gonic/gin"
)

func parseRound(c *gin.Context) (uint64, bool) {
	round, err := strconv.ParseUint(c.Param("round"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round number"})
		return 0, false
	}
	return round, true
}

// RoundBets returns every bet recorded for a round
func RoundBets(ledger store.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		round, ok := parseRound(c)
		if !ok {
			return
		}

		bets, err := ledger.BetsByRound(c.Request.Context(), round)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		c.JSON(http.StatusOK, bets)
	}
}

// RoundOutcome returns the settlement result for a round, or 404 if
// the round is not settled yet
func RoundOutcome(ledger store.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		round, ok := parseRound(c)
		if !ok {
			return
		}

		outcome, err := ledger.OutcomeByRound(c.Request.Context(), round)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not settled"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"round":         outcome.Round,
			"winningNumber": outcome.WinningNumber,
			"payouts":       outcome.PayoutList(),
			"computedAt":    outcome.SettledAt,
		})
	}
}
