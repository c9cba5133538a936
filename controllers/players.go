package controllers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/bellapacxx/roulette-backend/game"
	"github.com/bellapacxx/roulette-backend/models"
	"github.com/bellapacxx/roulette-backend/store"

	"github.com/gin-gonic/gin"
)

// AnnotatedBet is a stored bet decorated with its settlement result.
type AnnotatedBet struct {
	models.Bet
	Win    bool   `json:"win"`
	Payout string `json:"payout"`
}

func winningPayout(bet models.Bet) string {
	amount, ok := new(big.Int).SetString(bet.Amount, 10)
	if !ok {
		return "0"
	}
	return amount.Mul(amount, big.NewInt(game.Multiplier(game.BetKind(bet.BetType)))).String()
}

// PlayerRoundBets returns a player's bets in one round, with win and
// payout annotations once the round is settled, plus the claimed flag
func PlayerRoundBets(ledger store.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		round, ok := parseRound(c)
		if !ok {
			return
		}
		player := c.Param("address")

		ctx := c.Request.Context()
		bets, err := ledger.PlayerBets(ctx, player, round)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		outcome, err := ledger.OutcomeByRound(ctx, round)
		settled := err == nil
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		annotated := make([]AnnotatedBet, 0, len(bets))
		for _, bet := range bets {
			ab := AnnotatedBet{Bet: bet, Payout: "0"}
			if settled {
				ab.Win = game.IsWinner(game.BetKind(bet.BetType), bet.Numbers, outcome.WinningNumber)
				if ab.Win {
					ab.Payout = winningPayout(bet)
				}
			}
			annotated = append(annotated, ab)
		}

		claimed := false
		if settled {
			claimed, err = ledger.HasClaim(ctx, player, round)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
				return
			}
		}

		resp := gin.H{
			"player":  player,
			"round":   round,
			"settled": settled,
			"claimed": claimed,
			"bets":    annotated,
		}
		if settled {
			resp["winningNumber"] = outcome.WinningNumber
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Claimable returns the player's latest settled round with an
// unclaimed payout, or claimable=false
func Claimable(ledger store.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		player := c.Param("address")
		ctx := c.Request.Context()

		latest, played, err := ledger.LatestPlayerRound(ctx, player)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if !played {
			c.JSON(http.StatusOK, gin.H{"claimable": false})
			return
		}

		rounds, err := ledger.PlayerRounds(ctx, player)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		for _, round := range rounds {
			outcome, err := ledger.OutcomeByRound(ctx, round)
			if errors.Is(err, store.ErrNotFound) {
				continue // not settled yet
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
				return
			}

			amount := outcome.PayoutFor(player)
			if amount == "" || amount == "0" {
				continue
			}

			claimed, err := ledger.HasClaim(ctx, player, round)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
				return
			}
			if claimed {
				continue
			}

			c.JSON(http.StatusOK, gin.H{
				"claimable":   true,
				"round":       round,
				"amount":      amount,
				"latestRound": latest,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"claimable": false, "latestRound": latest})
	}
}
