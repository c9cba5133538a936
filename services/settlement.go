package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/bellapacxx/roulette-backend/events"
	"github.com/bellapacxx/roulette-backend/game"
	"github.com/bellapacxx/roulette-backend/models"
	"github.com/bellapacxx/roulette-backend/store"
	"github.com/bellapacxx/roulette-backend/utils/logger"

	"gorm.io/datatypes"
)

// Real-time topic names, kept compatible with the original socket feed.
const (
	TopicNewBets            = "newBets"
	TopicRoundStarted       = "roundStarted"
	TopicBetsClosed         = "betsClosed"
	TopicWinningsCalculated = "winningsCalculated"
	TopicWinningsClaimed    = "winningsClaimed"
)

// BetResult is the derived per-bet breakdown attached to a settlement
// notification. It is computed from stored bets, never stored itself.
type BetResult struct {
	Player  string `json:"player"`
	BetKind string `json:"betKind"`
	Numbers []int  `json:"numbers"`
	Amount  string `json:"wagerAmount"`
	Win     bool   `json:"win"`
	Payout  string `json:"payout"`
}

// SettlementSummary is the winningsCalculated payload.
type SettlementSummary struct {
	Round         uint64                `json:"round"`
	WinningNumber int                   `json:"winningNumber"`
	Payouts       []models.PayoutDetail `json:"payouts"`
	Bets          []BetResult           `json:"bets"`
}

// Settler recomputes a round's payouts from the full bet set and one
// winning number. The computation is a pure function of its inputs,
// so redelivering the same RandomGenerated event rewrites an
// identical outcome record.
type Settler struct {
	ledger store.Ledger
	pub    Publisher
}

func NewSettler(ledger store.Ledger, pub Publisher) *Settler {
	return &Settler{ledger: ledger, pub: pub}
}

// Settle computes and durably writes the outcome for ev's round, then
// publishes the settlement summary. A round with zero bets settles to
// an empty-but-present payout list.
func (s *Settler) Settle(ctx context.Context, ev *events.RandomGeneratedEvent, signature string) (*models.RoundOutcome, error) {
	bets, err := s.ledger.BetsByRound(ctx, ev.Round)
	if err != nil {
		return nil, fmt.Errorf("settle round %d: %w", ev.Round, err)
	}

	totals := make(map[string]*big.Int)
	winningMints := make(map[string]map[string]bool)
	results := make([]BetResult, 0, len(bets))

	for _, bet := range bets {
		kind := game.BetKind(bet.BetType)
		win := game.IsWinner(kind, bet.Numbers, ev.WinningNumber)
		payout := big.NewInt(0)

		if win {
			amount, ok := new(big.Int).SetString(bet.Amount, 10)
			if !ok || amount.Sign() < 0 {
				// bad historical data loses, it must not stop the round
				logger.Warnf("[Settle] round %d: unparseable amount %q on bet %s, treating as loss",
					ev.Round, bet.Amount, bet.DedupKey)
				win = false
			} else {
				payout = amount.Mul(amount, big.NewInt(game.Multiplier(kind)))
				if total, ok := totals[bet.Player]; ok {
					total.Add(total, payout)
				} else {
					totals[bet.Player] = new(big.Int).Set(payout)
				}
				if winningMints[bet.Player] == nil {
					winningMints[bet.Player] = make(map[string]bool)
				}
				winningMints[bet.Player][bet.TokenMint] = true
			}
		}

		numbers := bet.Numbers
		if numbers == nil {
			numbers = []int{}
		}
		results = append(results, BetResult{
			Player:  bet.Player,
			BetKind: kind.String(),
			Numbers: numbers,
			Amount:  bet.Amount,
			Win:     win,
			Payout:  payout.String(),
		})
	}

	// A player winning under two token mints in one round means the
	// stored bet set is corrupt. Exclude the player rather than pay
	// out of the wrong pool.
	for player, mints := range winningMints {
		if len(mints) > 1 {
			logger.Errorf("[Settle] round %d: player %s has winning bets under %d token mints, excluding from payout",
				ev.Round, player, len(mints))
			delete(totals, player)
		}
	}

	payouts := make([]models.PayoutDetail, 0, len(totals))
	for player, total := range totals {
		payouts = append(payouts, models.PayoutDetail{Address: player, Amount: total.String()})
	}
	sort.Slice(payouts, func(i, j int) bool { return payouts[i].Address < payouts[j].Address })

	payoutJSON, err := json.Marshal(payouts)
	if err != nil {
		return nil, fmt.Errorf("settle round %d: marshal payouts: %w", ev.Round, err)
	}

	outcome := &models.RoundOutcome{
		Round:           ev.Round,
		WinningNumber:   ev.WinningNumber,
		Payouts:         datatypes.JSON(payoutJSON),
		SettleSignature: signature,
		SettledAt:       time.Unix(ev.Timestamp, 0).UTC(),
	}
	if err := s.ledger.RecordRoundOutcome(ctx, outcome); err != nil {
		return nil, err
	}

	logger.Infof("[Settle] round %d settled: winning=%d bets=%d winners=%d",
		ev.Round, ev.WinningNumber, len(bets), len(payouts))

	if s.pub != nil {
		s.pub.Broadcast(TopicWinningsCalculated, SettlementSummary{
			Round:         ev.Round,
			WinningNumber: ev.WinningNumber,
			Payouts:       payouts,
			Bets:          results,
		})
	}
	return outcome, nil
}
