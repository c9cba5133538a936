// Package store is the idempotent ledger for bets, round outcomes and
// claims. Every write is either insert-if-absent or a deterministic
// overwrite, which is what makes at-least-once, out-of-order event
// delivery safe without cross-process locks.
package store

import (
	"context"
	"errors"

	"github.com/bellapacxx/roulette-backend/models"
)

// ErrNotFound is returned by point lookups when no record exists.
var ErrNotFound = errors.New("store: not found")

// Ledger owns the three durable record types. No other component
// writes them.
type Ledger interface {
	// RecordBet inserts the bet if its dedup key is unseen and reports
	// whether a row was created. An existing bet is never overwritten.
	RecordBet(ctx context.Context, bet *models.Bet) (bool, error)

	// RecordRoundOutcome upserts the outcome keyed by round number.
	// Settlement is deterministic, so last-write-wins is safe and
	// self-correcting under redelivery.
	RecordRoundOutcome(ctx context.Context, outcome *models.RoundOutcome) error

	// RecordClaim inserts the claim unless (player, round) already has
	// one, and reports whether a row was created.
	RecordClaim(ctx context.Context, claim *models.ClaimRecord) (bool, error)

	BetsByRound(ctx context.Context, round uint64) ([]models.Bet, error)
	PlayerBets(ctx context.Context, player string, round uint64) ([]models.Bet, error)
	OutcomeByRound(ctx context.Context, round uint64) (*models.RoundOutcome, error)

	// LatestPlayerRound returns the highest round the player placed a
	// bet in; ok is false if the player never played.
	LatestPlayerRound(ctx context.Context, player string) (uint64, bool, error)

	// PlayerRounds lists the distinct rounds a player bet in, newest
	// first.
	PlayerRounds(ctx context.Context, player string) ([]uint64, error)

	HasClaim(ctx context.Context, player string, round uint64) (bool, error)

	// SignatureProcessed reports whether the transaction identifier is
	// already durably present in any ledger record.
	SignatureProcessed(ctx context.Context, signature string) (bool, error)
}
