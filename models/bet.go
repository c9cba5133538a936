package models

import (
	"fmt"
	"strings"
	"time"
)

// Bet is one wager inside one round, produced by a BetsPlaced event.
// Amount is the on-chain base-unit value kept as a decimal string;
// it can exceed the float64 / 53-bit safe range.
type Bet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Player    string    `gorm:"index:idx_bets_player_round" json:"player"`
	Round     uint64    `gorm:"index:idx_bets_player_round;index:idx_bets_round" json:"round"`
	TokenMint string    `gorm:"index" json:"tokenMint"`
	Amount    string    `json:"wagerAmount"`
	BetType   int       `json:"betKind"`
	Numbers   []int     `gorm:"serializer:json" json:"numbers"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `gorm:"index" json:"sourceTxId"`
	// One transaction can carry several distinct bets under the same
	// signature, so the dedup key folds in the bet itself.
	DedupKey  string    `gorm:"uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BetDedupKey builds the idempotency key for a bet insert.
func BetDedupKey(signature string, betType int, numbers []int, amount string) string {
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, fmt.Sprint(n))
	}
	return fmt.Sprintf("%s:%d:%s:%s", signature, betType, strings.Join(parts, "-"), amount)
}

// FillDedupKey sets DedupKey from the bet's own fields.
func (b *Bet) FillDedupKey() {
	b.DedupKey = BetDedupKey(b.Signature, b.BetType, b.Numbers, b.Amount)
}
