package models

import "time"

// ClaimRecord proves one player withdrew their payout for one round.
// The (player, round) pair is unique; redelivered claim events for the
// same pair collapse into the first stored record.
type ClaimRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Player         string    `gorm:"uniqueIndex:idx_claims_player_round" json:"player"`
	Round          uint64    `gorm:"uniqueIndex:idx_claims_player_round" json:"round"`
	ClaimSignature string    `gorm:"uniqueIndex" json:"claimTxId"`
	ClaimedAt      time.Time `json:"claimedAt"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}
