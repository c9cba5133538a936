package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// PayoutDetail is one (address, amount) entry of a settled round.
// Amount is a decimal string of base units.
type PayoutDetail struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// RoundOutcome is the canonical settlement result of one round.
// Payouts carries at most one entry per player, sorted by address so
// re-settling the same round writes byte-identical JSON.
type RoundOutcome struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Round           uint64         `gorm:"uniqueIndex" json:"round"`
	WinningNumber   int            `json:"winningNumber"`
	Payouts         datatypes.JSON `json:"payouts"`
	SettleSignature string         `gorm:"index" json:"settleTxId"`
	SettledAt       time.Time      `json:"computedAt"`
	// Kept for schema parity with the original indexer; settlement
	// here is an off-chain derived view and never writes these.
	OnChainSubmitTx    *string   `json:"onChainSubmitTx,omitempty"`
	OnChainSubmitError *string   `json:"onChainSubmitError,omitempty"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// PayoutList decodes the stored payout JSON. A broken payload comes
// back as an empty list; the column is only ever written by the
// settlement engine.
func (o *RoundOutcome) PayoutList() []PayoutDetail {
	var list []PayoutDetail
	if len(o.Payouts) > 0 {
		_ = json.Unmarshal(o.Payouts, &list)
	}
	if list == nil {
		list = []PayoutDetail{}
	}
	return list
}

// PayoutFor returns the payout amount for one address, or "" if the
// address has no entry in the round.
func (o *RoundOutcome) PayoutFor(address string) string {
	for _, p := range o.PayoutList() {
		if p.Address == address {
			return p.Amount
		}
	}
	return ""
}
