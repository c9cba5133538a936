// Package events decodes the contract's execution-trace log lines
// into typed event records.
package events

import "github.com/bellapacxx/roulette-backend/game"

// Event names, matching the on-chain program's event definitions.
const (
	BetsPlacedName      = "BetsPlaced"
	RoundStartedName    = "RoundStarted"
	BetsClosedName      = "BetsClosed"
	RandomGeneratedName = "RandomGenerated"
	WinningsClaimedName = "WinningsClaimed"
)

// Event is one decoded log event. Data is one of the *Event structs
// below, selected by Name.
type Event struct {
	Name string
	Data interface{}
}

// PlacedBet is a single wager inside a BetsPlaced event.
type PlacedBet struct {
	Amount  uint64
	Kind    game.BetKind
	Numbers []int
}

// BetsPlacedEvent carries every bet of one place-bets transaction.
type BetsPlacedEvent struct {
	Player    string
	TokenMint string
	Round     uint64
	Timestamp int64
	Bets      []PlacedBet
}

type RoundStartedEvent struct {
	Round     uint64
	StartTime int64
}

type BetsClosedEvent struct {
	Round     uint64
	Timestamp int64
}

// RandomGeneratedEvent carries the authoritative winning number for a
// round; it is the settlement trigger.
type RandomGeneratedEvent struct {
	Round         uint64
	WinningNumber int
	Timestamp     int64
}

type WinningsClaimedEvent struct {
	Player    string
	TokenMint string
	Round     uint64
	Amount    uint64
	Timestamp int64
}
