package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bellapacxx/roulette-backend/models"
)

type claimKey struct {
	player string
	round  uint64
}

// MemoryLedger keeps the whole ledger in process memory with the same
// key semantics as the postgres implementation. It backs tests and
// DB-less experiments.
type MemoryLedger struct {
	mu         sync.RWMutex
	nextID     uint
	betsByKey  map[string]*models.Bet
	betOrder   []string
	outcomes   map[uint64]*models.RoundOutcome
	claims     map[claimKey]*models.ClaimRecord
	signatures map[string]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		nextID:     1,
		betsByKey:  make(map[string]*models.Bet),
		outcomes:   make(map[uint64]*models.RoundOutcome),
		claims:     make(map[claimKey]*models.ClaimRecord),
		signatures: make(map[string]bool),
	}
}

func (l *MemoryLedger) RecordBet(ctx context.Context, bet *models.Bet) (bool, error) {
	if bet.DedupKey == "" {
		bet.FillDedupKey()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.betsByKey[bet.DedupKey]; ok {
		return false, nil
	}
	stored := *bet
	stored.ID = l.nextID
	l.nextID++
	stored.Numbers = append([]int(nil), bet.Numbers...)
	l.betsByKey[bet.DedupKey] = &stored
	l.betOrder = append(l.betOrder, bet.DedupKey)
	l.signatures[bet.Signature] = true
	return true, nil
}

func (l *MemoryLedger) RecordRoundOutcome(ctx context.Context, outcome *models.RoundOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := *outcome
	if old, ok := l.outcomes[outcome.Round]; ok {
		stored.ID = old.ID
	} else {
		stored.ID = l.nextID
		l.nextID++
	}
	l.outcomes[outcome.Round] = &stored
	l.signatures[outcome.SettleSignature] = true
	return nil
}

func (l *MemoryLedger) RecordClaim(ctx context.Context, claim *models.ClaimRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := claimKey{player: claim.Player, round: claim.Round}
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	stored := *claim
	stored.ID = l.nextID
	l.nextID++
	l.claims[key] = &stored
	l.signatures[claim.ClaimSignature] = true
	return true, nil
}

func (l *MemoryLedger) BetsByRound(ctx context.Context, round uint64) ([]models.Bet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bets := make([]models.Bet, 0)
	for _, key := range l.betOrder {
		if bet := l.betsByKey[key]; bet.Round == round {
			bets = append(bets, *bet)
		}
	}
	return bets, nil
}

func (l *MemoryLedger) PlayerBets(ctx context.Context, player string, round uint64) ([]models.Bet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bets := make([]models.Bet, 0)
	for _, key := range l.betOrder {
		if bet := l.betsByKey[key]; bet.Round == round && bet.Player == player {
			bets = append(bets, *bet)
		}
	}
	return bets, nil
}

func (l *MemoryLedger) OutcomeByRound(ctx context.Context, round uint64) (*models.RoundOutcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	outcome, ok := l.outcomes[round]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *outcome
	return &copied, nil
}

func (l *MemoryLedger) LatestPlayerRound(ctx context.Context, player string) (uint64, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var latest uint64
	found := false
	for _, bet := range l.betsByKey {
		if bet.Player == player && (!found || bet.Round > latest) {
			latest = bet.Round
			found = true
		}
	}
	return latest, found, nil
}

func (l *MemoryLedger) PlayerRounds(ctx context.Context, player string) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[uint64]bool)
	for _, bet := range l.betsByKey {
		if bet.Player == player {
			seen[bet.Round] = true
		}
	}
	rounds := make([]uint64, 0, len(seen))
	for round := range seen {
		rounds = append(rounds, round)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i] > rounds[j] })
	return rounds, nil
}

func (l *MemoryLedger) HasClaim(ctx context.Context, player string, round uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.claims[claimKey{player: player, round: round}]
	return ok, nil
}

func (l *MemoryLedger) SignatureProcessed(ctx context.Context, signature string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.signatures[signature], nil
}
