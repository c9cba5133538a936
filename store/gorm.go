package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bellapacxx/roulette-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger is the postgres-backed Ledger.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) RecordBet(ctx context.Context, bet *models.Bet) (bool, error) {
	if bet.DedupKey == "" {
		bet.FillDedupKey()
	}
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(bet)
	if res.Error != nil {
		return false, fmt.Errorf("record bet %s: %w", bet.DedupKey, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (l *GormLedger) RecordRoundOutcome(ctx context.Context, outcome *models.RoundOutcome) error {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "round"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"winning_number", "payouts", "settle_signature", "settled_at", "updated_at",
			}),
		}).
		Create(outcome)
	if res.Error != nil {
		return fmt.Errorf("record outcome for round %d: %w", outcome.Round, res.Error)
	}
	return nil
}

func (l *GormLedger) RecordClaim(ctx context.Context, claim *models.ClaimRecord) (bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(claim)
	if res.Error != nil {
		return false, fmt.Errorf("record claim %s/%d: %w", claim.Player, claim.Round, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (l *GormLedger) BetsByRound(ctx context.Context, round uint64) ([]models.Bet, error) {
	var bets []models.Bet
	err := l.db.WithContext(ctx).
		Where("round = ?", round).
		Order("id").
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("bets for round %d: %w", round, err)
	}
	return bets, nil
}

func (l *GormLedger) PlayerBets(ctx context.Context, player string, round uint64) ([]models.Bet, error) {
	var bets []models.Bet
	err := l.db.WithContext(ctx).
		Where("player = ? AND round = ?", player, round).
		Order("id").
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("bets for %s in round %d: %w", player, round, err)
	}
	return bets, nil
}

func (l *GormLedger) OutcomeByRound(ctx context.Context, round uint64) (*models.RoundOutcome, error) {
	var outcome models.RoundOutcome
	err := l.db.WithContext(ctx).Where("round = ?", round).First(&outcome).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("outcome for round %d: %w", round, err)
	}
	return &outcome, nil
}

func (l *GormLedger) LatestPlayerRound(ctx context.Context, player string) (uint64, bool, error) {
	var bet models.Bet
	err := l.db.WithContext(ctx).
		Where("player = ?", player).
		Order("round DESC").
		First(&bet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest round for %s: %w", player, err)
	}
	return bet.Round, true, nil
}

func (l *GormLedger) PlayerRounds(ctx context.Context, player string) ([]uint64, error) {
	var rounds []uint64
	err := l.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("player = ?", player).
		Distinct("round").
		Order("round DESC").
		Pluck("round", &rounds).Error
	if err != nil {
		return nil, fmt.Errorf("rounds for %s: %w", player, err)
	}
	return rounds, nil
}

func (l *GormLedger) HasClaim(ctx context.Context, player string, round uint64) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.ClaimRecord{}).
		Where("player = ? AND round = ?", player, round).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("claim lookup %s/%d: %w", player, round, err)
	}
	return count > 0, nil
}

func (l *GormLedger) SignatureProcessed(ctx context.Context, signature string) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).
		Model(&models.Bet{}).
		Where("signature = ?", signature).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("signature lookup %s: %w", signature, err)
	}
	if count > 0 {
		return true, nil
	}
	if err := l.db.WithContext(ctx).
		Model(&models.ClaimRecord{}).
		Where("claim_signature = ?", signature).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("signature lookup %s: %w", signature, err)
	}
	if count > 0 {
		return true, nil
	}
	if err := l.db.WithContext(ctx).
		Model(&models.RoundOutcome{}).
		Where("settle_signature = ?", signature).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("signature lookup %s: %w", signature, err)
	}
	return count > 0, nil
}
