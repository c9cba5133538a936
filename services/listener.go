package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bellapacxx/roulette-backend/events"
	"github.com/bellapacxx/roulette-backend/models"
	"github.com/bellapacxx/roulette-backend/store"
	"github.com/bellapacxx/roulette-backend/utils/logger"
)

// TxLogs is one confirmed transaction's execution trace as delivered
// by the chain-log collaborator. Delivery is at-least-once and not
// causally ordered across transactions.
type TxLogs struct {
	Signature string
	Err       error
	Logs      []string
	Slot      uint64
}

// Listener drives decode → dedup → persist → settle → publish for
// each inbound batch. Batches for different transactions run in
// parallel; the in-flight signature set is the only lock, with the
// ledger's own upsert keys as the durable backstop.
type Listener struct {
	ledger  store.Ledger
	decoder *events.Decoder
	settler *Settler
	pub     Publisher

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewListener(ledger store.Ledger, decoder *events.Decoder, settler *Settler, pub Publisher) *Listener {
	return &Listener{
		ledger:   ledger,
		decoder:  decoder,
		settler:  settler,
		pub:      pub,
		inflight: make(map[string]struct{}),
	}
}

// Run consumes batches until the channel closes or ctx is done. One
// goroutine per batch; a bad batch never stops the stream.
func (l *Listener) Run(ctx context.Context, batches <-chan TxLogs) {
	logger.Infof("[Listener] started")
	for {
		select {
		case <-ctx.Done():
			logger.Infof("[Listener] stopped: %v", ctx.Err())
			return
		case batch, ok := <-batches:
			if !ok {
				logger.Infof("[Listener] log stream closed")
				return
			}
			go l.Process(ctx, batch)
		}
	}
}

func (l *Listener) acquire(signature string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inflight[signature]; busy {
		return false
	}
	l.inflight[signature] = struct{}{}
	return true
}

func (l *Listener) release(signature string) {
	l.mu.Lock()
	delete(l.inflight, signature)
	l.mu.Unlock()
}

// Process handles one transaction's log batch end to end.
func (l *Listener) Process(ctx context.Context, batch TxLogs) {
	if batch.Err != nil {
		logger.Warnf("[Listener] %s delivered with error, skipping: %v", batch.Signature, batch.Err)
		return
	}

	if !l.acquire(batch.Signature) {
		logger.Debugf("[Listener] %s already in flight, skipping", batch.Signature)
		return
	}
	defer l.release(batch.Signature)

	processed, err := l.ledger.SignatureProcessed(ctx, batch.Signature)
	if err != nil {
		logger.Errorf("[Listener] %s dedup lookup failed: %v", batch.Signature, err)
	} else if processed {
		logger.Debugf("[Listener] %s already processed, skipping", batch.Signature)
		return
	}

	// A transaction should not carry two events of the same kind, but
	// redelivered or malformed traces might; keep the first of each.
	seen := make(map[string]bool)
	for _, ev := range l.decoder.DecodeLogs(batch.Signature, batch.Logs) {
		if seen[ev.Name] {
			logger.Warnf("[Listener] %s carries duplicate %s event, ignoring extra", batch.Signature, ev.Name)
			continue
		}
		seen[ev.Name] = true
		l.dispatch(ctx, batch, ev)
	}
}

func (l *Listener) dispatch(ctx context.Context, batch TxLogs, ev events.Event) {
	switch data := ev.Data.(type) {
	case *events.BetsPlacedEvent:
		l.handleBetsPlaced(ctx, batch, data)

	case *events.RoundStartedEvent:
		logger.Infof("[Listener] round %d started", data.Round)
		l.publish(TopicRoundStarted, map[string]interface{}{
			"round":     data.Round,
			"startTime": data.StartTime,
		})

	case *events.BetsClosedEvent:
		logger.Infof("[Listener] round %d bets closed", data.Round)
		l.publish(TopicBetsClosed, map[string]interface{}{
			"round":     data.Round,
			"timestamp": data.Timestamp,
		})

	case *events.RandomGeneratedEvent:
		if _, err := l.settler.Settle(ctx, data, batch.Signature); err != nil {
			logger.Errorf("[Listener] %s settle round %d failed: %v", batch.Signature, data.Round, err)
		}

	case *events.WinningsClaimedEvent:
		l.handleWinningsClaimed(ctx, batch, data)

	default:
		logger.Debugf("[Listener] %s: ignoring %s event", batch.Signature, ev.Name)
	}
}

func (l *Listener) handleBetsPlaced(ctx context.Context, batch TxLogs, ev *events.BetsPlacedEvent) {
	saved := make([]models.Bet, 0, len(ev.Bets))
	for _, placed := range ev.Bets {
		bet := models.Bet{
			Player:    ev.Player,
			Round:     ev.Round,
			TokenMint: ev.TokenMint,
			Amount:    strconv.FormatUint(placed.Amount, 10),
			BetType:   int(placed.Kind),
			Numbers:   placed.Numbers,
			Timestamp: time.Unix(ev.Timestamp, 0).UTC(),
			Signature: batch.Signature,
		}
		created, err := l.ledger.RecordBet(ctx, &bet)
		if err != nil {
			// one failed bet must not drop its siblings
			logger.Errorf("[Listener] %s: saving bet failed: %v", batch.Signature, err)
			continue
		}
		if created {
			saved = append(saved, bet)
		}
	}

	if len(saved) > 0 {
		logger.Infof("[Listener] %s: saved %d bet(s) for round %d", batch.Signature, len(saved), ev.Round)
		l.publish(TopicNewBets, map[string]interface{}{
			"signature": batch.Signature,
			"slot":      batch.Slot,
			"player":    ev.Player,
			"tokenMint": ev.TokenMint,
			"round":     ev.Round,
			"bets":      saved,
		})
	} else {
		logger.Debugf("[Listener] %s: all bets already stored", batch.Signature)
	}
}

func (l *Listener) handleWinningsClaimed(ctx context.Context, batch TxLogs, ev *events.WinningsClaimedEvent) {
	claim := models.ClaimRecord{
		Player:         ev.Player,
		Round:          ev.Round,
		ClaimSignature: batch.Signature,
		ClaimedAt:      time.Unix(ev.Timestamp, 0).UTC(),
	}
	created, err := l.ledger.RecordClaim(ctx, &claim)
	if err != nil {
		logger.Errorf("[Listener] %s: saving claim failed: %v", batch.Signature, err)
		return
	}
	if !created {
		logger.Debugf("[Listener] %s: claim for %s/%d already stored", batch.Signature, ev.Player, ev.Round)
		return
	}

	logger.Infof("[Listener] %s: claim recorded for %s round %d", batch.Signature, ev.Player, ev.Round)
	l.publish(TopicWinningsClaimed, map[string]interface{}{
		"signature": batch.Signature,
		"player":    ev.Player,
		"tokenMint": ev.TokenMint,
		"round":     ev.Round,
		"amount":    strconv.FormatUint(ev.Amount, 10),
	})
}

func (l *Listener) publish(topic string, payload interface{}) {
	if l.pub != nil {
		l.pub.Broadcast(topic, payload)
	}
}
