package services

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/bellapacxx/roulette-backend/events"
	"github.com/bellapacxx/roulette-backend/game"
	"github.com/bellapacxx/roulette-backend/store"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire helpers matching the decoder's schema v1 layout

func addr(seed byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed
	}
	return base58.Encode(raw)
}

func appendPubkey(t *testing.T, buf []byte, address string) []byte {
	t.Helper()
	raw, err := base58.Decode(address)
	require.NoError(t, err)
	return append(buf, raw...)
}

func dataLine(name string, body []byte) string {
	tag := events.Discriminator(name)
	return "Program data: " + base64.StdEncoding.EncodeToString(append(tag[:], body...))
}

type wireBet struct {
	amount  uint64
	kind    game.BetKind
	numbers [4]uint8
}

func betsPlacedLine(t *testing.T, player, mint string, round uint64, ts int64, bets ...wireBet) string {
	var body []byte
	body = appendPubkey(t, body, player)
	body = appendPubkey(t, body, mint)
	body = binary.LittleEndian.AppendUint64(body, round)
	body = binary.LittleEndian.AppendUint64(body, uint64(ts))
	body = binary.LittleEndian.AppendUint32(body, uint32(len(bets)))
	for _, b := range bets {
		body = binary.LittleEndian.AppendUint64(body, b.amount)
		body = append(body, uint8(b.kind))
		body = append(body, b.numbers[:]...)
	}
	return dataLine(events.BetsPlacedName, body)
}

func randomGeneratedLine(round uint64, winning uint8, ts int64) string {
	var body []byte
	body = binary.LittleEndian.AppendUint64(body, round)
	body = append(body, winning)
	body = binary.LittleEndian.AppendUint64(body, uint64(ts))
	return dataLine(events.RandomGeneratedName, body)
}

func winningsClaimedLine(t *testing.T, player, mint string, round, amount uint64, ts int64) string {
	var body []byte
	body = appendPubkey(t, body, player)
	body = appendPubkey(t, body, mint)
	body = binary.LittleEndian.AppendUint64(body, round)
	body = binary.LittleEndian.AppendUint64(body, amount)
	body = binary.LittleEndian.AppendUint64(body, uint64(ts))
	return dataLine(events.WinningsClaimedName, body)
}

func newTestListener(ledger store.Ledger, pub Publisher) *Listener {
	dec := events.NewDecoder()
	return NewListener(ledger, dec, NewSettler(ledger, pub), pub)
}

func pad(numbers ...uint8) [4]uint8 {
	out := [4]uint8{255, 255, 255, 255}
	copy(out[:], numbers)
	return out
}

func TestProcess_BetsPlaced(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	pub := &fakePublisher{}
	listener := newTestListener(ledger, pub)

	player := addr(1)
	listener.Process(ctx, TxLogs{
		Signature: "sig-1",
		Slot:      100,
		Logs: []string{
			"Program log: Instruction: PlaceBets",
			betsPlacedLine(t, player, addr(2), 7, 1700000000,
				wireBet{amount: 1000000, kind: game.Straight, numbers: pad(17)},
				wireBet{amount: 500000, kind: game.Red, numbers: pad()},
			),
		},
	})

	bets, err := ledger.BetsByRound(ctx, 7)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, player, bets[0].Player)
	assert.Equal(t, "1000000", bets[0].Amount)
	assert.Equal(t, []int{17}, bets[0].Numbers)
	assert.Equal(t, int(game.Red), bets[1].BetType)

	assert.Len(t, pub.byTopic(TopicNewBets), 1)
}

func TestProcess_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	pub := &fakePublisher{}
	listener := newTestListener(ledger, pub)

	batch := TxLogs{
		Signature: "sig-dup",
		Logs: []string{
			betsPlacedLine(t, addr(1), addr(2), 3, 1700000000,
				wireBet{amount: 1000000, kind: game.Straight, numbers: pad(5)}),
		},
	}
	listener.Process(ctx, batch)
	listener.Process(ctx, batch)

	bets, err := ledger.BetsByRound(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, bets, 1, "redelivery is a no-op")
	assert.Len(t, pub.byTopic(TopicNewBets), 1)
}

func TestProcess_ConcurrentDuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	listener := newTestListener(ledger, &fakePublisher{})

	batch := TxLogs{
		Signature: "sig-race",
		Logs: []string{
			betsPlacedLine(t, addr(1), addr(2), 4, 1700000000,
				wireBet{amount: 1000000, kind: game.Straight, numbers: pad(9)}),
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listener.Process(ctx, batch)
		}()
	}
	wg.Wait()

	bets, err := ledger.BetsByRound(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, bets, 1, "exactly one bet record survives concurrent duplicates")
}

func TestProcess_SettlesOnRandomGenerated(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	pub := &fakePublisher{}
	listener := newTestListener(ledger, pub)

	listener.Process(ctx, TxLogs{
		Signature: "sig-bet",
		Logs: []string{
			betsPlacedLine(t, addr(1), addr(2), 9, 1700000000,
				wireBet{amount: 1000000, kind: game.Straight, numbers: pad(17)}),
		},
	})
	listener.Process(ctx, TxLogs{
		Signature: "sig-random",
		Logs:      []string{randomGeneratedLine(9, 17, 1700000100)},
	})

	outcome, err := ledger.OutcomeByRound(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 17, outcome.WinningNumber)
	assert.Equal(t, "36000000", outcome.PayoutFor(addr(1)))
	assert.Len(t, pub.byTopic(TopicWinningsCalculated), 1)
}

func TestProcess_ClaimRecorded(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	pub := &fakePublisher{}
	listener := newTestListener(ledger, pub)

	player := addr(3)
	listener.Process(ctx, TxLogs{
		Signature: "sig-claim",
		Logs:      []string{winningsClaimedLine(t, player, addr(2), 9, 36000000, 1700000200)},
	})

	has, err := ledger.HasClaim(ctx, player, 9)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Len(t, pub.byTopic(TopicWinningsClaimed), 1)

	// second claim transaction for the same (player, round)
	listener.Process(ctx, TxLogs{
		Signature: "sig-claim-2",
		Logs:      []string{winningsClaimedLine(t, player, addr(2), 9, 36000000, 1700000300)},
	})
	assert.Len(t, pub.byTopic(TopicWinningsClaimed), 1, "collapsed claim is not re-announced")
}

func TestProcess_BadLineDoesNotStopBatch(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	listener := newTestListener(ledger, &fakePublisher{})

	listener.Process(ctx, TxLogs{
		Signature: "sig-mixed",
		Logs: []string{
			"Program data: %%%garbage%%%",
			betsPlacedLine(t, addr(1), addr(2), 11, 1700000000,
				wireBet{amount: 1000000, kind: game.Odd, numbers: pad()}),
		},
	})

	bets, err := ledger.BetsByRound(ctx, 11)
	require.NoError(t, err)
	assert.Len(t, bets, 1)
}

func TestProcess_DuplicateEventKindInBatch(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	listener := newTestListener(ledger, &fakePublisher{})

	// a transaction should never carry two BetsPlaced, but defend anyway
	line := betsPlacedLine(t, addr(1), addr(2), 12, 1700000000,
		wireBet{amount: 1000000, kind: game.Straight, numbers: pad(1)})
	listener.Process(ctx, TxLogs{
		Signature: "sig-twice",
		Logs:      []string{line, line},
	})

	bets, err := ledger.BetsByRound(ctx, 12)
	require.NoError(t, err)
	assert.Len(t, bets, 1)
}

func TestProcess_DeliveryError(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewMemoryLedger()
	listener := newTestListener(ledger, &fakePublisher{})

	listener.Process(ctx, TxLogs{
		Signature: "sig-err",
		Err:       assert.AnError,
		Logs: []string{
			betsPlacedLine(t, addr(1), addr(2), 13, 1700000000,
				wireBet{amount: 1000000, kind: game.Straight, numbers: pad(1)}),
		},
	})

	bets, err := ledger.BetsByRound(ctx, 13)
	require.NoError(t, err)
	assert.Empty(t, bets, "failed transactions are not indexed")
}
