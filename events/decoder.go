package events

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/bellapacxx/roulette-backend/game"
	"github.com/bellapacxx/roulette-backend/utils/logger"

	"github.com/mr-tron/base58"
)

// Only lines with this prefix carry event data; everything else in
// the trace (invoke logs, compute budget, CPI noise) is ignored.
const logDataPrefix = "Program data: "

// Each bet carries a fixed four-slot number array on chain; unused
// slots are padded past the board and filtered out on decode.
const betNumberSlots = 4

var errShortPayload = errors.New("events: payload truncated")

// Decoder turns raw log lines into typed events against one schema
// version. Discriminators are the anchor convention
// sha256("event:<Name>")[:8], computed at startup so the registry can
// never drift from the names it decodes.
type Decoder struct {
	schemaVersion int
	registry      map[[8]byte]func(*byteReader) (*Event, error)
}

// NewDecoder builds a schema v1 decoder over the closed event set.
func NewDecoder() *Decoder {
	d := &Decoder{
		schemaVersion: 1,
		registry:      make(map[[8]byte]func(*byteReader) (*Event, error)),
	}
	d.register(BetsPlacedName, decodeBetsPlaced)
	d.register(RoundStartedName, decodeRoundStarted)
	d.register(BetsClosedName, decodeBetsClosed)
	d.register(RandomGeneratedName, decodeRandomGenerated)
	d.register(WinningsClaimedName, decodeWinningsClaimed)
	return d
}

func (d *Decoder) register(name string, fn func(*byteReader) (*Event, error)) {
	d.registry[Discriminator(name)] = fn
}

// SchemaVersion reports which event schema this decoder speaks.
func (d *Decoder) SchemaVersion() int { return d.schemaVersion }

// Discriminator derives the 8-byte event tag for a given event name.
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("event:" + name))
	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}

// DecodeLogs scans one transaction's ordered log lines and returns
// every recognized event, in log order. Lines that fail to decode are
// logged and skipped; unknown discriminators are silently ignored.
func (d *Decoder) DecodeLogs(signature string, logs []string) []Event {
	var out []Event
	for _, line := range logs {
		if !strings.HasPrefix(line, logDataPrefix) {
			continue
		}
		ev, err := d.decodeLine(strings.TrimPrefix(line, logDataPrefix))
		if err != nil {
			logger.Warnf("[Decoder] skipping bad log line in %s: %v", signature, err)
			continue
		}
		if ev != nil {
			out = append(out, *ev)
		}
	}
	return out
}

func (d *Decoder) decodeLine(encoded string) (*Event, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	if len(raw) < 8 {
		return nil, errShortPayload
	}
	var tag [8]byte
	copy(tag[:], raw[:8])
	fn, ok := d.registry[tag]
	if !ok {
		// not one of ours
		return nil, nil
	}
	return fn(&byteReader{buf: raw[8:]})
}

func decodeBetsPlaced(r *byteReader) (*Event, error) {
	ev := &BetsPlacedEvent{}
	var err error
	if ev.Player, err = r.pubkey(); err != nil {
		return nil, err
	}
	if ev.TokenMint, err = r.pubkey(); err != nil {
		return nil, err
	}
	if ev.Round, err = r.u64(); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = r.i64(); err != nil {
		return nil, err
	}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		bet, err := decodePlacedBet(r)
		if err != nil {
			return nil, err
		}
		ev.Bets = append(ev.Bets, bet)
	}
	return &Event{Name: BetsPlacedName, Data: ev}, nil
}

func decodePlacedBet(r *byteReader) (PlacedBet, error) {
	var bet PlacedBet
	amount, err := r.u64()
	if err != nil {
		return bet, err
	}
	kind, err := r.u8()
	if err != nil {
		return bet, err
	}
	bet.Amount = amount
	bet.Kind = game.BetKind(kind)
	for i := 0; i < betNumberSlots; i++ {
		n, err := r.u8()
		if err != nil {
			return bet, err
		}
		if n <= 36 {
			bet.Numbers = append(bet.Numbers, int(n))
		}
	}
	return bet, nil
}

func decodeRoundStarted(r *byteReader) (*Event, error) {
	ev := &RoundStartedEvent{}
	var err error
	if ev.Round, err = r.u64(); err != nil {
		return nil, err
	}
	if ev.StartTime, err = r.i64(); err != nil {
		return nil, err
	}
	return &Event{Name: RoundStartedName, Data: ev}, nil
}

func decodeBetsClosed(r *byteReader) (*Event, error) {
	ev := &BetsClosedEvent{}
	var err error
	if ev.Round, err = r.u64(); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = r.i64(); err != nil {
		return nil, err
	}
	return &Event{Name: BetsClosedName, Data: ev}, nil
}

func decodeRandomGenerated(r *byteReader) (*Event, error) {
	ev := &RandomGeneratedEvent{}
	round, err := r.u64()
	if err != nil {
		return nil, err
	}
	winning, err := r.u8()
	if err != nil {
		return nil, err
	}
	ts, err := r.i64()
	if err != nil {
		return nil, err
	}
	ev.Round = round
	ev.WinningNumber = int(winning)
	ev.Timestamp = ts
	return &Event{Name: RandomGeneratedName, Data: ev}, nil
}

func decodeWinningsClaimed(r *byteReader) (*Event, error) {
	ev := &WinningsClaimedEvent{}
	var err error
	if ev.Player, err = r.pubkey(); err != nil {
		return nil, err
	}
	if ev.TokenMint, err = r.pubkey(); err != nil {
		return nil, err
	}
	if ev.Round, err = r.u64(); err != nil {
		return nil, err
	}
	if ev.Amount, err = r.u64(); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = r.i64(); err != nil {
		return nil, err
	}
	return &Event{Name: WinningsClaimedName, Data: ev}, nil
}

// byteReader walks a little-endian payload.
type byteReader struct {
	buf []byte
	off int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, errShortPayload
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *byteReader) pubkey() (string, error) {
	b, err := r.take(32)
	if err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}
