// Package game holds the roulette bet-kind table: payout multipliers
// and winning-number predicates for a single-zero wheel. The enum
// order and the table must stay identical to the on-chain program's,
// otherwise settlement drifts from what the contract pays.
package game

// BetKind is the closed on-chain bet enumeration (schema v1 order).
type BetKind int

const (
	Straight BetKind = iota
	Split
	Corner
	Street
	SixLine
	FirstFour
	Red
	Black
	Even
	Odd
	Manque
	Passe
	Column
	P12
	M12
	D12
)

var kindNames = map[BetKind]string{
	Straight:  "straight",
	Split:     "split",
	Corner:    "corner",
	Street:    "street",
	SixLine:   "sixline",
	FirstFour: "firstfour",
	Red:       "red",
	Black:     "black",
	Even:      "even",
	Odd:       "odd",
	Manque:    "manque",
	Passe:     "passe",
	Column:    "column",
	P12:       "p12",
	M12:       "m12",
	D12:       "d12",
}

func (k BetKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is part of the closed enumeration.
func (k BetKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Multiplier returns the payout multiplier for a winning bet of the
// given kind. Unknown kinds pay nothing.
func Multiplier(kind BetKind) int64 {
	switch kind {
	case Straight:
		return 36
	case Split:
		return 18
	case Street:
		return 12
	case Corner, FirstFour:
		return 9
	case SixLine:
		return 6
	case Column, P12, M12, D12:
		return 3
	case Red, Black, Even, Odd, Manque, Passe:
		return 2
	}
	return 0
}

// IsWinner reports whether a bet of the given kind and numbers wins
// against winning. Malformed kind/number combinations lose instead of
// erroring: historical chain data must never break settlement.
func IsWinner(kind BetKind, numbers []int, winning int) bool {
	if winning < 0 || winning > 36 {
		return false
	}

	switch kind {
	case Straight:
		return len(numbers) >= 1 && numbers[0] == winning

	case Split:
		return len(numbers) >= 2 && (numbers[0] == winning || numbers[1] == winning)

	case Corner:
		if len(numbers) < 1 {
			return false
		}
		n := numbers[0]
		// top-left corner start: first two columns only, on the board
		if n == 0 || n > 34 || n%3 == 0 {
			return false
		}
		return winning == n || winning == n+1 || winning == n+3 || winning == n+4

	case Street:
		if len(numbers) < 1 {
			return false
		}
		n := numbers[0]
		if n < 1 || n > 34 || (n-1)%3 != 0 {
			return false
		}
		return winning != 0 && winning >= n && winning < n+3

	case SixLine:
		if len(numbers) < 1 {
			return false
		}
		n := numbers[0]
		if n < 1 || n > 31 || (n-1)%3 != 0 {
			return false
		}
		return winning != 0 && winning >= n && winning < n+6

	case FirstFour:
		return winning <= 3

	case Red:
		return redNumbers[winning]

	case Black:
		return winning != 0 && !redNumbers[winning]

	case Even:
		return winning != 0 && winning%2 == 0

	case Odd:
		return winning%2 == 1

	case Manque:
		return winning >= 1 && winning <= 18

	case Passe:
		return winning >= 19 && winning <= 36

	case Column:
		if len(numbers) < 1 {
			return false
		}
		col := numbers[0]
		if col < 1 || col > 3 {
			return false
		}
		return winning != 0 && winning%3 == col%3

	case P12:
		return winning >= 1 && winning <= 12

	case M12:
		return winning >= 13 && winning <= 24

	case D12:
		return winning >= 25 && winning <= 36
	}

	return false
}
