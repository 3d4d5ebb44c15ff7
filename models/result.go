package models

import "fmt"

// GameResult — канонический результат одной доски. Внешние форматы
// ("1-0", "0-1", "1/2-1/2") переводятся в него ровно в одном месте.
type GameResult string

const (
	ResultPending  GameResult = ""
	ResultWhiteWin GameResult = "1-0"
	ResultBlackWin GameResult = "0-1"
	ResultDraw     GameResult = "1/2-1/2"
)

// ParseGameResult translates a wire result string into the canonical enum.
// Only the three decided outcomes are accepted; pending is never submitted.
func ParseGameResult(s string) (GameResult, error) {
	switch s {
	case string(ResultWhiteWin):
		return ResultWhiteWin, nil
	case string(ResultBlackWin):
		return ResultBlackWin, nil
	case string(ResultDraw):
		return ResultDraw, nil
	default:
		return ResultPending, fmt.Errorf("unknown game result %q", s)
	}
}

// IsDecided reports whether the board has a recorded outcome.
func (r GameResult) IsDecided() bool {
	return r == ResultWhiteWin || r == ResultBlackWin || r == ResultDraw
}

// WhiteHalfPoints returns white's score from this board in half-points
// (2 = win, 1 = draw, 0 = loss or pending). Half-point integers keep all
// score arithmetic exact.
func (r GameResult) WhiteHalfPoints() int {
	switch r {
	case ResultWhiteWin:
		return 2
	case ResultDraw:
		return 1
	default:
		return 0
	}
}

// BlackHalfPoints returns black's score from this board in half-points.
func (r GameResult) BlackHalfPoints() int {
	switch r {
	case ResultBlackWin:
		return 2
	case ResultDraw:
		return 1
	default:
		return 0
	}
}
