package models

import "time"

type MatchStatus string

const (
	StatusScheduled      MatchStatus = "scheduled"
	StatusInProgress     MatchStatus = "in_progress"
	MatchStatusCompleted MatchStatus = "completed"
)

// Match — командный матч одного тура: WhiteTeam играет белыми на нечетных
// досках по традиции, но для подсчета очков важен только цвет внутри Game.
// WhiteScore/BlackScore — производные суммы по доскам, пересчитываются
// целиком при каждом изменении результата, никогда не инкрементируются.
type Match struct {
	ID            int         `json:"id" db:"id"`
	TournamentID  int         `json:"tournament_id" db:"tournament_id"`
	RoundNumber   int         `json:"round_number" db:"round_number"`
	WhiteTeamID   int         `json:"white_team_id" db:"white_team_id"`
	BlackTeamID   int         `json:"black_team_id" db:"black_team_id"`
	WhiteScore    float64     `json:"white_score" db:"white_score"`
	BlackScore    float64     `json:"black_score" db:"black_score"`
	ScheduledDate time.Time   `json:"scheduled_date" db:"scheduled_date"`
	Status        MatchStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	// Доски матча в порядке board_number (не мапятся напрямую).
	Games []Game `json:"games,omitempty" db:"-"`
}

// Completed reports whether every board of the match has a decided result.
func (m *Match) Completed() bool {
	if len(m.Games) == 0 {
		return false
	}
	for _, g := range m.Games {
		if !g.Result.IsDecided() {
			return false
		}
	}
	return true
}

// GameByBoard returns the game on the given board, or nil.
func (m *Match) GameByBoard(boardNumber int) *Game {
	for i := range m.Games {
		if m.Games[i].BoardNumber == boardNumber {
			return &m.Games[i]
		}
	}
	return nil
}

// GameByID returns the game with the given id, or nil.
func (m *Match) GameByID(gameID int) *Game {
	for i := range m.Games {
		if m.Games[i].ID == gameID {
			return &m.Games[i]
		}
	}
	return nil
}
