package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
// Переходы статусов управляются извне (админом), ядро их только валидирует.
type TournamentStatus string

const (
	StatusUpcoming            TournamentStatus = "upcoming"
	StatusActive              TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

// Tournament представляет командный шахматный турнир.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Description  *string          `json:"description,omitempty" db:"description"`
	StartDate    time.Time        `json:"start_date" db:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	TotalRounds  int              `json:"total_rounds" db:"total_rounds"`
	BoardsCount  int              `json:"boards_count" db:"boards_count"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
