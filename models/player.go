package models

import "time"

const (
	MinRating = 0
	MaxRating = 3000
)

// Player — участник, принадлежащий ровно одной команде.
// Position — место в составе по силе (1 — первая доска); стартовая
// четверка определяется первыми BoardsCount позициями.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Rating    int       `json:"rating" db:"rating"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
