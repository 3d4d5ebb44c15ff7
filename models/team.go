package models

import "time"

// Размер состава команды. Проверяется при редактировании состава,
// а не при подсчете очков.
const (
	MinRosterSize = 4
	MaxRosterSize = 6
)

type Team struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Состав, отсортированный по position (не мапится напрямую).
	// Очки команды (match points, game points, тай-брейки) НЕ хранятся:
	// они всегда выводятся из истории матчей, см. пакет standings.
	Players []Player `json:"players,omitempty" db:"-"`
}
