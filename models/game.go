package models

import "time"

// Game — одна доска командного матча. BoardNumber уникален внутри матча;
// игрок может занимать не более одной доски матча (проверяется сервисом
// замен). WhitePlayerID всегда из белой команды матча, BlackPlayerID —
// из черной.
type Game struct {
	ID            int        `json:"id" db:"id"`
	MatchID       int        `json:"match_id" db:"match_id"`
	BoardNumber   int        `json:"board_number" db:"board_number"`
	WhitePlayerID int        `json:"white_player_id" db:"white_player_id"`
	BlackPlayerID int        `json:"black_player_id" db:"black_player_id"`
	Result        GameResult `json:"result" db:"result"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
