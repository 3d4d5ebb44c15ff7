package models

import "time"

// SwapRecord — запись аудита замены игроков на доске. История замен
// только дописывается и никогда не переписывается.
type SwapRecord struct {
	ID            int       `json:"id" db:"id"`
	MatchID       int       `json:"match_id" db:"match_id"`
	GameID        int       `json:"game_id" db:"game_id"`
	BoardNumber   int       `json:"board_number" db:"board_number"`
	OldWhiteID    int       `json:"old_white_player_id" db:"old_white_player_id"`
	NewWhiteID    int       `json:"new_white_player_id" db:"new_white_player_id"`
	OldBlackID    int       `json:"old_black_player_id" db:"old_black_player_id"`
	NewBlackID    int       `json:"new_black_player_id" db:"new_black_player_id"`
	Reason        *string   `json:"reason,omitempty" db:"reason"`
	ActorUserID   int       `json:"actor_user_id" db:"actor_user_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
