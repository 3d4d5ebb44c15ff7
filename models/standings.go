package models

// TeamStanding — строка турнирной таблицы. Все поля производные:
// вычисляются пакетом standings из завершенных матчей и нигде не хранятся.
type TeamStanding struct {
	Rank            int     `json:"rank"`
	TeamID          int     `json:"team_id"`
	TeamName        string  `json:"team_name"`
	MatchesPlayed   int     `json:"matches_played"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	Losses          int     `json:"losses"`
	MatchPoints     int     `json:"match_points"`
	GamePoints      float64 `json:"game_points"`
	SonnebornBerger float64 `json:"sonneborn_berger"`
	Buchholz        int     `json:"buchholz"`
}

// PlayerRanking — строка индивидуального зачета, агрегат по всем доскам
// турнира, где игрок сидел за белых или черных.
type PlayerRanking struct {
	Rank          int     `json:"rank"`
	PlayerID      int     `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	TeamID        int     `json:"team_id"`
	TeamName      string  `json:"team_name"`
	Rating        int     `json:"rating"`
	GamesPlayed   int     `json:"games_played"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	Points        float64 `json:"points"`
	WinPercentage float64 `json:"win_percentage"`
}
