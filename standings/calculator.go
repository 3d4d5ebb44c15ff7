package standings

import (
	"sort"

	"github.com/Dosada05/chess-league/models"
)

// Чистая математика таблицы. Никаких обращений к БД: на входе команды и
// матчи с загруженными досками, на выходе отсортированные строки таблицы.
// Все очки аккумулируются в полуочках (целых), чтобы сравнения были
// точными; наружу отдаются привычные float64, кратные 0.5.

type matchOutcome int

const (
	outcomeLoss matchOutcome = iota
	outcomeDraw
	outcomeWin
)

type teamTally struct {
	team           *models.Team
	played         int
	wins           int
	draws          int
	losses         int
	gamePointsHalf int
	// По одному элементу на сыгранный матч, для второго прохода.
	opponents []opponentResult
}

type opponentResult struct {
	teamID  int
	outcome matchOutcome
}

// ComputeTeamStandings ранжирует команды каскадом тай-брейков:
// match points → Sonneborn-Berger → game points → Buchholz → wins → имя.
// Учитываются только завершенные матчи (все доски с результатом).
// Порядок тотальный: имена команд уникальны, поэтому две разные команды
// никогда не сравниваются равными на всех шести уровнях.
func ComputeTeamStandings(teams []models.Team, matches []models.Match) []models.TeamStanding {
	tallies := make(map[int]*teamTally, len(teams))
	for i := range teams {
		tallies[teams[i].ID] = &teamTally{team: &teams[i]}
	}

	// Первый проход: результаты матчей, match points, game points.
	for i := range matches {
		m := &matches[i]
		if !m.Completed() {
			continue
		}
		white := tallies[m.WhiteTeamID]
		black := tallies[m.BlackTeamID]
		if white == nil || black == nil {
			continue
		}

		whiteHalf, blackHalf := 0, 0
		for _, g := range m.Games {
			whiteHalf += g.Result.WhiteHalfPoints()
			blackHalf += g.Result.BlackHalfPoints()
		}

		white.played++
		black.played++
		white.gamePointsHalf += whiteHalf
		black.gamePointsHalf += blackHalf

		switch {
		case whiteHalf > blackHalf:
			white.wins++
			black.losses++
			white.opponents = append(white.opponents, opponentResult{black.team.ID, outcomeWin})
			black.opponents = append(black.opponents, opponentResult{white.team.ID, outcomeLoss})
		case blackHalf > whiteHalf:
			black.wins++
			white.losses++
			black.opponents = append(black.opponents, opponentResult{white.team.ID, outcomeWin})
			white.opponents = append(white.opponents, opponentResult{black.team.ID, outcomeLoss})
		default:
			white.draws++
			black.draws++
			white.opponents = append(white.opponents, opponentResult{black.team.ID, outcomeDraw})
			black.opponents = append(black.opponents, opponentResult{white.team.ID, outcomeDraw})
		}
	}

	matchPoints := func(t *teamTally) int { return 2*t.wins + t.draws }

	// Второй проход: тай-брейки считаются по уже финальным match points
	// соперников, а не по промежуточным значениям первого прохода.
	type rankedRow struct {
		tally       *teamTally
		matchPoints int
		sbHalf      int
		buchholz    int
	}
	rows := make([]rankedRow, 0, len(teams))
	for i := range teams {
		t := tallies[teams[i].ID]
		row := rankedRow{tally: t, matchPoints: matchPoints(t)}
		for _, opp := range t.opponents {
			oppTally, ok := tallies[opp.teamID]
			if !ok {
				continue
			}
			oppMP := matchPoints(oppTally)
			row.buchholz += oppMP
			switch opp.outcome {
			case outcomeWin:
				row.sbHalf += 2 * oppMP
			case outcomeDraw:
				row.sbHalf += oppMP
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.matchPoints != b.matchPoints {
			return a.matchPoints > b.matchPoints
		}
		if a.sbHalf != b.sbHalf {
			return a.sbHalf > b.sbHalf
		}
		if a.tally.gamePointsHalf != b.tally.gamePointsHalf {
			return a.tally.gamePointsHalf > b.tally.gamePointsHalf
		}
		if a.buchholz != b.buchholz {
			return a.buchholz > b.buchholz
		}
		if a.tally.wins != b.tally.wins {
			return a.tally.wins > b.tally.wins
		}
		return a.tally.team.Name < b.tally.team.Name
	})

	result := make([]models.TeamStanding, len(rows))
	for i, row := range rows {
		t := row.tally
		result[i] = models.TeamStanding{
			Rank:            i + 1,
			TeamID:          t.team.ID,
			TeamName:        t.team.Name,
			MatchesPlayed:   t.played,
			Wins:            t.wins,
			Draws:           t.draws,
			Losses:          t.losses,
			MatchPoints:     row.matchPoints,
			GamePoints:      float64(t.gamePointsHalf) / 2,
			SonnebornBerger: float64(row.sbHalf) / 2,
			Buchholz:        row.buchholz,
		}
	}
	return result
}

type playerTally struct {
	player     *models.Player
	teamName   string
	games      int
	wins       int
	draws      int
	losses     int
	pointsHalf int
}

// ComputePlayerRankings агрегирует индивидуальные результаты по всем доскам
// турнира. Сортировка: очки → победы → рейтинг → имя → id (детерминирована).
func ComputePlayerRankings(players []models.Player, matches []models.Match) []models.PlayerRanking {
	teamNames := make(map[int]string)
	tallies := make(map[int]*playerTally, len(players))
	for i := range players {
		p := &players[i]
		name := ""
		if p.Team != nil {
			name = p.Team.Name
			teamNames[p.Team.ID] = p.Team.Name
		} else if n, ok := teamNames[p.TeamID]; ok {
			name = n
		}
		tallies[p.ID] = &playerTally{player: p, teamName: name}
	}

	for i := range matches {
		for _, g := range matches[i].Games {
			if !g.Result.IsDecided() {
				continue
			}
			if w, ok := tallies[g.WhitePlayerID]; ok {
				w.addGame(g.Result.WhiteHalfPoints())
			}
			if b, ok := tallies[g.BlackPlayerID]; ok {
				b.addGame(g.Result.BlackHalfPoints())
			}
		}
	}

	rows := make([]*playerTally, 0, len(players))
	for i := range players {
		rows = append(rows, tallies[players[i].ID])
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.pointsHalf != b.pointsHalf {
			return a.pointsHalf > b.pointsHalf
		}
		if a.wins != b.wins {
			return a.wins > b.wins
		}
		if a.player.Rating != b.player.Rating {
			return a.player.Rating > b.player.Rating
		}
		if a.player.Name != b.player.Name {
			return a.player.Name < b.player.Name
		}
		return a.player.ID < b.player.ID
	})

	result := make([]models.PlayerRanking, len(rows))
	for i, t := range rows {
		result[i] = models.PlayerRanking{
			Rank:          i + 1,
			PlayerID:      t.player.ID,
			PlayerName:    t.player.Name,
			TeamID:        t.player.TeamID,
			TeamName:      t.teamName,
			Rating:        t.player.Rating,
			GamesPlayed:   t.games,
			Wins:          t.wins,
			Draws:         t.draws,
			Losses:        t.losses,
			Points:        float64(t.pointsHalf) / 2,
			WinPercentage: winPercentage(t.pointsHalf, t.games),
		}
	}
	return result
}

func (t *playerTally) addGame(half int) {
	t.games++
	t.pointsHalf += half
	switch half {
	case 2:
		t.wins++
	case 1:
		t.draws++
	default:
		t.losses++
	}
}

// winPercentage возвращает 0 для игрока без партий (никаких NaN).
func winPercentage(pointsHalf, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(pointsHalf) / float64(2*games) * 100
}
