package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

// PlayerStats — индивидуальная статистика игрока по доскам его турнира.
// Перформанс считается упрощенно: средний рейтинг соперников плюс
// 400 × (победы − поражения) / партии.
type PlayerStats struct {
	Player            models.Player `json:"player"`
	GamesPlayed       int           `json:"games_played"`
	Wins              int           `json:"wins"`
	Draws             int           `json:"draws"`
	Losses            int           `json:"losses"`
	Points            float64       `json:"points"`
	WinPercentage     float64       `json:"win_percentage"`
	PerformanceRating int           `json:"performance_rating"`
}

type UpdatePlayerInput struct {
	Name   *string `json:"name,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

type PlayerService interface {
	Add(ctx context.Context, teamID int, input PlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	Update(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	Remove(ctx context.Context, id int) error
	SwapPositions(ctx context.Context, playerAID, playerBID int) error
	Stats(ctx context.Context, id int) (*PlayerStats, error)
}

type playerService struct {
	db         *sql.DB
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	gameRepo   repositories.GameRepository
	logger     *slog.Logger
}

func NewPlayerService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		db:         db,
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		gameRepo:   gameRepo,
		logger:     logger,
	}
}

// Add добавляет игрока в конец состава. Состав не может превысить шесть
// человек.
func (s *playerService) Add(ctx context.Context, teamID int, input PlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if input.Rating < models.MinRating || input.Rating > models.MaxRating {
		return nil, fmt.Errorf("%w: rating %d", ErrRatingOutOfRange, input.Rating)
	}

	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, teamID)
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}

	count, err := s.playerRepo.CountByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count roster of team %d: %w", teamID, err)
	}
	if count >= models.MaxRosterSize {
		return nil, ErrRosterFull
	}

	player := &models.Player{
		Name:     name,
		Rating:   input.Rating,
		TeamID:   teamID,
		Position: count + 1,
	}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNameConflict, name)
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to load player %d: %w", id, err)
	}
	return player, nil
}

func (s *playerService) Update(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
		}
		player.Name = name
	}
	if input.Rating != nil {
		if *input.Rating < models.MinRating || *input.Rating > models.MaxRating {
			return nil, fmt.Errorf("%w: rating %d", ErrRatingOutOfRange, *input.Rating)
		}
		player.Rating = *input.Rating
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNameConflict, player.Name)
		}
		return nil, fmt.Errorf("failed to update player %d: %w", id, err)
	}
	return player, nil
}

// Remove удаляет игрока и сдвигает позиции остальных, чтобы нумерация
// состава осталась плотной. Состав не может стать меньше четырех.
func (s *playerService) Remove(ctx context.Context, id int) error {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.playerRepo.CountByTeam(ctx, player.TeamID)
	if err != nil {
		return fmt.Errorf("failed to count roster of team %d: %w", player.TeamID, err)
	}
	if count <= models.MinRosterSize {
		return ErrRosterTooSmall
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.playerRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	if err := s.playerRepo.ShiftPositionsAfter(ctx, tx, player.TeamID, player.Position); err != nil {
		return fmt.Errorf("failed to shift roster positions of team %d: %w", player.TeamID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit removal of player %d: %w", id, err)
	}
	if s.logger != nil {
		s.logger.Info("player removed", slog.Int("id", id), slog.Int("team_id", player.TeamID))
	}
	return nil
}

// SwapPositions меняет двух игроков одной команды местами в составе.
func (s *playerService) SwapPositions(ctx context.Context, playerAID, playerBID int) error {
	if playerAID == playerBID {
		return fmt.Errorf("%w: same player on both sides", ErrValidationFailed)
	}

	playerA, err := s.GetByID(ctx, playerAID)
	if err != nil {
		return err
	}
	playerB, err := s.GetByID(ctx, playerBID)
	if err != nil {
		return err
	}
	if playerA.TeamID != playerB.TeamID {
		return fmt.Errorf("%w: players belong to different teams", ErrWrongTeam)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.playerRepo.UpdatePosition(ctx, tx, playerA.ID, playerB.Position); err != nil {
		return fmt.Errorf("failed to update position of player %d: %w", playerA.ID, err)
	}
	if err := s.playerRepo.UpdatePosition(ctx, tx, playerB.ID, playerA.Position); err != nil {
		return fmt.Errorf("failed to update position of player %d: %w", playerB.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit position swap: %w", err)
	}
	return nil
}

// Stats агрегирует результаты игрока по всем доскам турнира его команды.
// Игрок без партий получает нулевые проценты, а не деление на ноль.
func (s *playerService) Stats(ctx context.Context, id int) (*PlayerStats, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	team, err := s.teamRepo.GetByID(ctx, player.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %d: %w", player.TeamID, err)
	}

	games, err := s.gameRepo.ListByTournament(ctx, team.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of tournament %d: %w", team.TournamentID, err)
	}
	ratings, err := s.tournamentRatings(ctx, team.TournamentID)
	if err != nil {
		return nil, err
	}

	stats := &PlayerStats{Player: *player}
	pointsHalf := 0
	opponentRatingSum := 0
	for _, g := range games {
		if !g.Result.IsDecided() {
			continue
		}
		var half, opponentID int
		switch id {
		case g.WhitePlayerID:
			half = g.Result.WhiteHalfPoints()
			opponentID = g.BlackPlayerID
		case g.BlackPlayerID:
			half = g.Result.BlackHalfPoints()
			opponentID = g.WhitePlayerID
		default:
			continue
		}

		stats.GamesPlayed++
		pointsHalf += half
		opponentRatingSum += ratings[opponentID]
		switch half {
		case 2:
			stats.Wins++
		case 1:
			stats.Draws++
		default:
			stats.Losses++
		}
	}

	stats.Points = float64(pointsHalf) / 2
	if stats.GamesPlayed > 0 {
		stats.WinPercentage = float64(pointsHalf) / float64(2*stats.GamesPlayed) * 100
		avgOpponent := float64(opponentRatingSum) / float64(stats.GamesPlayed)
		stats.PerformanceRating = int(math.Round(avgOpponent + 400*float64(stats.Wins-stats.Losses)/float64(stats.GamesPlayed)))
	}
	return stats, nil
}

func (s *playerService) tournamentRatings(ctx context.Context, tournamentID int) (map[int]int, error) {
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of tournament %d: %w", tournamentID, err)
	}
	ratings := make(map[int]int, len(players))
	for _, p := range players {
		ratings[p.ID] = p.Rating
	}
	return ratings, nil
}
