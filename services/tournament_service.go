package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	TotalRounds int        `json:"total_rounds"`
	BoardsCount int        `json:"boards_count"`
}

// PairingInput — одна пара тура, заданная снаружи. Генерация жеребьевки
// не входит в ядро: создатель турнира присылает готовые пары.
type PairingInput struct {
	RoundNumber   int       `json:"round_number"`
	WhiteTeamID   int       `json:"white_team_id"`
	BlackTeamID   int       `json:"black_team_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	ScheduleMatches(ctx context.Context, tournamentID int, pairings []PairingInput) ([]*models.Match, error)
	Delete(ctx context.Context, id int) error
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.TotalRounds < 1 {
		return nil, ErrTournamentInvalidRounds
	}
	if input.BoardsCount < 1 {
		return nil, ErrTournamentInvalidBoards
	}
	if input.EndDate != nil && !input.StartDate.Before(*input.EndDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	tournament := &models.Tournament{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      models.StatusUpcoming,
		TotalRounds: input.TotalRounds,
		BoardsCount: input.BoardsCount,
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("tournament created", slog.Int("id", tournament.ID), slog.String("name", tournament.Name))
	}
	return tournament, nil
}

// GetByID возвращает турнир вместе с командами и матчами (с досками).
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, id)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams of tournament %d: %w", id, err)
	}
	tournament.Teams = make([]models.Team, len(teams))
	for i, t := range teams {
		tournament.Teams[i] = *t
	}

	matches, err := s.matchRepo.ListByTournament(ctx, id, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of tournament %d: %w", id, err)
	}
	games, err := s.gameRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of tournament %d: %w", id, err)
	}
	gamesByMatch := make(map[int][]models.Game)
	for _, g := range games {
		gamesByMatch[g.MatchID] = append(gamesByMatch[g.MatchID], *g)
	}
	tournament.Matches = make([]models.Match, len(matches))
	for i, m := range matches {
		tournament.Matches[i] = *m
		tournament.Matches[i].Games = gamesByMatch[m.ID]
	}

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// UpdateStatus валидирует переход по таблице upcoming → active → completed.
// Сами переходы инициируются извне (админом), ядро их не вычисляет.
func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	switch status {
	case models.StatusUpcoming, models.StatusActive, models.TournamentStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, status)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, id)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	if !isValidStatusTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	tournament.Status = status
	return tournament, nil
}

// ScheduleMatches создает матчи туров по готовым парам. Доски заполняются
// по позициям составов: на досках 1..N сидят первые N игроков каждой
// команды. Все матчи пакета создаются одной транзакцией.
func (s *tournamentService) ScheduleMatches(ctx context.Context, tournamentID int, pairings []PairingInput) ([]*models.Match, error) {
	if len(pairings) == 0 {
		return nil, fmt.Errorf("%w: no pairings provided", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams of tournament %d: %w", tournamentID, err)
	}
	teamIDs := make(map[int]bool, len(teams))
	for _, t := range teams {
		teamIDs[t.ID] = true
	}

	// Валидация всего пакета до первой записи.
	rosters := make(map[int][]*models.Player)
	for _, p := range pairings {
		if p.RoundNumber < 1 || p.RoundNumber > tournament.TotalRounds {
			return nil, fmt.Errorf("%w: round %d, tournament has %d rounds", ErrRoundOutOfRange, p.RoundNumber, tournament.TotalRounds)
		}
		if p.WhiteTeamID == p.BlackTeamID {
			return nil, fmt.Errorf("%w: team %d cannot play itself", ErrValidationFailed, p.WhiteTeamID)
		}
		for _, teamID := range []int{p.WhiteTeamID, p.BlackTeamID} {
			if !teamIDs[teamID] {
				return nil, fmt.Errorf("%w: team %d is not part of tournament %d", ErrTeamNotFound, teamID, tournamentID)
			}
			if _, loaded := rosters[teamID]; loaded {
				continue
			}
			roster, rosterErr := s.playerRepo.ListByTeam(ctx, teamID)
			if rosterErr != nil {
				return nil, fmt.Errorf("failed to load roster of team %d: %w", teamID, rosterErr)
			}
			if len(roster) < tournament.BoardsCount {
				return nil, fmt.Errorf("%w: team %d has %d players, %d boards required", ErrInvariantViolation, teamID, len(roster), tournament.BoardsCount)
			}
			rosters[teamID] = roster
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := make([]*models.Match, 0, len(pairings))
	for _, p := range pairings {
		match := &models.Match{
			TournamentID:  tournamentID,
			RoundNumber:   p.RoundNumber,
			WhiteTeamID:   p.WhiteTeamID,
			BlackTeamID:   p.BlackTeamID,
			ScheduledDate: p.ScheduledDate,
			Status:        models.StatusScheduled,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to create match for round %d: %w", p.RoundNumber, err)
		}

		whiteRoster := rosters[p.WhiteTeamID]
		blackRoster := rosters[p.BlackTeamID]
		for board := 1; board <= tournament.BoardsCount; board++ {
			game := &models.Game{
				MatchID:       match.ID,
				BoardNumber:   board,
				WhitePlayerID: whiteRoster[board-1].ID,
				BlackPlayerID: blackRoster[board-1].ID,
				Result:        models.ResultPending,
			}
			if err := s.gameRepo.Create(ctx, tx, game); err != nil {
				return nil, fmt.Errorf("failed to create board %d of match %d: %w", board, match.ID, err)
			}
			match.Games = append(match.Games, *game)
		}
		created = append(created, match)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit matches of tournament %d: %w", tournamentID, err)
	}
	if s.logger != nil {
		s.logger.Info("matches scheduled",
			slog.Int("tournament_id", tournamentID),
			slog.Int("matches", len(created)))
	}
	return created, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	err := s.tournamentRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, id)
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return nil
}
