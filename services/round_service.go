package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

// RoundSnapshot — полное состояние турнира для pull-обновления UI после
// любой мутации: матчи, таблица и индивидуальный зачет одним ответом.
type RoundSnapshot struct {
	Tournament     *models.Tournament     `json:"tournament"`
	Matches        []*models.Match        `json:"matches"`
	Standings      []models.TeamStanding  `json:"standings"`
	PlayerRankings []models.PlayerRanking `json:"player_rankings"`
}

// RoundService — тонкий координатор расписания туров.
type RoundService interface {
	RescheduleRound(ctx context.Context, tournamentID, roundNumber int, newDate time.Time) ([]*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	Refresh(ctx context.Context, tournamentID int) (*RoundSnapshot, error)
}

type roundService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	standingsSvc   StandingsService
	logger         *slog.Logger
}

func NewRoundService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	standingsSvc StandingsService,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		standingsSvc:   standingsSvc,
		logger:         logger,
	}
}

// RescheduleRound переносит дату всех матчей тура. Номер тура должен
// попадать в [1, total_rounds].
func (s *roundService) RescheduleRound(ctx context.Context, tournamentID, roundNumber int, newDate time.Time) ([]*models.Match, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	if roundNumber < 1 || roundNumber > tournament.TotalRounds {
		return nil, fmt.Errorf("%w: round %d, tournament has %d rounds", ErrRoundOutOfRange, roundNumber, tournament.TotalRounds)
	}

	affected, err := s.matchRepo.RescheduleRound(ctx, tournamentID, roundNumber, newDate)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule round %d of tournament %d: %w", roundNumber, tournamentID, err)
	}
	if s.logger != nil {
		s.logger.Info("round rescheduled",
			slog.Int("tournament_id", tournamentID),
			slog.Int("round", roundNumber),
			slog.Int("matches", affected),
			slog.Time("date", newDate))
	}

	return s.matchRepo.ListByTournament(ctx, tournamentID, &roundNumber, nil)
}

// ListMatches возвращает матчи турнира с досками, опционально фильтруя по
// туру и статусу.
func (s *roundService) ListMatches(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, round, status)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of tournament %d: %w", tournamentID, err)
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of tournament %d: %w", tournamentID, err)
	}
	matchesByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchesByID[m.ID] = m
	}
	for _, g := range games {
		if m, ok := matchesByID[g.MatchID]; ok {
			m.Games = append(m.Games, *g)
		}
	}
	return matches, nil
}

// Refresh — pull-модель: UI дергает его после мутаций и получает свежие
// матчи и таблицы, ничего инкрементально не кэшируется.
func (s *roundService) Refresh(ctx context.Context, tournamentID int) (*RoundSnapshot, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of tournament %d: %w", tournamentID, err)
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of tournament %d: %w", tournamentID, err)
	}
	matchesByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchesByID[m.ID] = m
	}
	for _, g := range games {
		if m, ok := matchesByID[g.MatchID]; ok {
			m.Games = append(m.Games, *g)
		}
	}

	teamStandings, err := s.standingsSvc.ComputeStandings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	playerRankings, err := s.standingsSvc.ComputePlayerRankings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	return &RoundSnapshot{
		Tournament:     tournament,
		Matches:        matches,
		Standings:      teamStandings,
		PlayerRankings: playerRankings,
	}, nil
}
