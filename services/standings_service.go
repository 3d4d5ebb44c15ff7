package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/standings"
	"golang.org/x/sync/errgroup"
)

// StandingsService — тонкая обертка над пакетом standings: загружает
// консистентный снимок турнира и отдает математику чистым функциям.
// На валидном входе не падает: пустой турнир дает пустую таблицу.
type StandingsService interface {
	ComputeStandings(ctx context.Context, tournamentID int) ([]models.TeamStanding, error)
	ComputePlayerRankings(ctx context.Context, tournamentID int) ([]models.PlayerRanking, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		logger:         logger,
	}
}

func (s *standingsService) ComputeStandings(ctx context.Context, tournamentID int) ([]models.TeamStanding, error) {
	snapshot, err := s.loadSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	rows := standings.ComputeTeamStandings(snapshot.teams, snapshot.matches)
	if s.logger != nil {
		s.logger.Debug("standings computed",
			slog.Int("tournament_id", tournamentID),
			slog.Int("teams", len(rows)))
	}
	return rows, nil
}

func (s *standingsService) ComputePlayerRankings(ctx context.Context, tournamentID int) ([]models.PlayerRanking, error) {
	snapshot, err := s.loadSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return standings.ComputePlayerRankings(snapshot.players, snapshot.matches), nil
}

type tournamentSnapshot struct {
	teams   []models.Team
	players []models.Player
	matches []models.Match
}

// loadSnapshot параллельно загружает команды, игроков, матчи и доски
// турнира. Матчи приходят от репозитория в стабильном порядке (тур, id),
// доски — по board_number, поэтому расчет детерминирован.
func (s *standingsService) loadSnapshot(ctx context.Context, tournamentID int) (*tournamentSnapshot, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	var (
		teamRows   []*models.Team
		playerRows []*models.Player
		matchRows  []*models.Match
		gameRows   []*models.Game
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teamRows, err = s.teamRepo.ListByTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		playerRows, err = s.playerRepo.ListByTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matchRows, err = s.matchRepo.ListByTournament(gctx, tournamentID, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		gameRows, err = s.gameRepo.ListByTournament(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %d snapshot: %w", tournamentID, err)
	}

	snapshot := &tournamentSnapshot{
		teams:   make([]models.Team, len(teamRows)),
		players: make([]models.Player, len(playerRows)),
		matches: make([]models.Match, len(matchRows)),
	}

	teamsByID := make(map[int]*models.Team, len(teamRows))
	for i, t := range teamRows {
		snapshot.teams[i] = *t
		teamsByID[t.ID] = &snapshot.teams[i]
	}
	for i, p := range playerRows {
		snapshot.players[i] = *p
		snapshot.players[i].Team = teamsByID[p.TeamID]
	}

	matchesByID := make(map[int]*models.Match, len(matchRows))
	for i, m := range matchRows {
		snapshot.matches[i] = *m
		matchesByID[m.ID] = &snapshot.matches[i]
	}
	for _, g := range gameRows {
		if m, ok := matchesByID[g.MatchID]; ok {
			m.Games = append(m.Games, *g)
		}
	}

	return snapshot, nil
}
