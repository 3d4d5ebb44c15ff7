package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/standings"
)

// ResultService принимает результаты досок и пересчитывает счет матча.
// Счет матча всегда пересчитывается целиком как сумма по доскам — никаких
// инкрементов, повторная отправка того же результата не меняет состояние.
type ResultService interface {
	SubmitBoardResult(ctx context.Context, matchID, boardNumber int, result string) (*models.Match, error)
	SubmitMatchResults(ctx context.Context, matchID int, perBoardResults map[int]string) (*models.Match, error)
}

type resultService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
	gameRepo  repositories.GameRepository
	locks     *MatchLocks
	hub       *standings.Hub
	logger    *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	locks *MatchLocks,
	hub *standings.Hub,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:        db,
		matchRepo: matchRepo,
		gameRepo:  gameRepo,
		locks:     locks,
		hub:       hub,
		logger:    logger,
	}
}

func (s *resultService) SubmitBoardResult(ctx context.Context, matchID, boardNumber int, result string) (*models.Match, error) {
	parsed, err := models.ParseGameResult(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResult, result)
	}

	mu := s.locks.lock(matchID)
	defer mu.Unlock()

	match, err := s.loadMatchWithGames(ctx, matchID)
	if err != nil {
		return nil, err
	}

	game := match.GameByBoard(boardNumber)
	if game == nil {
		return nil, fmt.Errorf("%w: board %d in match %d", ErrGameNotFound, boardNumber, matchID)
	}

	if err := s.applyResults(ctx, match, map[int]models.GameResult{game.ID: parsed}); err != nil {
		return nil, err
	}

	s.broadcastMatchUpdate(match)
	return match, nil
}

// SubmitMatchResults применяет пакет результатов как одно целое: либо все
// доски валидны и записаны одной транзакцией, либо состояние не меняется.
func (s *resultService) SubmitMatchResults(ctx context.Context, matchID int, perBoardResults map[int]string) (*models.Match, error) {
	if len(perBoardResults) == 0 {
		return nil, fmt.Errorf("%w: empty result batch", ErrValidationFailed)
	}

	mu := s.locks.lock(matchID)
	defer mu.Unlock()

	match, err := s.loadMatchWithGames(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// Сначала валидируется весь пакет, до первой записи в БД.
	updates := make(map[int]models.GameResult, len(perBoardResults))
	for boardNumber, raw := range perBoardResults {
		game := match.GameByBoard(boardNumber)
		if game == nil {
			return nil, fmt.Errorf("%w: board %d does not belong to match %d", ErrValidationFailed, boardNumber, matchID)
		}
		parsed, parseErr := models.ParseGameResult(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: board %d has invalid result %q", ErrValidationFailed, boardNumber, raw)
		}
		updates[game.ID] = parsed
	}

	if err := s.applyResults(ctx, match, updates); err != nil {
		return nil, err
	}

	s.broadcastMatchUpdate(match)
	return match, nil
}

func (s *resultService) loadMatchWithGames(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	games, err := s.gameRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of match %d: %w", matchID, err)
	}
	match.Games = make([]models.Game, len(games))
	for i, g := range games {
		match.Games[i] = *g
	}
	return match, nil
}

// applyResults записывает результаты и производный счет матча в одной
// транзакции и синхронно обновляет match в памяти.
func (s *resultService) applyResults(ctx context.Context, match *models.Match, updates map[int]models.GameResult) error {
	for i := range match.Games {
		if r, ok := updates[match.Games[i].ID]; ok {
			match.Games[i].Result = r
		}
	}

	whiteHalf, blackHalf, decided := 0, 0, 0
	for _, g := range match.Games {
		whiteHalf += g.Result.WhiteHalfPoints()
		blackHalf += g.Result.BlackHalfPoints()
		if g.Result.IsDecided() {
			decided++
		}
	}
	match.WhiteScore = float64(whiteHalf) / 2
	match.BlackScore = float64(blackHalf) / 2

	switch {
	case decided == 0:
		match.Status = models.StatusScheduled
	case decided == len(match.Games):
		match.Status = models.MatchStatusCompleted
	default:
		match.Status = models.StatusInProgress
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for gameID, result := range updates {
		if err := s.gameRepo.UpdateResult(ctx, tx, gameID, result); err != nil {
			return fmt.Errorf("failed to update result of game %d: %w", gameID, err)
		}
	}
	if err := s.matchRepo.UpdateScoresAndStatus(ctx, tx, match.ID, match.WhiteScore, match.BlackScore, match.Status); err != nil {
		return fmt.Errorf("failed to update match %d scores: %w", match.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results of match %d: %w", match.ID, err)
	}
	return nil
}

func (s *resultService) broadcastMatchUpdate(match *models.Match) {
	if s.hub == nil {
		return
	}
	room := strconv.Itoa(match.TournamentID)
	s.hub.BroadcastToRoom(room, standings.Event{Type: standings.EventMatchUpdated, Payload: match})
	s.hub.BroadcastToRoom(room, standings.Event{Type: standings.EventStandingsUpdated, Payload: map[string]int{"tournament_id": match.TournamentID}})
	if s.logger != nil {
		s.logger.Debug("match update broadcast",
			slog.Int("match_id", match.ID),
			slog.Int("tournament_id", match.TournamentID),
			slog.String("status", string(match.Status)))
	}
}
