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

// SwapConfig — явная политика замен. Замена на доске с уже записанным
// результатом по умолчанию результат НЕ очищает; включение
// ClearResultOnSwap сбрасывает его в pending и пересчитывает счет матча.
type SwapConfig struct {
	ClearResultOnSwap bool
}

// SwapRequest описывает замену игроков на одной доске. Nil-слот означает
// "не трогать". ActorUserID попадает в журнал аудита.
type SwapRequest struct {
	MatchID          int     `json:"match_id"`
	GameID           int     `json:"game_id"`
	NewWhitePlayerID *int    `json:"new_white_player_id,omitempty"`
	NewBlackPlayerID *int    `json:"new_black_player_id,omitempty"`
	Reason           *string `json:"reason,omitempty"`
	ActorUserID      int     `json:"-"`
}

// SwapCandidate — игрок состава с признаком занятости на другой доске
// матча (для подсветки "Already playing Board N" в UI).
type SwapCandidate struct {
	Player       models.Player `json:"player"`
	CurrentBoard *int          `json:"current_board,omitempty"`
}

type AvailableSwaps struct {
	WhiteCandidates []SwapCandidate `json:"white_candidates"`
	BlackCandidates []SwapCandidate `json:"black_candidates"`
}

type SwapService interface {
	ValidateSwap(ctx context.Context, req SwapRequest) error
	ApplySwap(ctx context.Context, req SwapRequest) (*models.SwapRecord, error)
	ListAvailableSwaps(ctx context.Context, matchID, gameID int) (*AvailableSwaps, error)
	ListHistory(ctx context.Context, matchID int) ([]*models.SwapRecord, error)
}

type swapService struct {
	db         *sql.DB
	matchRepo  repositories.MatchRepository
	gameRepo   repositories.GameRepository
	playerRepo repositories.PlayerRepository
	swapRepo   repositories.SwapRepository
	locks      *MatchLocks
	hub        *standings.Hub
	cfg        SwapConfig
	logger     *slog.Logger
}

func NewSwapService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	playerRepo repositories.PlayerRepository,
	swapRepo repositories.SwapRepository,
	locks *MatchLocks,
	hub *standings.Hub,
	cfg SwapConfig,
	logger *slog.Logger,
) SwapService {
	return &swapService{
		db:         db,
		matchRepo:  matchRepo,
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		swapRepo:   swapRepo,
		locks:      locks,
		hub:        hub,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *swapService) ValidateSwap(ctx context.Context, req SwapRequest) error {
	mu := s.locks.lock(req.MatchID)
	defer mu.Unlock()

	_, _, err := s.validate(ctx, req)
	return err
}

// ApplySwap держит блокировку матча от валидации до коммита, чтобы две
// конкурентные замены не посадили одного игрока на две доски.
func (s *swapService) ApplySwap(ctx context.Context, req SwapRequest) (*models.SwapRecord, error) {
	mu := s.locks.lock(req.MatchID)
	defer mu.Unlock()

	match, resolved, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	game := resolved.game

	record := &models.SwapRecord{
		MatchID:     match.ID,
		GameID:      game.ID,
		BoardNumber: game.BoardNumber,
		OldWhiteID:  game.WhitePlayerID,
		NewWhiteID:  resolved.newWhiteID,
		OldBlackID:  game.BlackPlayerID,
		NewBlackID:  resolved.newBlackID,
		Reason:      req.Reason,
		ActorUserID: req.ActorUserID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.gameRepo.UpdatePlayers(ctx, tx, game.ID, resolved.newWhiteID, resolved.newBlackID); err != nil {
		return nil, fmt.Errorf("failed to reassign players of game %d: %w", game.ID, err)
	}

	if s.cfg.ClearResultOnSwap && game.Result.IsDecided() {
		if err := s.clearResult(ctx, tx, match, game); err != nil {
			return nil, err
		}
	}

	if err := s.swapRepo.Create(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to append swap record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit swap for match %d: %w", match.ID, err)
	}

	game.WhitePlayerID = resolved.newWhiteID
	game.BlackPlayerID = resolved.newBlackID

	if s.hub != nil {
		room := strconv.Itoa(match.TournamentID)
		s.hub.BroadcastToRoom(room, standings.Event{Type: standings.EventPlayersSwapped, Payload: record})
	}
	if s.logger != nil {
		s.logger.Info("board players swapped",
			slog.Int("match_id", match.ID),
			slog.Int("board", game.BoardNumber),
			slog.Int("actor_user_id", req.ActorUserID))
	}
	return record, nil
}

// clearResult сбрасывает результат доски и пересчитывает производный счет
// матча внутри той же транзакции.
func (s *swapService) clearResult(ctx context.Context, tx *sql.Tx, match *models.Match, game *models.Game) error {
	if err := s.gameRepo.UpdateResult(ctx, tx, game.ID, models.ResultPending); err != nil {
		return fmt.Errorf("failed to clear result of game %d: %w", game.ID, err)
	}
	game.Result = models.ResultPending

	whiteHalf, blackHalf, decided := 0, 0, 0
	for _, g := range match.Games {
		r := g.Result
		if g.ID == game.ID {
			r = models.ResultPending
		}
		whiteHalf += r.WhiteHalfPoints()
		blackHalf += r.BlackHalfPoints()
		if r.IsDecided() {
			decided++
		}
	}

	status := models.StatusInProgress
	if decided == 0 {
		status = models.StatusScheduled
	}
	match.WhiteScore = float64(whiteHalf) / 2
	match.BlackScore = float64(blackHalf) / 2
	match.Status = status

	if err := s.matchRepo.UpdateScoresAndStatus(ctx, tx, match.ID, match.WhiteScore, match.BlackScore, status); err != nil {
		return fmt.Errorf("failed to update match %d scores after swap: %w", match.ID, err)
	}
	return nil
}

type resolvedSwap struct {
	game       *models.Game
	newWhiteID int
	newBlackID int
}

func (s *swapService) validate(ctx context.Context, req SwapRequest) (*models.Match, *resolvedSwap, error) {
	match, err := s.loadMatchWithGames(ctx, req.MatchID)
	if err != nil {
		return nil, nil, err
	}

	game := match.GameByID(req.GameID)
	if game == nil {
		return nil, nil, fmt.Errorf("%w: game %d in match %d", ErrGameNotFound, req.GameID, req.MatchID)
	}

	// Завершенный матч (все доски с результатом) заменам не подлежит.
	if match.Completed() {
		return nil, nil, fmt.Errorf("%w: match %d", ErrMatchLocked, match.ID)
	}

	newWhiteID := game.WhitePlayerID
	if req.NewWhitePlayerID != nil {
		newWhiteID = *req.NewWhitePlayerID
	}
	newBlackID := game.BlackPlayerID
	if req.NewBlackPlayerID != nil {
		newBlackID = *req.NewBlackPlayerID
	}

	if newWhiteID == game.WhitePlayerID && newBlackID == game.BlackPlayerID {
		return nil, nil, fmt.Errorf("%w: game %d", ErrNoOpSwap, game.ID)
	}
	if newWhiteID == newBlackID {
		return nil, nil, fmt.Errorf("%w: player %d cannot occupy both colors of board %d", ErrInvariantViolation, newWhiteID, game.BoardNumber)
	}

	if newWhiteID != game.WhitePlayerID {
		if err := s.checkCandidate(ctx, match, game, newWhiteID, match.WhiteTeamID); err != nil {
			return nil, nil, err
		}
	}
	if newBlackID != game.BlackPlayerID {
		if err := s.checkCandidate(ctx, match, game, newBlackID, match.BlackTeamID); err != nil {
			return nil, nil, err
		}
	}

	return match, &resolvedSwap{game: game, newWhiteID: newWhiteID, newBlackID: newBlackID}, nil
}

// checkCandidate проверяет принадлежность кандидата нужному составу и
// отсутствие его на других досках этого матча.
func (s *swapService) checkCandidate(ctx context.Context, match *models.Match, game *models.Game, playerID, requiredTeamID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Errorf("%w: player %d", ErrPlayerNotFound, playerID)
		}
		return fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	if player.TeamID != requiredTeamID {
		return fmt.Errorf("%w: player %d belongs to team %d, expected team %d", ErrWrongTeam, playerID, player.TeamID, requiredTeamID)
	}

	if board, conflict := boardOfPlayer(match, playerID, game.ID); conflict {
		return &PlayerConflictError{PlayerID: playerID, ConflictingBoard: board}
	}
	return nil
}

// boardOfPlayer ищет игрока на досках матча, кроме указанной.
func boardOfPlayer(match *models.Match, playerID, excludeGameID int) (int, bool) {
	for _, g := range match.Games {
		if g.ID == excludeGameID {
			continue
		}
		if g.WhitePlayerID == playerID || g.BlackPlayerID == playerID {
			return g.BoardNumber, true
		}
	}
	return 0, false
}

// ListAvailableSwaps отдает составы обеих команд с пометкой, на какой доске
// игрок уже занят. Чистое чтение, ничего не мутирует.
func (s *swapService) ListAvailableSwaps(ctx context.Context, matchID, gameID int) (*AvailableSwaps, error) {
	match, err := s.loadMatchWithGames(ctx, matchID)
	if err != nil {
		return nil, err
	}
	game := match.GameByID(gameID)
	if game == nil {
		return nil, fmt.Errorf("%w: game %d in match %d", ErrGameNotFound, gameID, matchID)
	}

	whiteRoster, err := s.playerRepo.ListByTeam(ctx, match.WhiteTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load white team roster: %w", err)
	}
	blackRoster, err := s.playerRepo.ListByTeam(ctx, match.BlackTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load black team roster: %w", err)
	}

	toCandidates := func(roster []*models.Player) []SwapCandidate {
		candidates := make([]SwapCandidate, 0, len(roster))
		for _, p := range roster {
			candidate := SwapCandidate{Player: *p}
			if board, busy := boardOfPlayer(match, p.ID, game.ID); busy {
				b := board
				candidate.CurrentBoard = &b
			}
			candidates = append(candidates, candidate)
		}
		return candidates
	}

	return &AvailableSwaps{
		WhiteCandidates: toCandidates(whiteRoster),
		BlackCandidates: toCandidates(blackRoster),
	}, nil
}

func (s *swapService) ListHistory(ctx context.Context, matchID int) ([]*models.SwapRecord, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	records, err := s.swapRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load swap history of match %d: %w", matchID, err)
	}
	return records, nil
}

func (s *swapService) loadMatchWithGames(ctx context.Context, matchID int) (*models.Match, error) {
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
