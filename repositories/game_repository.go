package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-league/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameBoardConflict = errors.New("board is already taken in this match")
	ErrGameMatchInvalid  = errors.New("game match conflict or invalid")
	ErrGamePlayerInvalid = errors.New("game player conflict or invalid")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.GameResult) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, whitePlayerID, blackPlayerID int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, match_id, board_number, white_player_id, black_player_id, result, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games (match_id, board_number, white_player_id, black_player_id, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		game.MatchID,
		game.BoardNumber,
		game.WhitePlayerID,
		game.BlackPlayerID,
		game.Result,
	).Scan(&game.ID, &game.CreatedAt)

	return handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&game.ID, &game.MatchID, &game.BoardNumber,
		&game.WhitePlayerID, &game.BlackPlayerID,
		&game.Result, &game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE match_id = $1 ORDER BY board_number ASC`
	return r.queryGames(ctx, query, matchID)
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	query := `
		SELECT g.id, g.match_id, g.board_number, g.white_player_id, g.black_player_id, g.result, g.created_at
		FROM games g
		JOIN matches m ON g.match_id = m.id
		WHERE m.tournament_id = $1
		ORDER BY g.match_id ASC, g.board_number ASC`
	return r.queryGames(ctx, query, tournamentID)
}

func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game := &models.Game{}
		if scanErr := rows.Scan(
			&game.ID, &game.MatchID, &game.BoardNumber,
			&game.WhitePlayerID, &game.BlackPlayerID,
			&game.Result, &game.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.GameResult) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET result = $1 WHERE id = $2`
	res, err := executor.ExecContext(ctx, query, result, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, whitePlayerID, blackPlayerID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET white_player_id = $1, black_player_id = $2 WHERE id = $3`
	res, err := executor.ExecContext(ctx, query, whitePlayerID, blackPlayerID, id)
	if err != nil {
		return handleGameError(err)
	}
	return checkAffectedRows(res, ErrGameNotFound)
}

func handleGameError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "games_match_id_board_number_key" {
				return ErrGameBoardConflict
			}
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "games_match_id_fkey":
				return ErrGameMatchInvalid
			case "games_white_player_id_fkey", "games_black_player_id_fkey":
				return ErrGamePlayerInvalid
			}
		}
	}
	return err
}
