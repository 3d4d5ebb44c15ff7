package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-league/models"
)

var ErrSwapRecordNotFound = errors.New("swap record not found")

// SwapRepository — append-only журнал замен: записи не изменяются и не
// удаляются, поэтому интерфейс не имеет Update/Delete.
type SwapRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.SwapRecord) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.SwapRecord, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.SwapRecord, error)
}

type postgresSwapRepository struct {
	db *sql.DB
}

func NewPostgresSwapRepository(db *sql.DB) SwapRepository {
	return &postgresSwapRepository{db: db}
}

func (r *postgresSwapRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const swapColumns = `id, match_id, game_id, board_number, old_white_player_id, new_white_player_id, old_black_player_id, new_black_player_id, reason, actor_user_id, created_at`

func (r *postgresSwapRepository) Create(ctx context.Context, exec SQLExecutor, record *models.SwapRecord) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO swap_records
			(match_id, game_id, board_number, old_white_player_id, new_white_player_id, old_black_player_id, new_black_player_id, reason, actor_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		record.MatchID,
		record.GameID,
		record.BoardNumber,
		record.OldWhiteID,
		record.NewWhiteID,
		record.OldBlackID,
		record.NewBlackID,
		record.Reason,
		record.ActorUserID,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *postgresSwapRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.SwapRecord, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_records WHERE match_id = $1 ORDER BY created_at ASC, id ASC`
	return r.querySwaps(ctx, query, matchID)
}

func (r *postgresSwapRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.SwapRecord, error) {
	query := `
		SELECT s.id, s.match_id, s.game_id, s.board_number, s.old_white_player_id, s.new_white_player_id, s.old_black_player_id, s.new_black_player_id, s.reason, s.actor_user_id, s.created_at
		FROM swap_records s
		JOIN matches m ON s.match_id = m.id
		WHERE m.tournament_id = $1
		ORDER BY s.created_at ASC, s.id ASC`
	return r.querySwaps(ctx, query, tournamentID)
}

func (r *postgresSwapRepository) querySwaps(ctx context.Context, query string, args ...interface{}) ([]*models.SwapRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*models.SwapRecord, 0)
	for rows.Next() {
		record := &models.SwapRecord{}
		if scanErr := rows.Scan(
			&record.ID, &record.MatchID, &record.GameID, &record.BoardNumber,
			&record.OldWhiteID, &record.NewWhiteID,
			&record.OldBlackID, &record.NewBlackID,
			&record.Reason, &record.ActorUserID, &record.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
