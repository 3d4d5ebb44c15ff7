package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-league/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name already exists in this team")
	ErrPlayerTeamInvalid  = errors.New("player team conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdatePosition(ctx context.Context, exec SQLExecutor, id int, position int) error
	ShiftPositionsAfter(ctx context.Context, exec SQLExecutor, teamID int, deletedPosition int) error
	CountByTeam(ctx context.Context, teamID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players (name, rating, team_id, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		player.Name,
		player.Rating,
		player.TeamID,
		player.Position,
	).Scan(&player.ID, &player.CreatedAt)

	return handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, name, rating, team_id, position, created_at
		FROM players
		WHERE id = $1`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID, &player.Name, &player.Rating, &player.TeamID, &player.Position, &player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error) {
	query := `
		SELECT id, name, rating, team_id, position, created_at
		FROM players
		WHERE team_id = $1
		ORDER BY position ASC`

	return r.queryPlayers(ctx, query, teamID)
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	query := `
		SELECT p.id, p.name, p.rating, p.team_id, p.position, p.created_at
		FROM players p
		JOIN teams t ON p.team_id = t.id
		WHERE t.tournament_id = $1
		ORDER BY p.team_id ASC, p.position ASC`

	return r.queryPlayers(ctx, query, tournamentID)
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		player := &models.Player{}
		if scanErr := rows.Scan(
			&player.ID, &player.Name, &player.Rating, &player.TeamID, &player.Position, &player.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `UPDATE players SET name = $1, rating = $2, position = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, player.Name, player.Rating, player.Position, player.ID)
	if err != nil {
		return handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdatePosition(ctx context.Context, exec SQLExecutor, id int, position int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET position = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, position, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// ShiftPositionsAfter сдвигает позиции вверх после удаления игрока,
// чтобы нумерация состава оставалась плотной (1..N).
func (r *postgresPlayerRepository) ShiftPositionsAfter(ctx context.Context, exec SQLExecutor, teamID int, deletedPosition int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET position = position - 1 WHERE team_id = $1 AND position > $2`
	_, err := executor.ExecContext(ctx, query, teamID, deletedPosition)
	return err
}

func (r *postgresPlayerRepository) CountByTeam(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE team_id = $1`, teamID).Scan(&count)
	return count, err
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "players_team_id_name_key" {
				return ErrPlayerNameConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "players_team_id_fkey" {
				return ErrPlayerTeamInvalid
			}
		}
	}
	return err
}
