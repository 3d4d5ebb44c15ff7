package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateScoresAndStatus(ctx context.Context, exec SQLExecutor, id int, whiteScore, blackScore float64, status models.MatchStatus) error
	RescheduleRound(ctx context.Context, tournamentID int, round int, scheduledDate time.Time) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round_number, white_team_id, black_team_id, white_score, black_score, scheduled_date, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round_number, white_team_id, black_team_id, white_score, black_score, scheduled_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.RoundNumber,
		match.WhiteTeamID,
		match.BlackTeamID,
		match.WhiteScore,
		match.BlackScore,
		match.ScheduledDate,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID, &match.TournamentID, &match.RoundNumber,
		&match.WhiteTeamID, &match.BlackTeamID,
		&match.WhiteScore, &match.BlackScore,
		&match.ScheduledDate, &match.Status, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// ListByTournament возвращает матчи в стабильном порядке (round_number,
// затем id) — от этого зависит детерминизм расчета таблицы.
func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round_number = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}

	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY round_number ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match := &models.Match{}
		if scanErr := rows.Scan(
			&match.ID, &match.TournamentID, &match.RoundNumber,
			&match.WhiteTeamID, &match.BlackTeamID,
			&match.WhiteScore, &match.BlackScore,
			&match.ScheduledDate, &match.Status, &match.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateScoresAndStatus(ctx context.Context, exec SQLExecutor, id int, whiteScore, blackScore float64, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET white_score = $1, black_score = $2, status = $3
		WHERE id = $4`

	result, err := executor.ExecContext(ctx, query, whiteScore, blackScore, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// RescheduleRound переносит все матчи тура и возвращает число затронутых
// строк (0 — тур без матчей, сервис решает, ошибка это или нет).
func (r *postgresMatchRepository) RescheduleRound(ctx context.Context, tournamentID int, round int, scheduledDate time.Time) (int, error) {
	query := `
		UPDATE matches
		SET scheduled_date = $1
		WHERE tournament_id = $2 AND round_number = $3`

	result, err := r.db.ExecContext(ctx, query, scheduledDate, tournamentID, round)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_white_team_id_fkey", "matches_black_team_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	return err
}
