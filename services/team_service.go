package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/storage"
)

type PlayerInput struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// CreateTeamInput — команда создается сразу с составом: инвариант 4–6
// игроков проверяется на границе редактирования состава.
type CreateTeamInput struct {
	TournamentID int           `json:"tournament_id"`
	Name         string        `json:"name"`
	Players      []PlayerInput `json:"players"`
}

type TeamService interface {
	Create(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	Rename(ctx context.Context, id int, name string) (*models.Team, error)
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error)
	Delete(ctx context.Context, id int) error
}

type teamService struct {
	db             *sql.DB
	teamRepo       repositories.TeamRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		db:             db,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

// Create создает команду вместе с составом одной транзакцией. Позиции
// назначаются по рейтингу: сильнейший получает позицию 1 (первая доска).
func (s *teamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if len(input.Players) < models.MinRosterSize {
		return nil, ErrRosterTooSmall
	}
	if len(input.Players) > models.MaxRosterSize {
		return nil, ErrRosterFull
	}

	seen := make(map[string]bool, len(input.Players))
	for _, p := range input.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
		}
		if p.Rating < models.MinRating || p.Rating > models.MaxRating {
			return nil, fmt.Errorf("%w: player %s has rating %d", ErrRatingOutOfRange, name, p.Rating)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNameConflict, name)
		}
		seen[name] = true
	}

	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrTournamentNotFound, input.TournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", input.TournamentID, err)
	}

	roster := make([]PlayerInput, len(input.Players))
	copy(roster, input.Players)
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].Rating > roster[j].Rating })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	team := &models.Team{
		Name:         strings.TrimSpace(input.Name),
		TournamentID: input.TournamentID,
	}
	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	team.Players = make([]models.Player, 0, len(roster))
	for i, p := range roster {
		player := &models.Player{
			Name:     strings.TrimSpace(p.Name),
			Rating:   p.Rating,
			TeamID:   team.ID,
			Position: i + 1,
		}
		if err := s.playerRepo.Create(ctx, tx, player); err != nil {
			if errors.Is(err, repositories.ErrPlayerNameConflict) {
				return nil, fmt.Errorf("%w: %s", ErrPlayerNameConflict, player.Name)
			}
			return nil, fmt.Errorf("failed to create player %s: %w", player.Name, err)
		}
		team.Players = append(team.Players, *player)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("team created",
			slog.Int("id", team.ID),
			slog.String("name", team.Name),
			slog.Int("roster", len(team.Players)))
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, id)
		}
		return nil, fmt.Errorf("failed to load team %d: %w", id, err)
	}

	players, err := s.playerRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster of team %d: %w", id, err)
	}
	team.Players = make([]models.Player, len(players))
	for i, p := range players {
		team.Players[i] = *p
	}

	populateTeamLogoURLFunc(team, s.uploader)
	return team, nil
}

func (s *teamService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}
	for _, team := range teams {
		populateTeamLogoURLFunc(team, s.uploader)
	}
	return teams, nil
}

func (s *teamService) Rename(ctx context.Context, id int, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if err := s.teamRepo.UpdateName(ctx, id, name); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, id)
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to rename team %d: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// UploadLogo кладет логотип в объектное хранилище и запоминает ключ.
// Старый файл удаляется лучшим образом: ошибка удаления не валит запрос.
func (s *teamService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, id)
		}
		return nil, fmt.Errorf("failed to load team %d: %w", id, err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%d/logo%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo of team %d: %w", id, err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, fmt.Errorf("failed to store logo key of team %d: %w", id, err)
	}
	if oldKey != nil && *oldKey != key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil && s.logger != nil {
			s.logger.Warn("failed to delete previous team logo",
				slog.Int("team_id", id),
				slog.String("key", *oldKey),
				slog.Any("error", delErr))
		}
	}

	team.LogoKey = &key
	populateTeamLogoURLFunc(team, s.uploader)
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, id int) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return fmt.Errorf("%w: team %d", ErrTeamNotFound, id)
		}
		return fmt.Errorf("failed to load team %d: %w", id, err)
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}

	if team.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *team.LogoKey); delErr != nil && s.logger != nil {
			s.logger.Warn("failed to delete team logo",
				slog.Int("team_id", id),
				slog.String("key", *team.LogoKey),
				slog.Any("error", delErr))
		}
	}
	return nil
}
