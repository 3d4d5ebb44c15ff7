package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

// In-memory реализации репозиториев для сервисных тестов. Поведение
// повторяет postgres-версии: Get/List отдают копии, сентинел-ошибки те же.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB отдает sqlmock-хэндл для сервисов, открывающих транзакции.
// Сами запросы уходят в фейковые репозитории, через мок идут только
// Begin/Commit/Rollback.
func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]models.Tournament
}

var _ repositories.TournamentRepository = (*fakeTournamentRepo)(nil)

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]models.Tournament)}
}

func (r *fakeTournamentRepo) add(t models.Tournament) models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	t.Teams, t.Matches = nil, nil
	r.tournaments[t.ID] = t
	return t
}

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	stored := r.add(*t)
	t.ID = stored.ID
	t.CreatedAt = stored.CreatedAt
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		copied := t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateCurrentRound(_ context.Context, _ repositories.SQLExecutor, id int, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = round
	r.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]models.Team
}

var _ repositories.TeamRepository = (*fakeTeamRepo)(nil)

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{nextID: 1, teams: make(map[int]models.Team)}
}

func (r *fakeTeamRepo) add(t models.Team) models.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	t.Players = nil
	r.teams[t.ID] = t
	return t
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	stored := r.add(*t)
	t.ID = stored.ID
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := t
	return &copied, nil
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, t := range r.teams {
		if t.TournamentID != tournamentID {
			continue
		}
		copied := t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTeamRepo) UpdateName(_ context.Context, id int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Name = name
	r.teams[id] = t
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = logoKey
	r.teams[id] = t
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]models.Player
	teams   *fakeTeamRepo
}

var _ repositories.PlayerRepository = (*fakePlayerRepo)(nil)

func newFakePlayerRepo(teams *fakeTeamRepo) *fakePlayerRepo {
	return &fakePlayerRepo{nextID: 1, players: make(map[int]models.Player), teams: teams}
}

func (r *fakePlayerRepo) add(p models.Player) models.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	p.Team = nil
	r.players[p.ID] = p
	return p
}

func (r *fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	stored := r.add(*p)
	p.ID = stored.ID
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := p
	return &copied, nil
}

func (r *fakePlayerRepo) ListByTeam(_ context.Context, teamID int) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Player, 0)
	for _, p := range r.players {
		if p.TeamID != teamID {
			continue
		}
		copied := p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakePlayerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	teams, err := r.teams.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Player, 0)
	for _, t := range teams {
		roster, err := r.ListByTeam(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, roster...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) Update(_ context.Context, p *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	stored := *p
	stored.Team = nil
	r.players[p.ID] = stored
	return nil
}

func (r *fakePlayerRepo) UpdatePosition(_ context.Context, _ repositories.SQLExecutor, id int, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Position = position
	r.players[id] = p
	return nil
}

func (r *fakePlayerRepo) ShiftPositionsAfter(_ context.Context, _ repositories.SQLExecutor, teamID int, deletedPosition int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.players {
		if p.TeamID == teamID && p.Position > deletedPosition {
			p.Position--
			r.players[id] = p
		}
	}
	return nil
}

func (r *fakePlayerRepo) CountByTeam(_ context.Context, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.players {
		if p.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

func (r *fakePlayerRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

type fakeMatchRepo struct {
	mu               sync.Mutex
	nextID           int
	matches          map[int]models.Match
	rescheduleCalls  int
	scoreUpdateCalls int
}

var _ repositories.MatchRepository = (*fakeMatchRepo)(nil)

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]models.Match)}
}

func (r *fakeMatchRepo) add(m models.Match) models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	} else if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	m.Games = nil
	r.matches[m.ID] = m
	return m
}

func (r *fakeMatchRepo) get(id int) (models.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	return m, ok
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	stored := r.add(*m)
	m.ID = stored.ID
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.RoundNumber != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		copied := m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMatchRepo) UpdateScoresAndStatus(_ context.Context, _ repositories.SQLExecutor, id int, whiteScore, blackScore float64, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WhiteScore = whiteScore
	m.BlackScore = blackScore
	m.Status = status
	r.matches[id] = m
	r.scoreUpdateCalls++
	return nil
}

func (r *fakeMatchRepo) RescheduleRound(_ context.Context, tournamentID int, round int, scheduledDate time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rescheduleCalls++
	affected := 0
	for id, m := range r.matches {
		if m.TournamentID == tournamentID && m.RoundNumber == round {
			m.ScheduledDate = scheduledDate
			r.matches[id] = m
			affected++
		}
	}
	return affected, nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

type fakeGameRepo struct {
	mu      sync.Mutex
	nextID  int
	games   map[int]models.Game
	matches *fakeMatchRepo
}

var _ repositories.GameRepository = (*fakeGameRepo)(nil)

func newFakeGameRepo(matches *fakeMatchRepo) *fakeGameRepo {
	return &fakeGameRepo{nextID: 1, games: make(map[int]models.Game), matches: matches}
}

func (r *fakeGameRepo) add(g models.Game) models.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == 0 {
		g.ID = r.nextID
		r.nextID++
	} else if g.ID >= r.nextID {
		r.nextID = g.ID + 1
	}
	r.games[g.ID] = g
	return g
}

func (r *fakeGameRepo) get(id int) (models.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	return g, ok
}

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, g *models.Game) error {
	stored := r.add(*g)
	g.ID = stored.ID
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := g
	return &copied, nil
}

func (r *fakeGameRepo) ListByMatch(_ context.Context, matchID int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Game, 0)
	for _, g := range r.games {
		if g.MatchID != matchID {
			continue
		}
		copied := g
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoardNumber < out[j].BoardNumber })
	return out, nil
}

func (r *fakeGameRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	matches, err := r.matches.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Game, 0)
	for _, m := range matches {
		games, err := r.ListByMatch(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, games...)
	}
	return out, nil
}

func (r *fakeGameRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, result models.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Result = result
	r.games[id] = g
	return nil
}

func (r *fakeGameRepo) UpdatePlayers(_ context.Context, _ repositories.SQLExecutor, id int, whitePlayerID, blackPlayerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.WhitePlayerID = whitePlayerID
	g.BlackPlayerID = blackPlayerID
	r.games[id] = g
	return nil
}

type fakeSwapRepo struct {
	mu      sync.Mutex
	nextID  int
	records []models.SwapRecord
}

var _ repositories.SwapRepository = (*fakeSwapRepo)(nil)

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{nextID: 1}
}

func (r *fakeSwapRepo) Create(_ context.Context, _ repositories.SQLExecutor, record *models.SwapRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = r.nextID
	record.CreatedAt = time.Now()
	r.nextID++
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeSwapRepo) ListByMatch(_ context.Context, matchID int) ([]*models.SwapRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SwapRecord, 0)
	for i := range r.records {
		if r.records[i].MatchID != matchID {
			continue
		}
		copied := r.records[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeSwapRepo) ListByTournament(_ context.Context, _ int) ([]*models.SwapRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SwapRecord, 0, len(r.records))
	for i := range r.records {
		copied := r.records[i]
		out = append(out, &copied)
	}
	return out, nil
}
