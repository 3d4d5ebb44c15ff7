package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/chess-league/models"
)

func (f *matchFixture) tournamentService() TournamentService {
	return NewTournamentService(f.db, f.tournaments, f.teams, f.players, f.matches, f.games, testLogger())
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	endBeforeStart := start.AddDate(0, 0, -1)

	cases := []struct {
		name  string
		input CreateTournamentInput
		want  error
	}{
		{"empty name", CreateTournamentInput{Name: "  ", StartDate: start, TotalRounds: 3, BoardsCount: 4}, ErrValidationFailed},
		{"zero rounds", CreateTournamentInput{Name: "Spring Open", StartDate: start, TotalRounds: 0, BoardsCount: 4}, ErrTournamentInvalidRounds},
		{"zero boards", CreateTournamentInput{Name: "Spring Open", StartDate: start, TotalRounds: 3, BoardsCount: 0}, ErrTournamentInvalidBoards},
		{"end before start", CreateTournamentInput{Name: "Spring Open", StartDate: start, EndDate: &endBeforeStart, TotalRounds: 3, BoardsCount: 4}, ErrTournamentInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateTournamentSucceeds(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()

	created, err := svc.Create(context.Background(), CreateTournamentInput{
		Name:        "  Spring Open ",
		StartDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TotalRounds: 3,
		BoardsCount: 4,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Spring Open", created.Name)
	assert.Equal(t, models.StatusUpcoming, created.Status)
}

// Переходы статусов односторонние: upcoming → active → completed.
func TestUpdateTournamentStatusTransitions(t *testing.T) {
	cases := []struct {
		from models.TournamentStatus
		to   models.TournamentStatus
		ok   bool
	}{
		{models.StatusUpcoming, models.StatusActive, true},
		{models.StatusActive, models.TournamentStatusCompleted, true},
		{models.StatusUpcoming, models.TournamentStatusCompleted, false},
		{models.StatusActive, models.StatusUpcoming, false},
		{models.TournamentStatusCompleted, models.StatusActive, false},
		{models.TournamentStatusCompleted, models.StatusUpcoming, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			f := newMatchFixture(t)
			seeded := f.tournaments.add(models.Tournament{Name: "T", Status: tc.from, TotalRounds: 1, BoardsCount: 4})
			svc := f.tournamentService()

			updated, err := svc.UpdateStatus(context.Background(), seeded.ID, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				require.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
			}
		})
	}
}

func TestUpdateTournamentStatusUnknownValue(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()

	_, err := svc.UpdateStatus(context.Background(), 1, models.TournamentStatus("paused"))
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestScheduleMatchesCreatesBoardsFromRosters(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()
	f.expectTx()

	created, err := svc.ScheduleMatches(context.Background(), 1, []PairingInput{
		{RoundNumber: 2, WhiteTeamID: 20, BlackTeamID: 10, ScheduledDate: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	match := created[0]
	assert.Equal(t, models.StatusScheduled, match.Status)
	require.Len(t, match.Games, 4)
	for i, game := range match.Games {
		assert.Equal(t, i+1, game.BoardNumber)
		// Белые — первые четыре игрока команды 20, черные — команды 10.
		assert.Equal(t, i+11, game.WhitePlayerID)
		assert.Equal(t, i+1, game.BlackPlayerID)
		assert.Equal(t, models.ResultPending, game.Result)

		stored, ok := f.games.get(game.ID)
		require.True(t, ok)
		assert.Equal(t, models.ResultPending, stored.Result)
	}
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestScheduleMatchesRoundOutOfRange(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()

	_, err := svc.ScheduleMatches(context.Background(), 1, []PairingInput{
		{RoundNumber: 5, WhiteTeamID: 10, BlackTeamID: 20},
	})
	require.ErrorIs(t, err, ErrRoundOutOfRange)
}

func TestScheduleMatchesTeamCannotPlayItself(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()

	_, err := svc.ScheduleMatches(context.Background(), 1, []PairingInput{
		{RoundNumber: 2, WhiteTeamID: 10, BlackTeamID: 10},
	})
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestScheduleMatchesForeignTeamRejected(t *testing.T) {
	f := newMatchFixture(t)
	f.teams.add(models.Team{ID: 30, Name: "Outsiders", TournamentID: 2})
	svc := f.tournamentService()

	_, err := svc.ScheduleMatches(context.Background(), 1, []PairingInput{
		{RoundNumber: 1, WhiteTeamID: 10, BlackTeamID: 30},
	})
	require.ErrorIs(t, err, ErrTeamNotFound)
}

// Состав короче числа досок — матч запланировать нельзя.
func TestScheduleMatchesRosterShorterThanBoards(t *testing.T) {
	f := newMatchFixture(t)
	for _, playerID := range []int{3, 4, 5, 6} {
		require.NoError(t, f.players.Delete(context.Background(), nil, playerID))
	}
	svc := f.tournamentService()

	_, err := svc.ScheduleMatches(context.Background(), 1, []PairingInput{
		{RoundNumber: 2, WhiteTeamID: 10, BlackTeamID: 20},
	})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestDeleteTournamentNotFound(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.tournamentService()

	err := svc.Delete(context.Background(), 777)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}
