package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/chess-league/models"
)

func (f *matchFixture) swapService(cfg SwapConfig) SwapService {
	return NewSwapService(f.db, f.matches, f.games, f.players, f.swaps, NewMatchLocks(), nil, cfg, testLogger())
}

func intPtr(v int) *int { return &v }

func TestApplySwapReplacesPlayerAndAppendsRecord(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})
	f.expectTx()

	reason := "illness"
	record, err := svc.ApplySwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(5),
		Reason:           &reason,
		ActorUserID:      42,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, record.BoardNumber)
	assert.Equal(t, 1, record.OldWhiteID)
	assert.Equal(t, 5, record.NewWhiteID)
	assert.Equal(t, 11, record.OldBlackID)
	assert.Equal(t, 11, record.NewBlackID)
	assert.Equal(t, 42, record.ActorUserID)
	require.NotNil(t, record.Reason)
	assert.Equal(t, "illness", *record.Reason)

	game, ok := f.games.get(f.gameIDs[0])
	require.True(t, ok)
	assert.Equal(t, 5, game.WhitePlayerID)
	assert.Equal(t, 11, game.BlackPlayerID)

	history, err := svc.ListHistory(context.Background(), f.matchID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

// Игрок, уже сидящий на другой доске матча, не может быть посажен на
// вторую; ошибка несет номер конфликтующей доски.
func TestApplySwapReportsConflictingBoard(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	_, err := svc.ApplySwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[1], // доска 2
		NewWhitePlayerID: intPtr(1),    // уже играет белыми на доске 1
	})

	var conflict *PlayerConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.PlayerID)
	assert.Equal(t, 1, conflict.ConflictingBoard)

	game, ok := f.games.get(f.gameIDs[1])
	require.True(t, ok)
	assert.Equal(t, 2, game.WhitePlayerID, "conflicting swap must not change the board")
}

func TestValidateSwapNoOp(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	err := svc.ValidateSwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(1), // текущий белый этой доски
	})
	require.ErrorIs(t, err, ErrNoOpSwap)
}

func TestValidateSwapWrongTeam(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	err := svc.ValidateSwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(15), // игрок черной команды
	})
	require.ErrorIs(t, err, ErrWrongTeam)
}

func TestValidateSwapUnknownPlayer(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	err := svc.ValidateSwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(999),
	})
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestValidateSwapSamePlayerBothColors(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	err := svc.ValidateSwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(5),
		NewBlackPlayerID: intPtr(5),
	})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

// Матч со всеми записанными результатами закрыт для замен.
func TestValidateSwapCompletedMatchLocked(t *testing.T) {
	f := newMatchFixture(t)
	for _, id := range f.gameIDs {
		require.NoError(t, f.games.UpdateResult(context.Background(), nil, id, models.ResultDraw))
	}
	svc := f.swapService(SwapConfig{})

	err := svc.ValidateSwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(5),
	})
	require.ErrorIs(t, err, ErrMatchLocked)
}

// По умолчанию замена НЕ трогает уже записанный результат доски.
func TestApplySwapKeepsRecordedResult(t *testing.T) {
	f := newMatchFixture(t)
	require.NoError(t, f.games.UpdateResult(context.Background(), nil, f.gameIDs[0], models.ResultWhiteWin))
	svc := f.swapService(SwapConfig{})
	f.expectTx()

	_, err := svc.ApplySwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(5),
	})
	require.NoError(t, err)

	game, ok := f.games.get(f.gameIDs[0])
	require.True(t, ok)
	assert.Equal(t, models.ResultWhiteWin, game.Result)
	assert.Equal(t, 5, game.WhitePlayerID)
}

func TestApplySwapClearsResultWhenConfigured(t *testing.T) {
	f := newMatchFixture(t)
	require.NoError(t, f.games.UpdateResult(context.Background(), nil, f.gameIDs[0], models.ResultWhiteWin))
	require.NoError(t, f.matches.UpdateScoresAndStatus(context.Background(), nil, f.matchID, 1, 0, models.StatusInProgress))
	svc := f.swapService(SwapConfig{ClearResultOnSwap: true})
	f.expectTx()

	_, err := svc.ApplySwap(context.Background(), SwapRequest{
		MatchID:          f.matchID,
		GameID:           f.gameIDs[0],
		NewWhitePlayerID: intPtr(5),
	})
	require.NoError(t, err)

	game, ok := f.games.get(f.gameIDs[0])
	require.True(t, ok)
	assert.Equal(t, models.ResultPending, game.Result)

	stored, ok := f.matches.get(f.matchID)
	require.True(t, ok)
	assert.Equal(t, 0.0, stored.WhiteScore)
	assert.Equal(t, models.StatusScheduled, stored.Status)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListAvailableSwapsMarksBusyPlayers(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	available, err := svc.ListAvailableSwaps(context.Background(), f.matchID, f.gameIDs[0])
	require.NoError(t, err)
	require.Len(t, available.WhiteCandidates, 6)
	require.Len(t, available.BlackCandidates, 6)

	byPlayer := make(map[int]SwapCandidate)
	for _, c := range available.WhiteCandidates {
		byPlayer[c.Player.ID] = c
	}

	// Игрок текущей доски не считается занятым: его доска и есть целевая.
	assert.Nil(t, byPlayer[1].CurrentBoard)
	for board := 2; board <= 4; board++ {
		candidate := byPlayer[board]
		require.NotNil(t, candidate.CurrentBoard, "player %d is on board %d", board, board)
		assert.Equal(t, board, *candidate.CurrentBoard)
	}
	// Запасные свободны.
	assert.Nil(t, byPlayer[5].CurrentBoard)
	assert.Nil(t, byPlayer[6].CurrentBoard)
}

func TestListHistoryMatchNotFound(t *testing.T) {
	f := newMatchFixture(t)
	svc := f.swapService(SwapConfig{})

	_, err := svc.ListHistory(context.Background(), 777)
	require.ErrorIs(t, err, ErrMatchNotFound)
	require.False(t, errors.Is(err, ErrGameNotFound))
}
