package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrInvalidResult      = errors.New("invalid game result value")
	ErrInvariantViolation = errors.New("domain invariant violated")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Ошибки замен (доска внутри матча)
	ErrNoOpSwap    = errors.New("swap does not change any board assignment")
	ErrWrongTeam   = errors.New("player does not belong to the required team roster")
	ErrMatchLocked = errors.New("match is completed, board assignments are locked")

	// Туры и расписание
	ErrRoundOutOfRange = errors.New("round number is out of tournament bounds")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use in this tournament")
	ErrPlayerNameConflict     = errors.New("player name is already in use in this team")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Ошибки, специфичные для сущностей (дублируют ErrNotFound, но дают контекст)
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrGameNotFound       = errors.New("game (board) not found")

	// Состав команды
	ErrRosterTooSmall = errors.New("team roster must have at least 4 players")
	ErrRosterFull     = errors.New("team roster cannot exceed 6 players")
	ErrRatingOutOfRange = errors.New("player rating must be between 0 and 3000")

	// Турниры
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidRounds           = errors.New("tournament total rounds must be positive")
	ErrTournamentInvalidBoards           = errors.New("tournament boards count must be positive")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")

	// Ошибки авторизации
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)

// PlayerConflictError — игрок уже занят на другой доске этого матча.
// Несет номер конфликтующей доски, чтобы UI мог показать "Already playing
// Board N".
type PlayerConflictError struct {
	PlayerID         int
	ConflictingBoard int
}

func (e *PlayerConflictError) Error() string {
	return fmt.Sprintf("player %d is already assigned to board %d of this match", e.PlayerID, e.ConflictingBoard)
}
