package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

type MatchHandler struct {
	resultService services.ResultService
	roundService  services.RoundService
}

func NewMatchHandler(resultService services.ResultService, roundService services.RoundService) *MatchHandler {
	return &MatchHandler{
		resultService: resultService,
		roundService:  roundService,
	}
}

// ListByTournament отдает матчи турнира; поддерживает query-фильтры
// ?round= и ?status=.
func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *int
	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		parsed, convErr := strconv.Atoi(roundStr)
		if convErr != nil || parsed < 1 {
			badRequestResponse(w, r, errors.New("round must be a positive integer"))
			return
		}
		round = &parsed
	}

	status, err := parseMatchStatus(r.URL.Query().Get("status"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.roundService.ListMatches(r.Context(), tournamentID, round, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitBoardResult записывает результат одной доски.
// Тело: {"result": "1-0" | "0-1" | "1/2-1/2"}.
func (h *MatchHandler) SubmitBoardResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	boardNumber, err := getIDFromURL(r, "boardNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Result string `json:"result"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Result == "" {
		badRequestResponse(w, r, errors.New("result is required"))
		return
	}

	match, err := h.resultService.SubmitBoardResult(r.Context(), matchID, boardNumber, input.Result)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitMatchResults применяет пакет результатов атомарно.
// Тело: {"results": {"1": "1-0", "2": "0-1", ...}} — ключи это номера досок.
func (h *MatchHandler) SubmitMatchResults(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Results map[string]string `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Results) == 0 {
		badRequestResponse(w, r, errors.New("results are required"))
		return
	}

	perBoard := make(map[int]string, len(input.Results))
	for boardStr, result := range input.Results {
		board, convErr := strconv.Atoi(boardStr)
		if convErr != nil || board < 1 {
			badRequestResponse(w, r, errors.New("result keys must be positive board numbers"))
			return
		}
		perBoard[board] = result
	}

	match, err := h.resultService.SubmitMatchResults(r.Context(), matchID, perBoard)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// parseMatchStatus переводит query-параметр в статус матча.
func parseMatchStatus(s string) (*models.MatchStatus, error) {
	if s == "" {
		return nil, nil
	}
	status := models.MatchStatus(s)
	switch status {
	case models.StatusScheduled, models.StatusInProgress, models.MatchStatusCompleted:
		return &status, nil
	default:
		return nil, errors.New("unknown match status filter")
	}
}
