package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/services"
)

type SwapHandler struct {
	swapService services.SwapService
}

func NewSwapHandler(swapService services.SwapService) *SwapHandler {
	return &SwapHandler{swapService: swapService}
}

// Validate прогоняет замену через все проверки, ничего не меняя.
func (h *SwapHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readSwapRequest(w, r)
	if !ok {
		return
	}

	if err := h.swapService.ValidateSwap(r.Context(), *req); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"valid": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Apply выполняет замену и возвращает запись аудита.
func (h *SwapHandler) Apply(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readSwapRequest(w, r)
	if !ok {
		return
	}

	record, err := h.swapService.ApplySwap(r.Context(), *req)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"swap": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AvailableSwaps отдает составы обеих команд с пометками занятости досок.
func (h *SwapHandler) AvailableSwaps(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	available, err := h.swapService.ListAvailableSwaps(r.Context(), matchID, gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, available, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SwapHandler) History(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	records, err := h.swapService.ListHistory(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"swaps": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SwapHandler) readSwapRequest(w http.ResponseWriter, r *http.Request) (*services.SwapRequest, bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}

	var input struct {
		NewWhitePlayerID *int    `json:"new_white_player_id"`
		NewBlackPlayerID *int    `json:"new_black_player_id"`
		Reason           *string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}

	// Актор берется из токена, не из тела запроса.
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return nil, false
	}

	return &services.SwapRequest{
		MatchID:          matchID,
		GameID:           gameID,
		NewWhitePlayerID: input.NewWhitePlayerID,
		NewBlackPlayerID: input.NewBlackPlayerID,
		Reason:           input.Reason,
		ActorUserID:      actorID,
	}, true
}
