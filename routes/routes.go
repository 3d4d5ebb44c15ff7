package routes

import (
	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает маршрутизатор: публичные чтения, мутации за JWT
// (роль admin), websocket-подписка и swagger.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	swapHandler *handlers.SwapHandler,
	teamHandler *handlers.TeamHandler,
	playerHandler *handlers.PlayerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	adminOnly := func(r chi.Router) chi.Router {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))
		return r
	}

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/standings", tournamentHandler.Standings)
		r.Get("/{tournamentID}/player-rankings", tournamentHandler.PlayerRankings)
		r.Get("/{tournamentID}/refresh", tournamentHandler.Refresh)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)
		r.Get("/{tournamentID}/teams", teamHandler.ListByTournament)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/", tournamentHandler.Create)
			r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatus)
			r.Post("/{tournamentID}/matches", tournamentHandler.ScheduleMatches)
			r.Put("/{tournamentID}/rounds/{roundNumber}/schedule", tournamentHandler.RescheduleRound)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}/swaps", swapHandler.History)
		r.Get("/{matchID}/games/{gameID}/available-swaps", swapHandler.AvailableSwaps)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Put("/{matchID}/boards/{boardNumber}/result", matchHandler.SubmitBoardResult)
			r.Put("/{matchID}/results", matchHandler.SubmitMatchResults)
			r.Post("/{matchID}/games/{gameID}/validate-swap", swapHandler.Validate)
			r.Post("/{matchID}/games/{gameID}/swap", swapHandler.Apply)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/", teamHandler.Create)
			r.Patch("/{teamID}", teamHandler.Rename)
			r.Post("/{teamID}/logo", teamHandler.UploadLogo)
			r.Delete("/{teamID}", teamHandler.Delete)
			r.Post("/{teamID}/players", playerHandler.Add)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", playerHandler.Get)
		r.Get("/{playerID}/stats", playerHandler.Stats)

		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Patch("/{playerID}", playerHandler.Update)
			r.Delete("/{playerID}", playerHandler.Remove)
			r.Post("/swap-positions", playerHandler.SwapPositions)
		})
	})
}
