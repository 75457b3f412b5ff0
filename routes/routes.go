package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MarioKartCentral/registry/handlers"
	"github.com/MarioKartCentral/registry/middleware"
	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/services"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	permSvc services.PermissionService,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	teamHandler *handlers.TeamHandler,
	transferHandler *handlers.TransferHandler,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	approvalHandler *handlers.ApprovalHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.Me)
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", playerHandler.Get)
		r.Get("/{playerID}/transfers", transferHandler.PlayerHistory)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", playerHandler.Create)
			r.Post("/friend-codes", playerHandler.AddFriendCode)
			r.Patch("/friend-codes/{fcID}", playerHandler.SetFriendCodeActive)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequirePermission(permSvc, models.PermBanPlayers))
			r.Post("/{playerID}/ban", playerHandler.Ban)
			r.Delete("/{playerID}/ban", playerHandler.Unban)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{teamID}", teamHandler.Get)
		r.Get("/{teamID}/rosters", teamHandler.ListRosters)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.Create)
			r.Post("/{teamID}/edit-requests", approvalHandler.RequestTeamEdit)
		})

		// Управление командой: капитаны/менеджеры с ролью на команду или стафф.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequirePermission(permSvc, models.PermManageTeams))
			r.Put("/{teamID}/description", teamHandler.UpdateDescription)
			r.Put("/{teamID}/historical", teamHandler.SetHistorical)
			r.Post("/{teamID}/rosters", teamHandler.CreateRoster)
		})
	})

	router.Route("/rosters", func(r chi.Router) {
		r.Get("/{rosterID}", teamHandler.GetRoster)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{rosterID}/edit-requests", approvalHandler.RequestRosterEdit)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequirePermission(permSvc, models.PermManageTeams))
			r.Put("/{rosterID}", teamHandler.EditRoster)
			r.Put("/{rosterID}/recruiting", teamHandler.SetRosterRecruiting)
			r.Put("/{rosterID}/active", teamHandler.SetRosterActive)
			r.Post("/{rosterID}/members", teamHandler.AddRosterMember)
			r.Delete("/{rosterID}/members", teamHandler.RemoveRosterMember)
		})
	})

	router.Route("/transfers", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", transferHandler.Invite)
		r.Post("/{transferID}/accept", transferHandler.Accept)
		r.Post("/{transferID}/decline", transferHandler.Decline)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(permSvc, models.PermManageTransfers))
			r.Get("/pending", transferHandler.ListPending)
			r.Post("/{transferID}/approve", transferHandler.Approve)
			r.Post("/{transferID}/deny", transferHandler.Deny)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/squads", registrationHandler.ListSquads)
		r.Get("/{tournamentID}/players", registrationHandler.ListPlayers)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/register", registrationHandler.RegisterSolo)
			r.Post("/{tournamentID}/squads", registrationHandler.CreateSquad)
			r.Post("/{tournamentID}/squads/{registrationID}/invites", registrationHandler.InviteToSquad)
			r.Delete("/{tournamentID}/squads/{registrationID}/players/me", registrationHandler.Unregister)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequirePermission(permSvc, models.PermManageTournaments))
			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Put("/{tournamentID}/registrations-open", tournamentHandler.SetRegistrationsOpen)
			r.Put("/{tournamentID}/description", tournamentHandler.UpdateDescription)
		})
	})

	router.Route("/squads", func(r chi.Router) {
		r.Get("/{registrationID}", registrationHandler.GetSquad)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/invites/{tournamentPlayerID}/accept", registrationHandler.AcceptSquadInvite)
			r.Post("/invites/{tournamentPlayerID}/decline", registrationHandler.DeclineSquadInvite)
			r.Post("/{registrationID}/kick", registrationHandler.KickFromSquad)
			r.Post("/{registrationID}/captain", registrationHandler.ChangeCaptain)
			r.Post("/{registrationID}/withdraw", registrationHandler.WithdrawSquad)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequirePermission(permSvc, models.PermManageRegistrations))
			r.Post("/{registrationID}/force-withdraw", registrationHandler.ForceWithdrawSquad)
			r.Post("/{registrationID}/rosters", registrationHandler.LinkRoster)
			r.Delete("/{registrationID}/rosters", registrationHandler.UnlinkRoster)
		})
	})

	router.Route("/moderation", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequirePermission(permSvc, models.PermManageTeams))

		r.Post("/teams/{teamID}/approve", approvalHandler.ApproveTeam)
		r.Post("/teams/{teamID}/deny", approvalHandler.DenyTeam)
		r.Post("/rosters/{rosterID}/approve", approvalHandler.ApproveRoster)
		r.Post("/rosters/{rosterID}/deny", approvalHandler.DenyRoster)

		r.Get("/team-edits", approvalHandler.ListPendingTeamEdits)
		r.Post("/team-edits/{requestID}/approve", approvalHandler.ApproveTeamEdit)
		r.Post("/team-edits/{requestID}/deny", approvalHandler.DenyTeamEdit)
		r.Get("/roster-edits", approvalHandler.ListPendingRosterEdits)
		r.Post("/roster-edits/{requestID}/approve", approvalHandler.ApproveRosterEdit)
		r.Post("/roster-edits/{requestID}/deny", approvalHandler.DenyRosterEdit)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws/notifications", webSocketHandler.ServeNotifications)
	})
}
