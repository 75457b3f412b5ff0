package handlers

import (
	"net/http"

	"github.com/MarioKartCentral/registry/middleware"
	"github.com/MarioKartCentral/registry/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) RegisterSolo(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterSoloInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID
	input.PlayerID = playerID

	tp, err := h.registrationService.RegisterSolo(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"registration": tp}, nil)
}

func (h *RegistrationHandler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateSquadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID
	input.CaptainID = playerID

	squad, err := h.registrationService.CreateSquad(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"squad": squad}, nil)
}

// InviteToSquad - капитан зовёт игрока в сквад (is_invite=true).
func (h *RegistrationHandler) InviteToSquad(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterSquadMemberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID
	input.RegistrationID = registrationID
	input.IsInvite = true

	tp, err := h.registrationService.RegisterSquadMember(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"invite": tp}, nil)
}

func (h *RegistrationHandler) AcceptSquadInvite(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	tournamentPlayerID, err := urlParamID(r, "tournamentPlayerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ConfirmSquadInviteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentPlayerID = tournamentPlayerID
	input.PlayerID = playerID

	if err := h.registrationService.AcceptSquadInvite(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "invite accepted"}, nil)
}

func (h *RegistrationHandler) DeclineSquadInvite(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	tournamentPlayerID, err := urlParamID(r, "tournamentPlayerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.DeclineSquadInvite(r.Context(), tournamentPlayerID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "invite declined"}, nil)
}

func (h *RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Unregister(r.Context(), tournamentID, registrationID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "unregistered"}, nil)
}

func (h *RegistrationHandler) KickFromSquad(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerID int `json:"player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.KickFromSquad(r.Context(), registrationID, input.PlayerID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "player removed from squad"}, nil)
}

func (h *RegistrationHandler) ChangeCaptain(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerID int `json:"player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.ChangeSquadCaptain(r.Context(), registrationID, input.PlayerID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "captain changed"}, nil)
}

func (h *RegistrationHandler) WithdrawSquad(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.WithdrawSquad(r.Context(), registrationID, actorID, false); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "squad withdrawn"}, nil)
}

// ForceWithdrawSquad - стафф-вариант без проверки капитанства.
func (h *RegistrationHandler) ForceWithdrawSquad(w http.ResponseWriter, r *http.Request) {
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.WithdrawSquad(r.Context(), registrationID, 0, true); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "squad withdrawn"}, nil)
}

func (h *RegistrationHandler) LinkRoster(w http.ResponseWriter, r *http.Request) {
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		RosterID int `json:"roster_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.LinkRosterToSquad(r.Context(), registrationID, input.RosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"message": "roster linked"}, nil)
}

func (h *RegistrationHandler) UnlinkRoster(w http.ResponseWriter, r *http.Request) {
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		RosterID int `json:"roster_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.UnlinkRosterFromSquad(r.Context(), registrationID, input.RosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "roster unlinked"}, nil)
}

func (h *RegistrationHandler) GetSquad(w http.ResponseWriter, r *http.Request) {
	registrationID, err := urlParamID(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squad, err := h.registrationService.GetSquad(r.Context(), registrationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"squad": squad}, nil)
}

func (h *RegistrationHandler) ListSquads(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	squads, err := h.registrationService.ListSquads(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"squads": squads}, nil)
}

func (h *RegistrationHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamID(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.registrationService.ListTournamentPlayers(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil)
}
