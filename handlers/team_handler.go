package handlers

import (
	"net/http"
	"strconv"

	"github.com/MarioKartCentral/registry/middleware"
	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
	"github.com/MarioKartCentral/registry/services"
)

type TeamHandler struct {
	teamService   services.TeamService
	rosterService services.RosterService
}

func NewTeamHandler(teamService services.TeamService, rosterService services.RosterService) *TeamHandler {
	return &TeamHandler{teamService: teamService, rosterService: rosterService}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CreatorPlayerID = playerID

	team, err := h.teamService.CreateTeam(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil)
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTeamsFilter{Limit: 50}

	q := r.URL.Query()
	if game := q.Get("game"); game != "" {
		filter.Game = &game
	}
	if status := q.Get("approval_status"); status != "" {
		s := models.ApprovalStatus(status)
		filter.ApprovalStatus = &s
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	teams, err := h.teamService.ListTeams(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil)
}

func (h *TeamHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Description *string `json:"description"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.UpdateDescription(r.Context(), teamID, input.Description); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "description updated"}, nil)
}

func (h *TeamHandler) SetHistorical(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		IsHistorical bool `json:"is_historical"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.SetHistorical(r.Context(), teamID, input.IsHistorical); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team updated"}, nil)
}

func (h *TeamHandler) CreateRoster(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateRosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TeamID = teamID

	roster, err := h.rosterService.CreateRoster(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"roster": roster}, nil)
}

func (h *TeamHandler) ListRosters(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rosters, err := h.rosterService.ListTeamRosters(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"rosters": rosters}, nil)
}

func (h *TeamHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.rosterService.GetRoster(r.Context(), rosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"roster": roster}, nil)
}

func (h *TeamHandler) EditRoster(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EditRosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.rosterService.EditRoster(r.Context(), rosterID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"roster": roster}, nil)
}

func (h *TeamHandler) SetRosterRecruiting(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		IsRecruiting bool `json:"is_recruiting"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.SetRecruiting(r.Context(), rosterID, input.IsRecruiting); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "roster updated"}, nil)
}

func (h *TeamHandler) SetRosterActive(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		IsActive bool `json:"is_active"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.SetActive(r.Context(), rosterID, input.IsActive); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "roster updated"}, nil)
}

func (h *TeamHandler) AddRosterMember(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerID       int  `json:"player_id"`
		IsBaggerClause bool `json:"is_bagger_clause"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.AddMember(r.Context(), rosterID, input.PlayerID, input.IsBaggerClause); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"message": "member added"}, nil)
}

func (h *TeamHandler) RemoveRosterMember(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerID       int  `json:"player_id"`
		IsBaggerClause bool `json:"is_bagger_clause"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.RemoveMember(r.Context(), rosterID, input.PlayerID, input.IsBaggerClause); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "member removed"}, nil)
}
