package handlers

import (
	"net/http"

	"github.com/MarioKartCentral/registry/services"
)

type ApprovalHandler struct {
	approvalService services.ApprovalService
}

func NewApprovalHandler(approvalService services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) ApproveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.ApproveTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team approved"}, nil)
}

func (h *ApprovalHandler) DenyTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.DenyTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team denied"}, nil)
}

func (h *ApprovalHandler) ApproveRoster(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.ApproveRoster(r.Context(), rosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "roster approved"}, nil)
}

func (h *ApprovalHandler) DenyRoster(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.DenyRoster(r.Context(), rosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "roster denied"}, nil)
}

func (h *ApprovalHandler) RequestTeamEdit(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamID(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RequestTeamEditInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TeamID = teamID

	req, err := h.approvalService.RequestTeamEdit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"request": req}, nil)
}

func (h *ApprovalHandler) ApproveTeamEdit(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamID(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.ApproveTeamEdit(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "edit request approved"}, nil)
}

func (h *ApprovalHandler) DenyTeamEdit(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamID(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.DenyTeamEdit(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "edit request denied"}, nil)
}

func (h *ApprovalHandler) ListPendingTeamEdits(w http.ResponseWriter, r *http.Request) {
	requests, err := h.approvalService.ListPendingTeamEdits(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil)
}

func (h *ApprovalHandler) RequestRosterEdit(w http.ResponseWriter, r *http.Request) {
	rosterID, err := urlParamID(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RequestRosterEditInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.RosterID = rosterID

	req, err := h.approvalService.RequestRosterEdit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"request": req}, nil)
}

func (h *ApprovalHandler) ApproveRosterEdit(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamID(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.ApproveRosterEdit(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "edit request approved"}, nil)
}

func (h *ApprovalHandler) DenyRosterEdit(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamID(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.approvalService.DenyRosterEdit(r.Context(), requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "edit request denied"}, nil)
}

func (h *ApprovalHandler) ListPendingRosterEdits(w http.ResponseWriter, r *http.Request) {
	requests, err := h.approvalService.ListPendingRosterEdits(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil)
}
