package handlers

import (
	"net/http"

	"github.com/MarioKartCentral/registry/middleware"
	"github.com/MarioKartCentral/registry/services"
)

type TransferHandler struct {
	transferService services.TransferService
}

func NewTransferHandler(transferService services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var input services.InvitePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transfer, err := h.transferService.InvitePlayer(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"transfer": transfer}, nil)
}

func (h *TransferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	transferID, err := urlParamID(r, "transferID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Тело опционально: без него игрок вступает, никого не покидая.
	var input struct {
		SourceRosterID *int `json:"source_roster_id"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	transfer, err := h.transferService.AcceptInvite(r.Context(), transferID, playerID, input.SourceRosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"transfer": transfer}, nil)
}

func (h *TransferHandler) Decline(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "player profile required")
		return
	}

	transferID, err := urlParamID(r, "transferID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.transferService.DeclineInvite(r.Context(), transferID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "invite declined"}, nil)
}

func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	transferID, err := urlParamID(r, "transferID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.transferService.ApproveTransfer(r.Context(), transferID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "transfer approved"}, nil)
}

func (h *TransferHandler) Deny(w http.ResponseWriter, r *http.Request) {
	transferID, err := urlParamID(r, "transferID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		SendBack bool `json:"send_back"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.transferService.DenyTransfer(r.Context(), transferID, input.SendBack); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "transfer denied"}, nil)
}

func (h *TransferHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.transferService.ListPendingApproval(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"transfers": transfers}, nil)
}

func (h *TransferHandler) PlayerHistory(w http.ResponseWriter, r *http.Request) {
	playerID, err := urlParamID(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transfers, err := h.transferService.ListPlayerHistory(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"transfers": transfers}, nil)
}
