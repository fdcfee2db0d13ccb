package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wildAppAPI/internal/invite"
	"wildAppAPI/services"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req invite.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.inviteService.CreateInvite(ctx, sessionFrom(r), &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *InviteHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	invites, err := h.inviteService.ListMyInvites(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, invites)
}

func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv, err := h.inviteService.AcceptInvite(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, inv)
}

// DeclineInvite answers with the coward post that declining produces.
func (h *InviteHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.inviteService.DeclineInvite(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
