package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wildAppAPI/internal/challenge"
	"wildAppAPI/services"
)

type SubmissionHandler struct {
	moderationService *services.ModerationService
}

func NewSubmissionHandler(moderationService *services.ModerationService) *SubmissionHandler {
	return &SubmissionHandler{moderationService: moderationService}
}

// SubmitChallenge takes a JSON body, or a multipart form whose "photo" file
// is stored alongside the submission.
func (h *SubmissionHandler) SubmitChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var (
		req         challenge.SubmitRequest
		photo       []byte
		contentType string
	)
	if isMultipart(r) {
		var err error
		photo, contentType, err = readUpload(w, r, "photo")
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		req.ChallengeName = r.FormValue("challenge_name")
		req.Category = r.FormValue("category")
		req.Description = r.FormValue("description")
		req.Caption = r.FormValue("caption")
	} else if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.moderationService.SubmitChallenge(ctx, sessionFrom(r), &req, photo, contentType)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	subs, err := h.moderationService.ListMySubmissions(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	subs, err := h.moderationService.ListPending(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.moderationService.ReviewSubmission(ctx, sessionFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}
