package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sharebook-app/sharebook/internal/models"
	"github.com/sharebook-app/sharebook/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type FollowRequestBody struct {
	Nickname string `json:"nickname"`
}

type FollowRequestsResponse struct {
	Requests []models.FollowRequest `json:"requests"`
}

// Follow creates a pending follow edge toward the named user.
func (h *FriendHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req FollowRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "Nickname is required")
		return
	}

	err := h.friendService.Follow(r.Context(), user.ID, req.Nickname)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrCannotFollowSelf):
		writeError(w, http.StatusPreconditionFailed, "Cannot follow yourself")
	case errors.Is(err, services.ErrAlreadyFollowing):
		writeError(w, http.StatusForbidden, "Follow request already exists")
	case err != nil:
		log.Printf("Error creating follow request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusCreated, MessageResponse{Message: "Follow request sent"})
	}
}

// Approve turns the named user's pending request into an approved edge.
func (h *FriendHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	nickname := r.PathValue("nickname")
	err := h.friendService.Approve(r.Context(), user.ID, nickname)
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "Follow request not found")
	case errors.Is(err, services.ErrAlreadyApproved):
		writeError(w, http.StatusConflict, "Follow request already approved")
	case err != nil:
		log.Printf("Error approving follow request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Follow request approved"})
	}
}

// Reject removes the named user's pending request. Approved edges are
// untouched; those are removed by the follower via Unfollow.
func (h *FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	nickname := r.PathValue("nickname")
	err := h.friendService.Reject(r.Context(), user.ID, nickname)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrNoPendingRequest):
		writeError(w, http.StatusForbidden, "No pending follow request from this user")
	case err != nil:
		log.Printf("Error rejecting follow request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Follow request rejected"})
	}
}

// Unfollow removes the caller's approved edge toward the named user.
func (h *FriendHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	nickname := r.PathValue("nickname")
	err := h.friendService.Unfollow(r.Context(), user.ID, nickname)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrNotFollowing):
		writeError(w, http.StatusForbidden, "Not following this user")
	case err != nil:
		log.Printf("Error unfollowing: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Unfollowed"})
	}
}

// ListRequests returns the pending requests waiting on the caller.
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.friendService.ListRequests(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing follow requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FollowRequestsResponse{Requests: requests})
}
