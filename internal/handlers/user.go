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

type UserHandler struct {
	userService    *services.UserService
	profileService *services.ProfileService
}

func NewUserHandler(userService *services.UserService, profileService *services.ProfileService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		profileService: profileService,
	}
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Picture *string `json:"picture,omitempty"`
	Bio     *string `json:"bio,omitempty"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

type SearchResponse struct {
	Users []models.PublicIdentity `json:"users"`
}

// Me returns the caller's own profile, email included.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.profileService.GetOwnProfile(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error loading own profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Picture != nil && *req.Picture != "" && !isValidPictureURL(*req.Picture) {
		writeError(w, http.StatusBadRequest, "Picture must be an http(s) image URL")
		return
	}

	err := h.userService.UpdateProfile(r.Context(), user.ID, req.Name, req.Picture, req.Bio)
	if errors.Is(err, services.ErrNoProfileChanges) {
		writeError(w, http.StatusBadRequest, "At least one field is required")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error updating profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Profile updated"})
}

// UpdateNickname renames the caller. The rename also rewrites the
// author nickname stored on their posts, in one transaction.
func (h *UserHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateNicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	if !nicknamePattern.MatchString(req.Nickname) {
		writeError(w, http.StatusBadRequest, "Nickname must be 3-30 characters (letters, digits, underscore)")
		return
	}

	updated, err := h.userService.UpdateNickname(r.Context(), user.ID, req.Nickname)
	if errors.Is(err, services.ErrNicknameAlreadyExists) {
		writeError(w, http.StatusConflict, "Nickname already taken")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error updating nickname: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// GetProfile resolves another user's profile through the visibility
// rules: approved followers see posts, everyone else sees the basic
// card plus the pending-request flag.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	nickname := r.PathValue("nickname")
	if nickname == "" {
		writeError(w, http.StatusBadRequest, "Nickname is required")
		return
	}

	profile, err := h.profileService.ResolveProfile(r.Context(), user.ID, nickname)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error resolving profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "Search keyword is required")
		return
	}

	users, err := h.userService.Search(r.Context(), keyword)
	if err != nil {
		log.Printf("Error searching users: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Users: users})
}
