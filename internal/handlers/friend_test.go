package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
	"github.com/sharebook-app/sharebook/internal/services"
	"github.com/sharebook-app/sharebook/internal/testutil"
)

type stubFriendService struct {
	followErr    error
	approveErr   error
	rejectErr    error
	unfollowErr  error
	requests     []models.FollowRequest
	requestsErr  error
	lastNickname string
}

func (s *stubFriendService) Follow(ctx context.Context, actorID uuid.UUID, targetNickname string) error {
	s.lastNickname = targetNickname
	return s.followErr
}

func (s *stubFriendService) Approve(ctx context.Context, actorID uuid.UUID, requesterNickname string) error {
	s.lastNickname = requesterNickname
	return s.approveErr
}

func (s *stubFriendService) Reject(ctx context.Context, actorID uuid.UUID, requesterNickname string) error {
	s.lastNickname = requesterNickname
	return s.rejectErr
}

func (s *stubFriendService) Unfollow(ctx context.Context, actorID uuid.UUID, targetNickname string) error {
	s.lastNickname = targetNickname
	return s.unfollowErr
}

func (s *stubFriendService) ListRequests(ctx context.Context, actorID uuid.UUID) ([]models.FollowRequest, error) {
	return s.requests, s.requestsErr
}

func authenticatedRequest(req *http.Request) *http.Request {
	user := &models.User{ID: uuid.New(), Nickname: "me"}
	return req.WithContext(SetUserInContext(req.Context(), user))
}

func TestFriendHandler_Follow_Unauthenticated(t *testing.T) {
	handler := NewFriendHandler(&stubFriendService{})

	req := testutil.NewTestRequest(http.MethodPost, "/api/friends/follow", nil)
	rr := httptest.NewRecorder()

	handler.Follow(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusUnauthorized)
}

func TestFriendHandler_Follow_InvalidBody(t *testing.T) {
	handler := NewFriendHandler(&stubFriendService{})

	req := authenticatedRequest(testutil.NewTestRequest(http.MethodPost, "/api/friends/follow", bytes.NewBufferString("invalid")))
	rr := httptest.NewRecorder()

	handler.Follow(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
}

func TestFriendHandler_Follow_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, http.StatusCreated},
		{"unknown target", services.ErrUserNotFound, http.StatusNotFound},
		{"self follow", services.ErrCannotFollowSelf, http.StatusPreconditionFailed},
		{"duplicate", services.ErrAlreadyFollowing, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubFriendService{followErr: tt.err}
			handler := NewFriendHandler(svc)

			req := authenticatedRequest(testutil.NewTestRequestWithJSON(t, http.MethodPost, "/api/friends/follow", FollowRequestBody{Nickname: "bob"}))
			rr := httptest.NewRecorder()

			handler.Follow(rr, req)

			testutil.AssertStatusCode(t, rr, tt.expected)
			if svc.lastNickname != "bob" {
				t.Errorf("expected nickname to reach the service, got %q", svc.lastNickname)
			}
		})
	}
}

func TestFriendHandler_Approve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, http.StatusOK},
		{"no request", services.ErrRequestNotFound, http.StatusNotFound},
		{"unknown requester", services.ErrUserNotFound, http.StatusNotFound},
		{"already approved", services.ErrAlreadyApproved, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewFriendHandler(&stubFriendService{approveErr: tt.err})

			req := authenticatedRequest(testutil.NewTestRequest(http.MethodPut, "/api/friends/alice/approve", nil))
			req.SetPathValue("nickname", "alice")
			rr := httptest.NewRecorder()

			handler.Approve(rr, req)

			testutil.AssertStatusCode(t, rr, tt.expected)
		})
	}
}

func TestFriendHandler_Reject_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, http.StatusOK},
		{"no pending request", services.ErrNoPendingRequest, http.StatusForbidden},
		{"unknown requester", services.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewFriendHandler(&stubFriendService{rejectErr: tt.err})

			req := authenticatedRequest(testutil.NewTestRequest(http.MethodDelete, "/api/friends/alice/reject", nil))
			req.SetPathValue("nickname", "alice")
			rr := httptest.NewRecorder()

			handler.Reject(rr, req)

			testutil.AssertStatusCode(t, rr, tt.expected)
		})
	}
}

func TestFriendHandler_Unfollow_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, http.StatusOK},
		{"edge absent", services.ErrNotFollowing, http.StatusForbidden},
		{"unknown target", services.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewFriendHandler(&stubFriendService{unfollowErr: tt.err})

			req := authenticatedRequest(testutil.NewTestRequest(http.MethodDelete, "/api/friends/bob", nil))
			req.SetPathValue("nickname", "bob")
			rr := httptest.NewRecorder()

			handler.Unfollow(rr, req)

			testutil.AssertStatusCode(t, rr, tt.expected)
		})
	}
}

func TestFriendHandler_ListRequests(t *testing.T) {
	svc := &stubFriendService{requests: []models.FollowRequest{
		{FollowerID: uuid.New(), Nickname: "alice", Name: "Alice"},
	}}
	handler := NewFriendHandler(svc)

	req := authenticatedRequest(testutil.NewTestRequest(http.MethodGet, "/api/friends/requests", nil))
	rr := httptest.NewRecorder()

	handler.ListRequests(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var response FollowRequestsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(response.Requests) != 1 || response.Requests[0].Nickname != "alice" {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestFriendHandler_ListRequests_Empty(t *testing.T) {
	handler := NewFriendHandler(&stubFriendService{requests: []models.FollowRequest{}})

	req := authenticatedRequest(testutil.NewTestRequest(http.MethodGet, "/api/friends/requests", nil))
	rr := httptest.NewRecorder()

	handler.ListRequests(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !bytes.Contains([]byte(body), []byte(`"requests":[]`)) {
		t.Fatalf("expected empty array, got %s", body)
	}
}
