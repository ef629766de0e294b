package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharebook-app/sharebook/internal/testutil"
)

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil, nil, false)

	req := testutil.NewTestRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	handler.Register(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "Passw0rdOk", Nickname: "alice", Name: "Alice"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "Ab1", Nickname: "alice", Name: "Alice"}},
		{"weak password", RegisterRequest{Email: "a@example.com", Password: "alllowercase1", Nickname: "alice", Name: "Alice"}},
		{"bad nickname", RegisterRequest{Email: "a@example.com", Password: "Passw0rdOk", Nickname: "a!", Name: "Alice"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "Passw0rdOk", Nickname: "alice"}},
		{"bad picture", RegisterRequest{Email: "a@example.com", Password: "Passw0rdOk", Nickname: "alice", Name: "Alice", Picture: "ftp://x/y.png"}},
	}

	handler := NewAuthHandler(nil, nil, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/api/auth/register", tt.req)
			rr := httptest.NewRecorder()

			handler.Register(rr, req)

			testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
		})
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler := NewAuthHandler(nil, nil, false)

	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@example.com"})
	rr := httptest.NewRecorder()

	handler.Login(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "error", "Email and password are required")
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Passw0rd", true},
		{"short1A", false},
		{"nouppercase1", false},
		{"NOLOWERCASE1", false},
		{"NoDigitsHere", false},
	}

	for _, tt := range tests {
		if got := validatePassword(tt.password) == ""; got != tt.valid {
			t.Errorf("validatePassword(%q): expected valid=%v", tt.password, tt.valid)
		}
	}
}

func TestIsValidPictureURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://cdn.example.com/me.png", true},
		{"http://cdn.example.com/me.JPG", true},
		{"https://cdn.example.com/me.webp", true},
		{"https://cdn.example.com/me.pdf", false},
		{"ftp://cdn.example.com/me.png", false},
		{"not a url at all .png", false},
	}

	for _, tt := range tests {
		if got := isValidPictureURL(tt.url); got != tt.valid {
			t.Errorf("isValidPictureURL(%q): expected %v, got %v", tt.url, tt.valid, got)
		}
	}
}
