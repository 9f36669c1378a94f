package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/pkg/auth"
	"tush00nka/coachly_messaging/internal/service"

	"github.com/gorilla/mux"
)

type fakeUserService struct {
	users  map[string]*model.User
	nextID uint
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{users: make(map[string]*model.User), nextID: 1}
}

func (s *fakeUserService) CreateUser(user *model.User) error {
	user.ID = s.nextID
	s.nextID++
	s.users[user.Username] = user
	return nil
}

func (s *fakeUserService) GetUserByID(id uint) (*model.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, service.ErrUserNotFound
}

func (s *fakeUserService) GetUserByUsername(username string) (*model.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserService) UpdateUser(user *model.User) error {
	s.users[user.Username] = user
	return nil
}

func (s *fakeUserService) UsernameExists(username string) (bool, error) {
	_, ok := s.users[username]
	return ok, nil
}

func (s *fakeUserService) SearchUsers(prompt string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func newUserRouter(svc service.UserService) *mux.Router {
	router := mux.NewRouter()
	NewUserHandler(svc).RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRegisterIssuesToken(t *testing.T) {
	router := newUserRouter(newFakeUserService())

	rr := postJSON(t, router, "/register", RegisterRequest{
		Username:        "alice",
		Password:        "pass123",
		ConfirmPassword: "pass123",
		Role:            "coach",
		DisplayName:     "Alice",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp TokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Role != "coach" {
		t.Errorf("token role = %q, want coach", claims.Role)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	router := newUserRouter(newFakeUserService())

	rr := postJSON(t, router, "/register", RegisterRequest{
		Username:        "bob",
		Password:        "pass123",
		ConfirmPassword: "pass123",
		Role:            "superuser",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	router := newUserRouter(newFakeUserService())

	rr := postJSON(t, router, "/register", RegisterRequest{
		Username:        "bob",
		Password:        "pass123",
		ConfirmPassword: "other",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	svc := newFakeUserService()
	_ = svc.CreateUser(&model.User{Username: "alice"})
	router := newUserRouter(svc)

	rr := postJSON(t, router, "/register", RegisterRequest{
		Username:        "alice",
		Password:        "pass123",
		ConfirmPassword: "pass123",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestLoginChecksPassword(t *testing.T) {
	svc := newFakeUserService()
	hash, err := auth.HashPassword("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	_ = svc.CreateUser(&model.User{Username: "alice", Password: hash, Role: "client"})
	router := newUserRouter(svc)

	rr := postJSON(t, router, "/login", LoginRequest{Username: "alice", Password: "pass123"})
	if rr.Code != http.StatusCreated {
		t.Errorf("valid login status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(t, router, "/login", LoginRequest{Username: "alice", Password: "wrong"})
	if rr.Code != http.StatusConflict {
		t.Errorf("wrong password status = %d, want 409", rr.Code)
	}

	rr = postJSON(t, router, "/login", LoginRequest{Username: "nobody", Password: "x"})
	if rr.Code != http.StatusConflict {
		t.Errorf("unknown user status = %d, want 409", rr.Code)
	}
}
