package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

type fakeUsersRepo struct {
	byEmail map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: make(map[string]*models.User)}
}

func (r *fakeUsersRepo) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if _, ok := r.byEmail[req.Email]; ok {
		return nil, ErrEmailTaken
	}
	u := &models.User{ID: uuid.New(), Email: req.Email}
	r.byEmail[req.Email] = u
	return u, nil
}

func (r *fakeUsersRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

type fakeEnqueuer struct {
	calls int
}

func (e *fakeEnqueuer) EnqueueTeamCreation(ctx context.Context, userID uuid.UUID, email string) error {
	e.calls++
	return nil
}

func TestRegisterNormalizesEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	enq := &fakeEnqueuer{}
	app := NewApp(repo, enq)

	user, err := app.Register(context.Background(), "  Alice@Example.COM ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased trimmed form", user.Email)
	}
	if enq.calls != 1 {
		t.Errorf("enqueue calls = %d, want 1", enq.calls)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	enq := &fakeEnqueuer{}
	app := NewApp(repo, enq)

	for _, email := range []string{"", "   ", "no-at-sign"} {
		if _, err := app.Register(context.Background(), email); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Register(%q): err = %v, want ErrInvalidEmail", email, err)
		}
	}
	if enq.calls != 0 {
		t.Errorf("enqueue calls = %d, want 0 for rejected input", enq.calls)
	}
}

func TestHandleRegisterStatusCodes(t *testing.T) {
	repo := newFakeUsersRepo()
	svc := NewService(NewApp(repo, &fakeEnqueuer{}))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		w := httptest.NewRecorder()
		svc.handleRegister(w, req)
		return w
	}

	if w := post(`{"email":"bob@example.com"}`); w.Code != http.StatusAccepted {
		t.Errorf("valid registration: status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w := post(`{"email":"bob@example.com"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate registration: status = %d, want %d", w.Code, http.StatusConflict)
	}
	if w := post(`{"email":"not-an-email"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid email: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
