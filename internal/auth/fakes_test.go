package auth

import (
	"context"
	"sync"

	"github.com/ekinyurt/auth-service/internal/models"
	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository enforcing the same uniqueness
// rules as the Postgres schema: email, and (provider, external_id).
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) FindByExternalID(_ context.Context, provider, externalID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider != nil && u.ExternalID != nil && *u.Provider == provider && *u.ExternalID == externalID {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeUserRepo) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return ErrConflict
		}
		if u.Provider != nil && u.ExternalID != nil &&
			user.Provider != nil && user.ExternalID != nil &&
			*u.Provider == *user.Provider && *u.ExternalID == *user.ExternalID {
			return ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// recordingNotifier captures outgoing mail and can be told to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (n *recordingNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
