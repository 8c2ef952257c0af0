package app

import (
	"context"
	"time"

	"novelreel/internal/repo"
)

// SessionStore persists SDK session values in the workspace database so a
// login survives between CLI invocations.
type SessionStore struct {
	Repo repo.Repo
	Ctx  context.Context
	Now  func() time.Time
}

func (s SessionStore) ctx() context.Context {
	if s.Ctx != nil {
		return s.Ctx
	}
	return context.Background()
}

func (s SessionStore) now() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func (s SessionStore) Get(key string) (string, error) {
	return s.Repo.GetSession(s.ctx(), key)
}

func (s SessionStore) Set(key, value string) error {
	return s.Repo.SetSession(s.ctx(), key, value, s.now())
}

func (s SessionStore) Remove(key string) error {
	return s.Repo.DeleteSession(s.ctx(), key)
}
