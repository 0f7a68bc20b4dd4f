// Package session persists the operator's bearer token and profile between runs.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/secacademy/academy-admin/pkg/models"
)

// Storage keys, shared with the web dashboard's localStorage layout
const (
	TokenKey   = "admin_token"
	ProfileKey = "admin_data"
)

// Session is an authenticated operator session
type Session struct {
	Token   string
	Profile models.Profile
}

// Operator decodes the profile blob
func (s Session) Operator() (models.Operator, error) {
	var op models.Operator
	if err := json.Unmarshal(s.Profile, &op); err != nil {
		return op, fmt.Errorf("failed to decode operator profile: %w", err)
	}
	return op, nil
}

// Accessor reads and writes the session in a Store. It does not validate the
// token; the backend rejects stale ones.
type Accessor struct {
	store  Store
	logger *log.Logger
}

// NewAccessor creates an accessor over store. A nil logger discards output.
func NewAccessor(store Store, logger *log.Logger) *Accessor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Accessor{store: store, logger: logger}
}

// Get returns the stored session, or false when either key is missing, the
// profile is not valid JSON, or the store cannot be read
func (a *Accessor) Get() (*Session, bool) {
	token, ok, err := a.store.Get(TokenKey)
	if err != nil {
		a.logger.Printf("session: %v", err)
		return nil, false
	}
	if !ok || token == "" {
		return nil, false
	}

	profile, ok, err := a.store.Get(ProfileKey)
	if err != nil {
		a.logger.Printf("session: %v", err)
		return nil, false
	}
	if !ok || !json.Valid([]byte(profile)) {
		return nil, false
	}

	return &Session{Token: token, Profile: models.Profile(profile)}, true
}

// Set stores token and profile, replacing any previous session
func (a *Accessor) Set(token string, profile models.Profile) error {
	if !json.Valid(profile) {
		return fmt.Errorf("profile is not valid JSON")
	}
	if err := a.store.Put(TokenKey, token); err != nil {
		return err
	}
	return a.store.Put(ProfileKey, string(profile))
}

// Clear removes both keys. Clearing an empty store is not an error.
func (a *Accessor) Clear() error {
	if err := a.store.Delete(TokenKey); err != nil {
		return err
	}
	return a.store.Delete(ProfileKey)
}

// Token implements api.TokenSource
func (a *Accessor) Token() (string, bool) {
	s, ok := a.Get()
	if !ok {
		return "", false
	}
	return s.Token, true
}
