// Package session keeps the bearer token and the identity decoded from it.
package session

import (
	"log/slog"
	"sync"
	"time"

	"kiraye/api"
	"kiraye/models"
)

const (
	keyToken = "token"
	keyName  = "userName"
	keyEmail = "userEmail"
	keyPhone = "userPhone"
)

// Store persists session fields across restarts.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Profile holds the display fields returned alongside a token.
type Profile struct {
	UserName string
	Email    string
	Phone    string
}

// Event is delivered to subscribers after every login or logout.
type Event struct {
	Identity models.Identity
}

// State is shared by every view. Command goroutines read the token while
// the UI loop may be logging out, so access is locked.
type State struct {
	mu sync.RWMutex
	id models.Identity

	store  Store
	logger *slog.Logger
	now    func() time.Time

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func New(store Store, logger *slog.Logger) *State {
	return &State{
		store:  store,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]func(Event)),
	}
}

// Restore loads a previously persisted session. A stored token that no
// longer decodes is discarded.
func (s *State) Restore() error {
	if s.store == nil {
		return nil
	}

	token, ok, err := s.store.Get(keyToken)
	if err != nil || !ok {
		return err
	}

	profile := Profile{}
	profile.UserName, _, _ = s.store.Get(keyName)
	profile.Email, _, _ = s.store.Get(keyEmail)
	profile.Phone, _, _ = s.store.Get(keyPhone)

	id, err := s.identityFor(token, profile)
	if err != nil {
		s.logger.Info("discarding stored session", "reason", err)
		s.clearStore()
		return nil
	}

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	s.notify()
	return nil
}

// Login stores token and its decoded identity. A token that cannot be
// decoded leaves the state logged out; it never fails loudly.
func (s *State) Login(token string, profile Profile) bool {
	id, err := s.identityFor(token, profile)
	if err != nil {
		s.logger.Warn("rejected token", "reason", err)
		s.Logout()
		return false
	}

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()

	s.persist(id)
	s.logger.Info("signed in", "user", id.UserName, "role", string(id.Role))
	s.notify()
	return true
}

// Logout clears everything before returning.
func (s *State) Logout() {
	s.mu.Lock()
	wasIn := s.id.LoggedIn()
	s.id = models.Identity{}
	s.mu.Unlock()

	s.clearStore()
	if wasIn {
		s.logger.Info("signed out")
	}
	s.notify()
}

func (s *State) Identity() models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id.Token
}

func (s *State) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id.Role
}

func (s *State) LoggedIn() bool {
	id := s.Identity()
	return id.LoggedIn() && !id.Expired(s.now())
}

// RequireToken returns the bearer token, or api.ErrUnauthenticated so
// privileged operations can stop before touching the network. A token
// that expired since login ends the session here.
func (s *State) RequireToken() (string, error) {
	id := s.Identity()
	if !id.LoggedIn() {
		return "", api.ErrUnauthenticated
	}
	if id.Expired(s.now()) {
		s.expire(id.Token)
		return "", api.ErrUnauthenticated
	}
	return id.Token, nil
}

// expire logs out, unless a newer login already replaced token.
func (s *State) expire(token string) {
	s.mu.Lock()
	if s.id.Token != token {
		s.mu.Unlock()
		return
	}
	s.id = models.Identity{}
	s.mu.Unlock()

	s.clearStore()
	s.logger.Info("session expired")
	s.notify()
}

// Subscribe registers fn for change events and returns its cancel func.
func (s *State) Subscribe(fn func(Event)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *State) notify() {
	s.subsMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	ev := Event{Identity: s.Identity()}
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *State) identityFor(token string, profile Profile) (models.Identity, error) {
	c, err := decodeToken(token, s.now())
	if err != nil {
		return models.Identity{}, err
	}

	id := models.Identity{
		Token:    token,
		UserID:   c.UserID,
		Role:     c.Role,
		UserName: profile.UserName,
		Email:    profile.Email,
		Phone:    profile.Phone,

		ExpiresAt: c.Expires,
	}
	if id.UserName == "" {
		id.UserName = c.Name
	}
	if id.Email == "" {
		id.Email = c.Email
	}
	return id, nil
}

func (s *State) persist(id models.Identity) {
	if s.store == nil {
		return
	}
	for k, v := range map[string]string{
		keyToken: id.Token,
		keyName:  id.UserName,
		keyEmail: id.Email,
		keyPhone: id.Phone,
	} {
		if err := s.store.Set(k, v); err != nil {
			s.logger.Warn("persist session", "key", k, "error", err)
		}
	}
}

func (s *State) clearStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(keyToken, keyName, keyEmail, keyPhone); err != nil {
		s.logger.Warn("clear session", "error", err)
	}
}
