package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"keymate/provider"
)

const maxNotifications = 20

var (
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotValidated is returned when an operation needs a validated key
	ErrNotValidated = errors.New("no validated API key in session")
)

// Notification is a short message shown once by the dashboard.
type Notification struct {
	Level     string    `json:"level"` // "info", "success", "warning", "error"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the dashboard state of one browser tab.
// apiKey lives only here and is never serialised.
type Session struct {
	ID            string
	apiKey        string
	Provider      string
	Valid         *bool
	StatusMessage string
	Models        []provider.Model
	AccountStatus *provider.AccountStatus
	Summary       *provider.Summary
	SelectedModel string
	RawJSON       json.RawMessage
	Notifications []Notification
	CreatedAt     time.Time
	LastSeen      time.Time
}

// SessionView is the secret-free copy of a session returned to callers.
type SessionView struct {
	ID            string                  `json:"session_id"`
	MaskedKey     string                  `json:"masked_key"`
	Provider      string                  `json:"provider"`
	Valid         *bool                   `json:"valid"`
	StatusMessage string                  `json:"status_message"`
	ModelCount    int                     `json:"model_count"`
	AccountStatus *provider.AccountStatus `json:"account_status,omitempty"`
	Summary       *provider.Summary       `json:"summary,omitempty"`
	SelectedModel string                  `json:"selected_model,omitempty"`
	RawJSON       json.RawMessage         `json:"raw_json,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	LastSeen      time.Time               `json:"last_seen"`

	models []provider.Model
}

// SessionStore manages sessions
type SessionStore struct {
	sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func generateSessionID() string {
	return uuid.New().String()
}

func sessionLogger(id string) *logrus.Entry {
	return log.WithField("session_id", id)
}

// Create registers a fresh session
func (store *SessionStore) Create() SessionView {
	store.Lock()
	defer store.Unlock()

	now := store.now()
	s := &Session{
		ID:            generateSessionID(),
		Notifications: []Notification{},
		CreatedAt:     now,
		LastSeen:      now,
	}
	store.sessions[s.ID] = s
	sessionLogger(s.ID).Debug("Session created")
	return s.view()
}

// Get returns a copy of the session and marks it as seen.
func (store *SessionStore) Get(id string) (SessionView, error) {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(), nil
}

// touch must be called with the lock held
func (store *SessionStore) touch(id string) (*Session, error) {
	s, exists := store.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.LastSeen = store.now()
	return s, nil
}

// SetKey stores a new key and provider. Replacing an earlier pair clears
// everything derived from it and reports changed. An empty providerID asks
// for detection and keeps whatever provider the same key resolved to before.
func (store *SessionStore) SetKey(id, apiKey, providerID string) (changed bool, err error) {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return false, err
	}
	if s.apiKey == apiKey && (providerID == "" || s.Provider == providerID) {
		return false, nil
	}

	changed = s.apiKey != ""
	s.apiKey = apiKey
	s.Provider = providerID
	s.Valid = nil
	s.StatusMessage = ""
	s.clearModels()
	sessionLogger(id).WithField("key", provider.MaskKey(apiKey)).Debug("Session key set")
	return changed, nil
}

// RecordValidation stores the outcome of a validation or detection.
func (store *SessionStore) RecordValidation(id, providerID string, result *provider.Result) error {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return err
	}

	valid := result != nil && result.Valid
	s.Valid = &valid
	if providerID != "" {
		s.Provider = providerID
	}
	if result != nil {
		s.StatusMessage = result.Message
	}
	if valid {
		s.setModels(result.Models)
	} else {
		s.clearModels()
	}
	return nil
}

// SetModels replaces the cached model list.
func (store *SessionStore) SetModels(id string, models []provider.Model) error {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return err
	}
	s.setModels(models)
	return nil
}

// Refresh drops the cached models so the next read lists them again.
func (store *SessionStore) Refresh(id string) error {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return err
	}
	s.clearModels()
	return nil
}

// Select records the model whose details are on screen.
func (store *SessionStore) Select(id, modelID string, raw json.RawMessage) error {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return err
	}
	s.SelectedModel = modelID
	s.RawJSON = raw
	return nil
}

// Credentials returns the key and provider of a validated session.
func (store *SessionStore) Credentials(id string) (apiKey, providerID string, err error) {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return "", "", err
	}
	if s.apiKey == "" || s.Valid == nil || !*s.Valid {
		return "", "", ErrNotValidated
	}
	return s.apiKey, s.Provider, nil
}

// Notify appends a notification, dropping the oldest past the cap.
func (store *SessionStore) Notify(id, level, message string) error {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return err
	}
	s.notify(level, message, store.now())
	return nil
}

// DrainNotifications returns and clears the pending notifications.
func (store *SessionStore) DrainNotifications(id string) ([]Notification, error) {
	store.Lock()
	defer store.Unlock()

	s, err := store.touch(id)
	if err != nil {
		return nil, err
	}
	out := s.Notifications
	s.Notifications = []Notification{}
	return out, nil
}

// SweepIdle deletes sessions not seen within ttl and returns how many went.
func (store *SessionStore) SweepIdle(ttl time.Duration) int {
	store.Lock()
	defer store.Unlock()

	cutoff := store.now().Add(-ttl)
	removed := 0
	for id, s := range store.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(store.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (store *SessionStore) Len() int {
	store.RLock()
	defer store.RUnlock()
	return len(store.sessions)
}

func (s *Session) notify(level, message string, at time.Time) {
	s.Notifications = append(s.Notifications, Notification{Level: level, Message: message, CreatedAt: at})
	if n := len(s.Notifications); n > maxNotifications {
		s.Notifications = append([]Notification(nil), s.Notifications[n-maxNotifications:]...)
	}
}

func (s *Session) setModels(models []provider.Model) {
	s.Models = append([]provider.Model(nil), models...)
	status := provider.GetAccountStatus(s.Provider, s.Models)
	summary := provider.Summarize(s.Provider, s.Models)
	s.AccountStatus = &status
	s.Summary = &summary
}

func (s *Session) clearModels() {
	s.Models = nil
	s.AccountStatus = nil
	s.Summary = nil
	s.SelectedModel = ""
	s.RawJSON = nil
}

func (s *Session) view() SessionView {
	v := SessionView{
		ID:            s.ID,
		MaskedKey:     provider.MaskKey(s.apiKey),
		Provider:      s.Provider,
		StatusMessage: s.StatusMessage,
		ModelCount:    len(s.Models),
		SelectedModel: s.SelectedModel,
		RawJSON:       s.RawJSON,
		CreatedAt:     s.CreatedAt,
		LastSeen:      s.LastSeen,
		models:        append([]provider.Model(nil), s.Models...),
	}
	if s.Valid != nil {
		valid := *s.Valid
		v.Valid = &valid
	}
	if s.AccountStatus != nil {
		status := *s.AccountStatus
		v.AccountStatus = &status
	}
	if s.Summary != nil {
		summary := *s.Summary
		v.Summary = &summary
	}
	return v
}
