package main

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keymate/provider"
)

func newTestStore() (*SessionStore, *time.Time) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore()
	store.now = func() time.Time { return now }
	return store, &now
}

func validResult(models ...string) *provider.Result {
	r := &provider.Result{Provider: "openai", Valid: true, Status: provider.StatusValid, Message: "Valid OpenAI API key (Paid account)"}
	for _, id := range models {
		r.Models = append(r.Models, provider.Model{ID: id})
	}
	return r
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore()

	view := store.Create()
	assert.NotEmpty(t, view.ID)
	assert.Empty(t, view.MaskedKey)
	assert.Nil(t, view.Valid)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	_, err = store.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_SetKey(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID

	changed, err := store.SetKey(id, "sk-first-key", "openai")
	require.NoError(t, err)
	assert.False(t, changed, "first key is not a change")

	require.NoError(t, store.RecordValidation(id, "openai", validResult("gpt-4o")))
	require.NoError(t, store.Select(id, "gpt-4o", json.RawMessage(`{"id":"gpt-4o"}`)))

	changed, err = store.SetKey(id, "sk-first-key", "openai")
	require.NoError(t, err)
	assert.False(t, changed)
	view, _ := store.Get(id)
	assert.Equal(t, 1, view.ModelCount, "same key keeps the cache")

	changed, err = store.SetKey(id, "sk-second-key", "openai")
	require.NoError(t, err)
	assert.True(t, changed)

	view, _ = store.Get(id)
	assert.Equal(t, "sk-…ey", view.MaskedKey)
	assert.Nil(t, view.Valid)
	assert.Zero(t, view.ModelCount)
	assert.Empty(t, view.SelectedModel)
	assert.Nil(t, view.RawJSON)
	assert.Nil(t, view.AccountStatus)
}

func TestSessionStore_SetKeyAutoKeepsCache(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID

	_, err := store.SetKey(id, "sk-auto-key", "")
	require.NoError(t, err)
	require.NoError(t, store.RecordValidation(id, "openai", validResult("gpt-4o")))

	changed, err := store.SetKey(id, "sk-auto-key", "")
	require.NoError(t, err)
	assert.False(t, changed, "same key in auto mode is not a change")

	view, _ := store.Get(id)
	assert.Equal(t, "openai", view.Provider)
	assert.Equal(t, 1, view.ModelCount)
	require.NotNil(t, view.Valid)
	assert.True(t, *view.Valid)

	changed, err = store.SetKey(id, "sk-other-key", "")
	require.NoError(t, err)
	assert.True(t, changed)
	view, _ = store.Get(id)
	assert.Zero(t, view.ModelCount)
}

func TestSessionStore_RecordValidation(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID
	_, err := store.SetKey(id, "sk-key-value", "")
	require.NoError(t, err)

	require.NoError(t, store.RecordValidation(id, "openai", validResult("gpt-4o", "whisper-1")))
	view, err := store.Get(id)
	require.NoError(t, err)
	require.NotNil(t, view.Valid)
	assert.True(t, *view.Valid)
	assert.Equal(t, "openai", view.Provider)
	assert.Equal(t, 2, view.ModelCount)
	require.NotNil(t, view.AccountStatus)
	assert.True(t, view.AccountStatus.IsPaid)
	require.NotNil(t, view.Summary)
	assert.Equal(t, 2, view.Summary.TotalModels)

	apiKey, providerID, err := store.Credentials(id)
	require.NoError(t, err)
	assert.Equal(t, "sk-key-value", apiKey)
	assert.Equal(t, "openai", providerID)

	invalid := &provider.Result{Provider: "openai", Status: provider.StatusInvalid, Message: "Invalid OpenAI API key - Authentication failed"}
	require.NoError(t, store.RecordValidation(id, "openai", invalid))
	view, _ = store.Get(id)
	assert.False(t, *view.Valid)
	assert.Zero(t, view.ModelCount)
	assert.Equal(t, invalid.Message, view.StatusMessage)

	_, _, err = store.Credentials(id)
	assert.ErrorIs(t, err, ErrNotValidated)
}

func TestSessionStore_ViewIsACopy(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID
	_, _ = store.SetKey(id, "sk-key-value", "openai")
	require.NoError(t, store.RecordValidation(id, "openai", validResult("gpt-4o")))

	view, _ := store.Get(id)
	*view.Valid = false
	view.AccountStatus.AccountType = "Tampered"
	view.models[0].ID = "changed"

	again, _ := store.Get(id)
	assert.True(t, *again.Valid)
	assert.NotEqual(t, "Tampered", again.AccountStatus.AccountType)
	assert.Equal(t, "gpt-4o", again.models[0].ID)
}

func TestSessionStore_RefreshAndSetModels(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID
	_, _ = store.SetKey(id, "sk-key-value", "openai")
	require.NoError(t, store.RecordValidation(id, "openai", validResult("gpt-4o")))

	require.NoError(t, store.Refresh(id))
	view, _ := store.Get(id)
	assert.Zero(t, view.ModelCount)
	assert.True(t, *view.Valid, "refresh keeps the validation")

	require.NoError(t, store.SetModels(id, []provider.Model{{ID: "a"}, {ID: "b"}, {ID: "c"}}))
	view, _ = store.Get(id)
	assert.Equal(t, 3, view.ModelCount)

	assert.ErrorIs(t, store.Refresh("nope"), ErrSessionNotFound)
	assert.ErrorIs(t, store.SetModels("nope", nil), ErrSessionNotFound)
}

func TestSessionStore_Notifications(t *testing.T) {
	store, _ := newTestStore()
	id := store.Create().ID

	for i := 0; i < maxNotifications+5; i++ {
		require.NoError(t, store.Notify(id, "info", fmt.Sprintf("message %d", i)))
	}

	notes, err := store.DrainNotifications(id)
	require.NoError(t, err)
	require.Len(t, notes, maxNotifications)
	assert.Equal(t, "message 5", notes[0].Message)
	assert.Equal(t, fmt.Sprintf("message %d", maxNotifications+4), notes[len(notes)-1].Message)

	notes, err = store.DrainNotifications(id)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.ErrorIs(t, store.Notify("nope", "info", "x"), ErrSessionNotFound)
}

func TestSessionStore_SweepIdle(t *testing.T) {
	store, now := newTestStore()
	stale := store.Create().ID
	*now = now.Add(20 * time.Minute)
	fresh := store.Create().ID
	*now = now.Add(15 * time.Minute)

	removed := store.SweepIdle(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(fresh)
	assert.NoError(t, err)
}
