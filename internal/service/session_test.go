package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/laptophub/internal/adapter"
	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/store"
)

func TestSessionService_Logout(t *testing.T) {
	session := adapter.NewSession("tok", "u1", "ana@example.com")
	repo := newFakeRepo()
	repo.seed("u1", 7, "ThinkPad X1", 1)
	cart, log := newTestService(repo, session)

	svc := NewSessionService(session, cart, nil)
	persisted := false
	svc.persist = func() error { persisted = true; return nil }

	_, err := cart.FetchCart(context.Background())
	require.NoError(t, err)
	assert.True(t, svc.LoggedIn())
	assert.Equal(t, "ana@example.com", svc.Email())

	require.NoError(t, svc.Logout())

	assert.True(t, persisted)
	assert.False(t, svc.LoggedIn())
	assert.Equal(t, 1, log.Count(domain.EventRefresh))

	got, err := cart.FetchCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, []string{"get"}, repo.Calls())
}

func TestSessionService_LogoutPersistError(t *testing.T) {
	session := adapter.NewSession("tok", "u1", "")
	cart, _ := newTestService(newFakeRepo(), session)
	svc := NewSessionService(session, cart, nil)
	svc.persist = func() error { return errors.New("disk full") }

	assert.Error(t, svc.Logout())
	assert.False(t, session.LoggedIn())
}

type brokenStore struct {
	domain.CartStore
}

func (brokenStore) InvalidateAll() error { return errors.New("read-only filesystem") }

func TestSessionService_LogoutReportsCacheFailure(t *testing.T) {
	session := adapter.NewSession("tok", "u1", "")
	cart := NewCartService(newFakeRepo(), session, brokenStore{store.NewMemoryStore()}, nil, nil)
	log := &eventLog{}
	cart.Subscribe(log.handle)
	cart.MarkPending(3, 2)

	svc := NewSessionService(session, cart, nil)
	persisted := false
	svc.persist = func() error { persisted = true; return nil }

	err := svc.Logout()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only filesystem")

	// Credentials and ledger are dropped regardless
	assert.True(t, persisted)
	assert.False(t, session.LoggedIn())
	assert.Empty(t, cart.PendingUpdates())
	assert.Equal(t, 1, log.Count(domain.EventRefresh))
}
