package transient_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"infocollect/internal/repository"
	"infocollect/internal/repository/testutil"
	"infocollect/internal/transient"
)

func newStore(t *testing.T) *transient.Store {
	db := testutil.NewTestDB(t)
	return transient.NewStore(repository.NewSettingsRepository(db))
}

func TestStore_PutAndTake(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	state := transient.FormState{
		Errors: map[string]string{"email": "Please enter a valid email address."},
		Values: map[string]string{"full_name": "John", "email": "bad"},
	}

	token := transient.NewToken("https://site.example.com/contact", time.Now())
	require.NoError(t, store.Put(ctx, token, state, transient.DefaultTTL))

	got, err := store.Take(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, state.Errors, got.Errors)
	require.Equal(t, state.Values, got.Values)
}

// First read consumes the entry.
func TestStore_TakeDeletes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	token := transient.NewToken("/contact", time.Now())
	require.NoError(t, store.Put(ctx, token, transient.FormState{}, transient.DefaultTTL))

	first, err := store.Take(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := store.Take(ctx, token)
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestStore_TakeExpired(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	token := transient.NewToken("/contact", time.Now())
	require.NoError(t, store.Put(ctx, token, transient.FormState{}, -time.Second))

	got, err := store.Take(ctx, token)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_TakeUnknownToken(t *testing.T) {
	store := newStore(t)

	got, err := store.Take(context.Background(), "deadbeef")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNewToken_DiffersByTimeAndDestination(t *testing.T) {
	now := time.Now()
	a := transient.NewToken("/a", now)
	b := transient.NewToken("/b", now)
	c := transient.NewToken("/a", now.Add(time.Nanosecond))
	require.NotEqual(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 32)
}
