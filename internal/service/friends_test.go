package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjhajdugaNext/messenger/internal/models"
)

func TestSendInvitations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.register(t, "a"), f.register(t, "b"), f.register(t, "c")

	res, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID, c.ID})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{b.ID, c.ID}, res.User.InSomeoneWaitingRoom)
	assert.Equal(t, []string{b.ID, c.ID}, res.Changed)
	for _, target := range res.Targets {
		assert.Equal(t, models.IDSet{a.ID}, target.FriendsWaitingRoom)
	}
	assert.Equal(t, models.IDSet{a.ID}, f.load(t, b.ID).FriendsWaitingRoom)
}

func TestSendInvitations_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")

	_, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	res, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID, b.ID})
	require.NoError(t, err)

	assert.Equal(t, models.IDSet{b.ID}, res.User.InSomeoneWaitingRoom)
	assert.Equal(t, models.IDSet{a.ID}, f.load(t, b.ID).FriendsWaitingRoom)
	assert.Empty(t, res.Changed)
}

func TestSendInvitations_AlreadyFriends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")
	_, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	res, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	assert.Empty(t, res.User.InSomeoneWaitingRoom)
	assert.Empty(t, f.load(t, b.ID).FriendsWaitingRoom)
	assert.Empty(t, res.Changed)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, b.ID, res.Targets[0].ID)
}

func TestGraphOperations_ChangedTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.register(t, "a"), f.register(t, "b"), f.register(t, "c")
	_, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	res, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, res.Changed)

	res, err = f.friends.RemoveFriends(ctx, b.ID, []string{a.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, res.Changed)
	assert.Equal(t, models.IDSet{c.ID}, f.load(t, a.ID).Friends)
}

func TestAcceptInvitations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")

	_, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	res, err := f.friends.AcceptInvitations(ctx, b.ID, []string{a.ID})
	require.NoError(t, err)

	assert.Equal(t, models.IDSet{a.ID}, res.User.Friends)
	assert.Empty(t, res.User.FriendsWaitingRoom)

	stored := f.load(t, a.ID)
	assert.Equal(t, models.IDSet{b.ID}, stored.Friends)
	assert.Empty(t, stored.InSomeoneWaitingRoom)
}

func TestAcceptInvitations_ClearsCrossedInvites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")

	_, err := f.friends.SendInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	_, err = f.friends.SendInvitations(ctx, b.ID, []string{a.ID})
	require.NoError(t, err)
	_, err = f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID} {
		u := f.load(t, id)
		assert.Len(t, u.Friends, 1)
		assert.Empty(t, u.FriendsWaitingRoom)
		assert.Empty(t, u.InSomeoneWaitingRoom)
	}
}

func TestAcceptInvitations_WithoutInvite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")

	res, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	assert.Equal(t, models.IDSet{b.ID}, res.User.Friends)
	assert.Equal(t, models.IDSet{a.ID}, f.load(t, b.ID).Friends)
}

func TestRemoveFriends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c := f.register(t, "a"), f.register(t, "b"), f.register(t, "c")
	_, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID, c.ID})
	require.NoError(t, err)

	res, err := f.friends.RemoveFriends(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)

	assert.Equal(t, models.IDSet{c.ID}, res.User.Friends)
	assert.Empty(t, f.load(t, b.ID).Friends)
	assert.Equal(t, models.IDSet{a.ID}, f.load(t, c.ID).Friends)

	// Removing a non-friend leaves everything as it was.
	res, err = f.friends.RemoveFriends(ctx, a.ID, []string{b.ID})
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{c.ID}, res.User.Friends)
	assert.Empty(t, res.Changed)
}

func TestGraphOperations_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.register(t, "a"), f.register(t, "b")

	ops := map[string]func(context.Context, string, []string) (*GraphResult, error){
		"invite": f.friends.SendInvitations,
		"accept": f.friends.AcceptInvitations,
		"remove": f.friends.RemoveFriends,
	}
	for name, op := range ops {
		t.Run(name+" unknown target", func(t *testing.T) {
			_, err := op(ctx, a.ID, []string{b.ID, "missing"})
			if !errors.Is(err, ErrNotAUser) {
				t.Errorf("%s() error = %v, want %v", name, err, ErrNotAUser)
			}
		})
		t.Run(name+" self", func(t *testing.T) {
			_, err := op(ctx, a.ID, []string{a.ID})
			if !errors.Is(err, ErrSelfReference) {
				t.Errorf("%s() error = %v, want %v", name, err, ErrSelfReference)
			}
		})
		t.Run(name+" unknown user", func(t *testing.T) {
			_, err := op(ctx, "missing", []string{b.ID})
			if !errors.Is(err, ErrUserNotFound) {
				t.Errorf("%s() error = %v, want %v", name, err, ErrUserNotFound)
			}
		})
	}

	// Nothing was written by the rejected calls.
	for _, id := range []string{a.ID, b.ID} {
		u := f.load(t, id)
		assert.Empty(t, u.Friends)
		assert.Empty(t, u.FriendsWaitingRoom)
		assert.Empty(t, u.InSomeoneWaitingRoom)
	}
}

func TestGraphOperations_EmptyTargets(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a")

	res, err := f.friends.SendInvitations(context.Background(), a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.User.ID)
	assert.Empty(t, res.Targets)
}

func TestFriendsOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, c, d := f.register(t, "a"), f.register(t, "b"), f.register(t, "c"), f.register(t, "d")
	_, err := f.friends.AcceptInvitations(ctx, a.ID, []string{b.ID, c.ID})
	require.NoError(t, err)
	require.NoError(t, f.accounts.SetPresence(ctx, c.ID, true))
	require.NoError(t, f.accounts.SetPresence(ctx, d.ID, true))

	all, err := f.friends.FriendsOf(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, ids(all))

	active, err := f.friends.ActiveFriendsOf(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(active))

	none, err := f.friends.FriendsOf(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// Every concurrent invite must survive: a lost update would drop some of the
// inviters from the target's waiting room.
func TestSendInvitations_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.register(t, "target")

	const n = 8
	inviters := make([]string, n)
	for i := range inviters {
		inviters[i] = f.register(t, fmt.Sprintf("u%d", i)).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range inviters {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.friends.SendInvitations(ctx, id, []string{target.ID})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, inviters, f.load(t, target.ID).FriendsWaitingRoom)
}

func ids(users []models.PublicUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
