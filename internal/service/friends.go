package service

import (
	"context"
	"errors"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/keylock"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/store"
)

// GraphResult is what a friend-graph operation leaves behind: the acting
// user and every target it named, all in their current state.
type GraphResult struct {
	User    models.User
	Targets []models.User
	// Changed lists, in request order, the targets whose document was written.
	Changed []string
}

// transition describes one friend-graph operation as two pure patch builders.
// target is called once per target document; ok=false means the target is
// already in the wanted state and is left untouched.
// self is called once for the acting user with the full target set.
type transition struct {
	target func(user, target models.User) (p store.UserPatch, ok bool)
	self   func(user models.User, targets models.IDSet) store.UserPatch
}

var (
	inviteTransition = transition{
		target: func(u, t models.User) (store.UserPatch, bool) {
			if u.Friends.Contains(t.ID) || t.FriendsWaitingRoom.Contains(u.ID) {
				return store.UserPatch{}, false
			}
			wr := t.FriendsWaitingRoom.Union(u.ID)
			return store.UserPatch{FriendsWaitingRoom: &wr}, true
		},
		self: func(u models.User, targets models.IDSet) store.UserPatch {
			pending := u.InSomeoneWaitingRoom.Union(targets.Without(u.Friends...)...)
			return store.UserPatch{InSomeoneWaitingRoom: &pending}
		},
	}

	// Accepting clears the markers in both directions, so a pair that invited
	// each other ends up with no stale pending entries.
	acceptTransition = transition{
		target: func(u, t models.User) (store.UserPatch, bool) {
			if t.Friends.Contains(u.ID) && !t.InSomeoneWaitingRoom.Contains(u.ID) && !t.FriendsWaitingRoom.Contains(u.ID) {
				return store.UserPatch{}, false
			}
			friends := t.Friends.Union(u.ID)
			sent := t.InSomeoneWaitingRoom.Without(u.ID)
			received := t.FriendsWaitingRoom.Without(u.ID)
			return store.UserPatch{
				Friends:              &friends,
				InSomeoneWaitingRoom: &sent,
				FriendsWaitingRoom:   &received,
			}, true
		},
		self: func(u models.User, targets models.IDSet) store.UserPatch {
			friends := u.Friends.Union(targets...)
			received := u.FriendsWaitingRoom.Without(targets...)
			sent := u.InSomeoneWaitingRoom.Without(targets...)
			return store.UserPatch{
				Friends:              &friends,
				FriendsWaitingRoom:   &received,
				InSomeoneWaitingRoom: &sent,
			}
		},
	}

	removeTransition = transition{
		target: func(u, t models.User) (store.UserPatch, bool) {
			if !t.Friends.Contains(u.ID) {
				return store.UserPatch{}, false
			}
			friends := t.Friends.Without(u.ID)
			return store.UserPatch{Friends: &friends}, true
		},
		self: func(u models.User, targets models.IDSet) store.UserPatch {
			friends := u.Friends.Without(targets...)
			return store.UserPatch{Friends: &friends}
		},
	}
)

// FriendService maintains the friend graph. Every mutation holds the per-user
// locks of the acting user and all targets, so concurrent operations touching
// the same user never lose each other's updates.
type FriendService struct {
	users UserStore
	locks *keylock.Locker
}

func NewFriendService(users UserStore, locks *keylock.Locker) *FriendService {
	return &FriendService{users: users, locks: locks}
}

// SendInvitations records that userID invited each target. Targets already
// befriended are left alone.
func (s *FriendService) SendInvitations(ctx context.Context, userID string, targetIDs []string) (*GraphResult, error) {
	return s.apply(ctx, userID, targetIDs, inviteTransition)
}

// AcceptInvitations makes userID and each target mutual friends. A missing
// invitation is not an error.
func (s *FriendService) AcceptInvitations(ctx context.Context, userID string, targetIDs []string) (*GraphResult, error) {
	return s.apply(ctx, userID, targetIDs, acceptTransition)
}

// RemoveFriends ends the friendship between userID and each target.
func (s *FriendService) RemoveFriends(ctx context.Context, userID string, targetIDs []string) (*GraphResult, error) {
	return s.apply(ctx, userID, targetIDs, removeTransition)
}

func (s *FriendService) apply(ctx context.Context, userID string, targetIDs []string, tr transition) (*GraphResult, error) {
	targets := models.NewIDSet(targetIDs...)
	if targets.Contains(userID) {
		return nil, ErrSelfReference
	}

	unlock := s.locks.Lock(append([]string{userID}, targets...)...)
	defer unlock()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internalf(err, "load user %s", userID)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if len(targets) == 0 {
		return &GraphResult{User: *user, Targets: []models.User{}, Changed: []string{}}, nil
	}

	found, err := s.users.Find(ctx, store.UserFilter{IDs: targets})
	if err != nil {
		return nil, apperr.Internalf(err, "load targets")
	}
	if len(found) != len(targets) {
		return nil, ErrNotAUser
	}
	byID := make(map[string]models.User, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	updated := make([]models.User, 0, len(targets))
	changed := make([]string, 0, len(targets))
	for _, id := range targets {
		t := byID[id]
		patch, ok := tr.target(*user, t)
		if !ok {
			updated = append(updated, t)
			continue
		}
		next, err := s.users.UpdateByID(ctx, id, patch)
		if err != nil {
			return nil, s.updateErr(err, id)
		}
		updated = append(updated, *next)
		changed = append(changed, id)
	}

	self, err := s.users.UpdateByID(ctx, userID, tr.self(*user, targets))
	if err != nil {
		return nil, s.updateErr(err, userID)
	}
	return &GraphResult{User: *self, Targets: updated, Changed: changed}, nil
}

func (s *FriendService) updateErr(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAUser
	}
	return apperr.Internalf(err, "update user %s", id)
}

// FriendsOf returns the public projections of every friend of userID.
func (s *FriendService) FriendsOf(ctx context.Context, userID string) ([]models.PublicUser, error) {
	return s.friends(ctx, userID, nil)
}

// ActiveFriendsOf is FriendsOf restricted to users with a live connection.
func (s *FriendService) ActiveFriendsOf(ctx context.Context, userID string) ([]models.PublicUser, error) {
	active := true
	return s.friends(ctx, userID, &active)
}

func (s *FriendService) friends(ctx context.Context, userID string, active *bool) ([]models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internalf(err, "load user %s", userID)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	out := []models.PublicUser{}
	if len(user.Friends) == 0 {
		return out, nil
	}
	found, err := s.users.Find(ctx, store.UserFilter{IDs: user.Friends.Clone(), Active: active})
	if err != nil {
		return nil, apperr.Internalf(err, "load friends of %s", userID)
	}
	for _, f := range found {
		out = append(out, f.Public())
	}
	return out, nil
}
