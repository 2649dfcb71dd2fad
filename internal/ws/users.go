package ws

import (
	"context"
	"encoding/json"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
	"github.com/mjhajdugaNext/messenger/internal/models"
	"github.com/mjhajdugaNext/messenger/internal/service"
)

// FriendGraph is the friend-graph engine as the users namespace needs it.
type FriendGraph interface {
	SendInvitations(ctx context.Context, userID string, targetIDs []string) (*service.GraphResult, error)
	AcceptInvitations(ctx context.Context, userID string, targetIDs []string) (*service.GraphResult, error)
	RemoveFriends(ctx context.Context, userID string, targetIDs []string) (*service.GraphResult, error)
	FriendsOf(ctx context.Context, userID string) ([]models.PublicUser, error)
	ActiveFriendsOf(ctx context.Context, userID string) ([]models.PublicUser, error)
}

type graphOp func(ctx context.Context, userID string, targetIDs []string) (*service.GraphResult, error)

// NewUsersNamespace serves friend-graph events on hub.
func NewUsersNamespace(hub *Hub, friends FriendGraph) *Namespace {
	ns := NewNamespace(hub)
	ns.Handle("friendsList", listHandler(EventFriendsList, friends.FriendsOf))
	ns.Handle("friendsActive", listHandler(EventFriendsActive, friends.ActiveFriendsOf))
	ns.Handle("friendAdd", ns.graphHandler(friends.SendInvitations, EventFriendInvitationSent, EventFriendAddedToWaitingRoom))
	ns.Handle("friendAccept", ns.graphHandler(friends.AcceptInvitations, EventFriendAdded, EventFriendInvitationAccepted))
	ns.Handle("friendRemove", ns.graphHandler(friends.RemoveFriends, EventFriendRemoved, EventFriendshipEnded))
	return ns
}

func listHandler(event string, list func(context.Context, string) ([]models.PublicUser, error)) HandlerFunc {
	return func(ctx context.Context, c *Client, _ json.RawMessage) error {
		users, err := list(ctx, c.userID)
		if err != nil {
			return err
		}
		c.reply(event, users)
		return nil
	}
}

// graphHandler runs op and tells both sides: the acting user gets its private
// projection on selfEvent, each target gets the actor's public projection on
// targetEvent when its document changed.
func (ns *Namespace) graphHandler(op graphOp, selfEvent, targetEvent string) HandlerFunc {
	return func(ctx context.Context, c *Client, data json.RawMessage) error {
		ids, err := decodeIDs(data)
		if err != nil {
			return err
		}
		res, err := op(ctx, c.userID, ids)
		if err != nil {
			return err
		}
		if err := ns.emit(selfEvent, res.User.Private(), c.userID); err != nil {
			return apperr.Internalf(err, "encode %s", selfEvent)
		}
		// Targets the operation left untouched hear nothing.
		if targets := res.Changed; len(targets) > 0 {
			if err := ns.emit(targetEvent, res.User.Public(), targets...); err != nil {
				return apperr.Internalf(err, "encode %s", targetEvent)
			}
		}
		return nil
	}
}
