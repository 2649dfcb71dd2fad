package ws

import (
	"encoding/json"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
)

// Frames in both directions are JSON envelopes naming the event.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Outbound event names.
const (
	EventConnected = "connected"
	EventError     = "error"

	EventFriendsList              = "friendsList"
	EventFriendsActive            = "friendsActive"
	EventFriendInvitationSent     = "friendInvitationSent"
	EventFriendAddedToWaitingRoom = "friendAddedToWaitingRoom"
	EventFriendAdded              = "friendAdded"
	EventFriendInvitationAccepted = "friendInvitationAccepted"
	EventFriendRemoved            = "friendRemoved"
	EventFriendshipEnded          = "friendshipEnded"

	EventMessageCreated = "messageCreated"
)

type connectedPayload struct {
	UserID    string `json:"userId"`
	Namespace string `json:"namespace"`
}

// errorAck is sent to the originating connection only.
type errorAck struct {
	Event   string              `json:"event"`
	Code    string              `json:"code"`
	Error   string              `json:"error"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// decodeIDs reads a user id list. An absent payload is an empty list.
func decodeIDs(data json.RawMessage) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, apperr.ValidationError("payload must be a list of user ids")
	}
	return ids, nil
}
