package poker

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"poker/internal/app/user"
)

// MessageType is the value of the "type" field of a wire message.
type MessageType string

const (
	// Client → server.
	TypeConnected        MessageType = "connected"
	TypeItemNumber       MessageType = "itemNumber"
	TypeChangeVisibility MessageType = "changeVisibility"
	TypeDeleteEstimates  MessageType = "deleteEstimates"
	TypeRemoveUser       MessageType = "removeUser"

	// Server → client.
	TypeUserData MessageType = "userData"
)

// HiddenItemNumber replaces another user's estimate while the room is hidden.
const HiddenItemNumber = "?"

var errNullFrame = errors.New("frame is JSON null")

// inbound is one decoded client message. The set of variants is closed:
// every frame that parses as JSON, other than null, maps to exactly one of
// them.
type inbound interface {
	messageType() MessageType
}

// connectedMsg binds the sending connection to a user id. bound is false
// when the client sent no usable id, which leaves the connection unbound.
type connectedMsg struct {
	userID string
	bound  bool
}

// itemNumberMsg upserts a participant with the estimate it carries.
type itemNumberMsg struct {
	user user.User
}

// changeVisibilityMsg carries the visibility flag as the client last saw it.
type changeVisibilityMsg struct {
	clientVisible bool
}

type deleteEstimatesMsg struct{}

// removeUserMsg asks to drop an offline participant. valid is false when the
// id was not a string; such a request matches nobody.
type removeUserMsg struct {
	id    string
	valid bool
}

// unknownMsg is any frame without a recognized "type": objects whose type is
// missing, not a string or unknown, and JSON values that are not objects at
// all. Routing it changes nothing.
type unknownMsg struct {
	raw any
}

func (connectedMsg) messageType() MessageType        { return TypeConnected }
func (itemNumberMsg) messageType() MessageType       { return TypeItemNumber }
func (changeVisibilityMsg) messageType() MessageType { return TypeChangeVisibility }
func (deleteEstimatesMsg) messageType() MessageType  { return TypeDeleteEstimates }
func (removeUserMsg) messageType() MessageType       { return TypeRemoveUser }
func (m unknownMsg) messageType() MessageType {
	if s, ok := m.raw.(string); ok {
		return MessageType(s)
	}
	return ""
}

// decodeFrame parses one text frame. It fails when the frame is not JSON or
// is null; every field is type-checked and sanitized here so handlers never
// see raw client values.
func decodeFrame(data []byte) (inbound, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if parsed == nil {
		return nil, errNullFrame
	}

	fields, ok := parsed.(map[string]any)
	if !ok {
		return unknownMsg{}, nil
	}

	kind, _ := fields["type"].(string)

	switch MessageType(kind) {
	case TypeConnected:
		id, ok := user.SanitizeID(fields["userId"])
		return connectedMsg{userID: id, bound: ok}, nil

	case TypeItemNumber:
		return itemNumberMsg{
			user: user.New(fields["userId"], fields["itemNumber"], fields["userName"]),
		}, nil

	case TypeChangeVisibility:
		return changeVisibilityMsg{clientVisible: truthy(fields["visible"])}, nil

	case TypeDeleteEstimates:
		return deleteEstimatesMsg{}, nil

	case TypeRemoveUser:
		id, ok := user.SanitizeID(fields["id"])
		return removeUserMsg{id: id, valid: ok}, nil
	}

	return unknownMsg{raw: fields["type"]}, nil
}

// truthy mirrors the truthiness browsers apply to a decoded JSON value:
// false, null, a missing field, 0 and "" are false, everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// UserView is one participant as a particular connection sees it.
type UserView struct {
	ID         string  `json:"id"`
	Online     bool    `json:"online"`
	ItemNumber *string `json:"itemNumber"`
	Name       string  `json:"name"`
}

// UserDataMessage is the full room snapshot pushed after every change.
type UserDataMessage struct {
	Type    MessageType `json:"type"`
	Visible bool        `json:"visible"`
	Users   []UserView  `json:"users"`
}
