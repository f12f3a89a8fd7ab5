package poker

import (
	"poker/internal/app/store"
	"poker/internal/app/user"
)

// connection is one attached transport as the room state sees it. Every
// "connected" message replaces the binding; one without a usable id leaves
// the connection unbound.
type connection struct {
	client *Client
	userID string
	bound  bool
}

// roomState is the authoritative data of one room. It is owned by the room's
// event loop and never touched from any other goroutine.
type roomState struct {
	id      int
	visible bool

	// users in first-insertion order; ids are unique.
	users []user.User

	// conns in attach order.
	conns []*connection
}

func newRoomState(id int) *roomState {
	return &roomState{id: id}
}

// newRoomStateFromRecord rebuilds a room from persisted data. Users are
// sanitized like live estimates and only the first user carrying a given id
// is kept. A negative room id becomes 0.
func newRoomStateFromRecord(rec store.RoomRecord) *roomState {
	s := &roomState{id: max(rec.ID, 0), visible: rec.Visible}
	for _, u := range rec.Users {
		u = u.Sanitized()
		if s.indexOf(u.ID) >= 0 {
			continue
		}
		s.users = append(s.users, u)
	}
	return s
}

func (s *roomState) find(c *Client) *connection {
	for _, conn := range s.conns {
		if conn.client == c {
			return conn
		}
	}
	return nil
}

// attach adds c as a new unbound connection. It reports false when c is
// already attached.
func (s *roomState) attach(c *Client) bool {
	if s.find(c) != nil {
		return false
	}
	s.conns = append(s.conns, &connection{client: c})
	return true
}

// detach removes c and reports whether it was attached. Users are kept.
func (s *roomState) detach(c *Client) bool {
	for i, conn := range s.conns {
		if conn.client == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return true
		}
	}
	return false
}

func (s *roomState) indexOf(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// isOnline reports whether any attached connection is bound to id.
func (s *roomState) isOnline(id string) bool {
	for _, conn := range s.conns {
		if conn.bound && conn.userID == id {
			return true
		}
	}
	return false
}

// apply executes one decoded message sent by c. Every variant, including
// unknown ones, is followed by a broadcast from the caller.
func (s *roomState) apply(c *Client, msg inbound) {
	switch m := msg.(type) {
	case connectedMsg:
		if conn := s.find(c); conn != nil {
			conn.userID, conn.bound = m.userID, m.bound
		}

	case itemNumberMsg:
		s.upsert(m.user)

	case changeVisibilityMsg:
		s.visible = !m.clientVisible

	case deleteEstimatesMsg:
		s.deleteEstimates()

	case removeUserMsg:
		if m.valid {
			s.removeUser(m.id)
		}
	}
}

// upsert replaces the user with the same id in place, or appends u.
func (s *roomState) upsert(u user.User) {
	if i := s.indexOf(u.ID); i >= 0 {
		s.users[i] = u
		return
	}
	s.users = append(s.users, u)
}

// removeUser drops the user with id unless a connection bound to it is
// attached. It reports whether a user was removed.
func (s *roomState) removeUser(id string) bool {
	if s.isOnline(id) {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return true
}

// deleteEstimates clears every estimate and hides the room again.
func (s *roomState) deleteEstimates() {
	for i := range s.users {
		s.users[i].ItemNumber = nil
	}
	s.visible = false
}

// project builds the userData message addressed to conn. While the room is
// hidden, estimates of users other than the one conn is bound to read as "?";
// an unset estimate stays null either way.
func (s *roomState) project(conn *connection) UserDataMessage {
	views := make([]UserView, 0, len(s.users))
	for _, u := range s.users {
		item := u.ItemNumber
		if item != nil {
			v := *item
			if !s.visible && !(conn.bound && conn.userID == u.ID) {
				v = HiddenItemNumber
			}
			item = &v
		}

		views = append(views, UserView{
			ID:         u.ID,
			Online:     s.isOnline(u.ID),
			ItemNumber: item,
			Name:       u.Name,
		})
	}

	return UserDataMessage{
		Type:    TypeUserData,
		Visible: s.visible,
		Users:   views,
	}
}

// record returns the persistent form of the room, detached from its memory.
func (s *roomState) record() store.RoomRecord {
	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	return store.RoomRecord{ID: s.id, Visible: s.visible, Users: users}
}
