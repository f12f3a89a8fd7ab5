package poker

import (
	"strings"
	"testing"

	"poker/internal/app/store"
	"poker/internal/app/user"
)

func testClient(id string) *Client {
	return &Client{ID: id, send: make(chan []byte, sendBuffer)}
}

func estimate(id, item, name string) itemNumberMsg {
	return itemNumberMsg{user: user.New(id, item, name)}
}

// viewOf returns the entry for id in m, failing the test when it is absent.
func viewOf(t *testing.T, m UserDataMessage, id string) UserView {
	t.Helper()
	for _, v := range m.Users {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("user %q missing from %+v", id, m.Users)
	return UserView{}
}

func item(v UserView) string {
	if v.ItemNumber == nil {
		return "<nil>"
	}
	return *v.ItemNumber
}

func TestUpsertKeepsOneEntryPerID(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")
	s.attach(c)

	s.apply(c, estimate("a", "1", "Alice"))
	s.apply(c, estimate("b", "2", "Bob"))
	s.apply(c, estimate("a", "8", "Alicia"))
	s.apply(c, estimate("a", "8", "Alicia"))

	if len(s.users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(s.users))
	}
	if s.users[0].ID != "a" || *s.users[0].ItemNumber != "8" || s.users[0].Name != "Alicia" {
		t.Fatalf("upsert did not replace in place: %+v", s.users[0])
	}
}

func TestChangeVisibilityTogglesByEcho(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")
	s.attach(c)

	for i := 0; i < 4; i++ {
		before := s.visible
		s.apply(c, changeVisibilityMsg{clientVisible: before})
		if s.visible == before {
			t.Fatalf("step %d: echoing %v did not flip the flag", i, before)
		}
	}

	s.apply(c, changeVisibilityMsg{clientVisible: true})
	if s.visible {
		t.Fatal("a truthy echo must hide the room")
	}
}

func TestDeleteEstimatesResets(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")
	s.attach(c)

	s.apply(c, estimate("a", "3", "A"))
	s.apply(c, estimate("b", "5", "B"))
	s.apply(c, changeVisibilityMsg{clientVisible: false})

	s.apply(c, deleteEstimatesMsg{})

	if s.visible {
		t.Fatal("room must be hidden after deleteEstimates")
	}
	for _, u := range s.users {
		if u.ItemNumber != nil {
			t.Fatalf("estimate of %s survived: %q", u.ID, *u.ItemNumber)
		}
	}
	if len(s.users) != 2 {
		t.Fatal("deleteEstimates must keep users")
	}
}

func TestRemoveUserRefusedWhileOnline(t *testing.T) {
	s := newRoomState(0)
	a := testClient("a")
	other := testClient("other")
	s.attach(a)
	s.attach(other)

	s.apply(a, connectedMsg{userID: "a", bound: true})
	s.apply(a, estimate("a", "5", "A"))
	s.apply(other, estimate("b", "3", "B"))

	s.apply(other, removeUserMsg{id: "a", valid: true})
	if s.indexOf("a") < 0 {
		t.Fatal("online user was removed")
	}

	s.apply(other, removeUserMsg{id: "b", valid: true})
	if s.indexOf("b") >= 0 {
		t.Fatal("offline user was not removed")
	}
	if len(s.users) != 1 {
		t.Fatalf("expected exactly one removal, got %d users", len(s.users))
	}

	s.detach(a)
	s.apply(other, removeUserMsg{id: "a", valid: true})
	if len(s.users) != 0 {
		t.Fatal("user must be removable once its connection is gone")
	}
}

func TestRemoveUserWithInvalidIDIsNoop(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")
	s.attach(c)
	s.apply(c, estimate("", "1", "Empty"))

	s.apply(c, removeUserMsg{})
	if len(s.users) != 1 {
		t.Fatal("non-string id must not match the empty id")
	}
}

func TestProjectionMasksOthersWhileHidden(t *testing.T) {
	s := newRoomState(0)
	a, b, anon := testClient("a"), testClient("b"), testClient("anon")
	s.attach(a)
	s.attach(b)
	s.attach(anon)

	s.apply(a, connectedMsg{userID: "a", bound: true})
	s.apply(b, connectedMsg{userID: "b", bound: true})
	s.apply(a, estimate("a", "5", "A"))
	s.apply(b, estimate("b", "", "B"))
	s.apply(b, itemNumberMsg{user: user.New("c", nil, "C")})

	toA := s.project(s.find(a))
	toB := s.project(s.find(b))
	toAnon := s.project(s.find(anon))

	if got := item(viewOf(t, toA, "a")); got != "5" {
		t.Errorf("A must see own estimate, got %s", got)
	}
	if got := item(viewOf(t, toB, "a")); got != HiddenItemNumber {
		t.Errorf("B must see A masked, got %s", got)
	}
	if got := item(viewOf(t, toA, "b")); got != HiddenItemNumber {
		t.Errorf("an empty string is still an estimate, got %s", got)
	}
	if got := item(viewOf(t, toA, "c")); got != "<nil>" {
		t.Errorf("null estimate must stay null, got %s", got)
	}
	if got := item(viewOf(t, toAnon, "a")); got != HiddenItemNumber {
		t.Errorf("unbound connection must see masks, got %s", got)
	}

	s.apply(a, changeVisibilityMsg{clientVisible: false})
	for _, conn := range s.conns {
		m := s.project(conn)
		if !m.Visible {
			t.Fatal("projection must carry the visible flag")
		}
		if got := item(viewOf(t, m, "a")); got != "5" {
			t.Errorf("%s: expected real value once visible, got %s", conn.client.ID, got)
		}
	}

	if *s.users[0].ItemNumber != "5" {
		t.Fatal("projection must not modify stored estimates")
	}
}

func TestOnlineFollowsAttachedBindings(t *testing.T) {
	s := newRoomState(0)
	a1, a2, b := testClient("a1"), testClient("a2"), testClient("b")
	s.attach(a1)
	s.attach(a2)
	s.attach(b)

	s.apply(a1, connectedMsg{userID: "a", bound: true})
	s.apply(a2, connectedMsg{userID: "a", bound: true})
	s.apply(a1, estimate("a", "5", "A"))

	online := func() bool { return viewOf(t, s.project(s.find(b)), "a").Online }

	if !online() {
		t.Fatal("expected A online")
	}
	s.detach(a1)
	if !online() {
		t.Fatal("A still has a second tab attached")
	}
	s.detach(a2)
	if online() {
		t.Fatal("expected A offline after both tabs closed")
	}
	if s.indexOf("a") < 0 {
		t.Fatal("closing a connection must not remove the user")
	}
}

func TestConnectedReplacesBinding(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")
	s.attach(c)

	s.apply(c, connectedMsg{})
	if s.find(c).bound {
		t.Fatal("invalid id must leave the connection unbound")
	}

	s.apply(c, connectedMsg{userID: "x", bound: true})
	s.apply(c, connectedMsg{userID: "y", bound: true})
	if s.isOnline("x") || !s.isOnline("y") {
		t.Fatal("rebinding must replace the previous id")
	}

	s.apply(c, connectedMsg{})
	if s.isOnline("y") || s.find(c).bound {
		t.Fatal("an invalid id must unbind the connection")
	}
}

func TestAttachAndDetachAreIdempotent(t *testing.T) {
	s := newRoomState(0)
	c := testClient("c")

	if !s.attach(c) || s.attach(c) {
		t.Fatal("second attach of the same client must be refused")
	}
	if !s.detach(c) || s.detach(c) {
		t.Fatal("second detach must report false")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	est := "13"
	rec := store.RoomRecord{
		ID:      9,
		Visible: true,
		Users: []user.User{
			{ID: "a", ItemNumber: &est, Name: "A"},
			{ID: "a", Name: "Duplicate"},
			{ID: "b", Name: "B"},
		},
	}

	s := newRoomStateFromRecord(rec)
	if len(s.users) != 2 || s.users[0].Name != "A" {
		t.Fatalf("expected first entry per id to win, got %+v", s.users)
	}

	est = "changed"
	if *s.users[0].ItemNumber != "13" {
		t.Fatal("restored state shares memory with the record")
	}

	out := s.record()
	if out.ID != 9 || !out.Visible || len(out.Users) != 2 {
		t.Fatalf("unexpected record %+v", out)
	}
	*out.Users[0].ItemNumber = "1"
	if *s.users[0].ItemNumber != "13" {
		t.Fatal("record shares memory with the room")
	}
}

func TestRestoredRecordIsSanitized(t *testing.T) {
	long := strings.Repeat("x", user.MaxFieldLength+10)
	rec := store.RoomRecord{
		ID: -4,
		Users: []user.User{
			{ID: long + "a", Name: "First"},
			{ID: long + "b", Name: "  "},
		},
	}

	s := newRoomStateFromRecord(rec)
	if s.id != 0 {
		t.Fatalf("negative room id must become 0, got %d", s.id)
	}
	if len(s.users) != 1 {
		t.Fatalf("ids equal after truncation must collapse, got %+v", s.users)
	}
	if u := s.users[0]; u.ID != long[:user.MaxFieldLength] || u.Name != "First" {
		t.Fatalf("unexpected restored user %+v", u)
	}
}
