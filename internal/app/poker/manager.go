package poker

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"poker/internal/app/store"
	"poker/internal/pkg/logx"
)

// Manager is the room directory. Rooms are created on first use, live for
// the lifetime of the process and keep their creation order for snapshots.
type Manager struct {
	// rooms keyed by numeric room id.
	rooms map[int]*Room

	// order lists room ids in creation order.
	order []int

	// closed is set by Shutdown; no room is created afterwards.
	closed bool

	// mu protects rooms, order and closed. It is never held while talking
	// to a room.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewManager constructs an empty directory.
func NewManager() *Manager {
	return &Manager{
		rooms:  make(map[int]*Room),
		logger: logx.Component("Manager"),
	}
}

// ParseRoomID reads the leading decimal digits of segment, after at most one
// '+'. Anything else, including a '-' sign, maps to room 0, as does a value
// too large for an int.
func ParseRoomID(segment string) int {
	segment = strings.TrimPrefix(segment, "+")

	end := 0
	for end < len(segment) && segment[end] >= '0' && segment[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	id, err := strconv.Atoi(segment[:end])
	if err != nil {
		return 0
	}
	return id
}

// GetOrCreate returns the room with id, creating and starting it when it
// does not exist. It returns nil after Shutdown.
func (m *Manager) GetOrCreate(id int) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[id]; ok {
		return room
	}
	if m.closed {
		return nil
	}

	room := m.addLocked(newRoomState(id))
	m.logger.Info().Int("room_id", id).Msg("New Room created and started.")
	return room
}

func (m *Manager) addLocked(state *roomState) *Room {
	room := newRoom(state)
	m.rooms[state.id] = room
	m.order = append(m.order, state.id)

	go room.Run()

	return room
}

// Restore hydrates rooms from persisted records and returns how many were
// created. Records for ids that already exist, including repeats within
// records, are skipped.
func (m *Manager) Restore(records []store.RoomRecord) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}

	restored := 0
	for _, rec := range records {
		state := newRoomStateFromRecord(rec)
		if _, ok := m.rooms[state.id]; ok {
			m.logger.Warn().Int("room_id", state.id).Msg("Skipping restore of existing room.")
			continue
		}
		m.addLocked(state)
		restored++
	}

	m.logger.Info().Int("rooms", restored).Msg("Rooms restored.")
	return restored
}

// RoomCount returns the number of rooms.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.rooms)
}

// Snapshot collects the persistent form of every room in creation order.
// Each room answers through its mailbox, so every record is consistent on
// its own.
func (m *Manager) Snapshot(ctx context.Context) ([]store.RoomRecord, error) {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.order))
	for _, id := range m.order {
		rooms = append(rooms, m.rooms[id])
	}
	m.mu.Unlock()

	records := make([]store.RoomRecord, 0, len(rooms))
	for _, room := range rooms {
		rec, ok := room.Snapshot(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Shutdown stops every room and waits for their loops to finish. Rooms keep
// their state, so a Snapshot taken afterwards still sees it.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down rooms...")

	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
	for _, room := range rooms {
		<-room.Done()
	}

	m.logger.Info().Msg("Manager shutdown complete.")
}
