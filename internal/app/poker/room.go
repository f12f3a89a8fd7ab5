/*
Package poker contains the real-time core of the estimation service: rooms,
their attached connections and the userData broadcast.

Each Room is an actor. Attach, detach, inbound frames and snapshot requests
travel through one FIFO mailbox and are handled by a single goroutine, so a
mutation and the broadcast that follows it are never interleaved with another
event of the same room.
*/
package poker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"poker/internal/app/store"
	"poker/internal/pkg/logx"
)

const mailboxBuffer = 256

type attachEvent struct{ client *Client }

type detachEvent struct{ client *Client }

type frameEvent struct {
	client *Client
	data   []byte
}

type snapshotEvent struct{ reply chan store.RoomRecord }

// Room is a single estimation session.
type Room struct {
	// ID is the numeric room selector taken from the URL.
	ID int

	// events is the mailbox; only Run reads from it.
	events chan any

	// used to signal the Room to stop its Run loop.
	stopChan chan struct{}
	stopOnce sync.Once

	// closed once Run has returned.
	done chan struct{}

	// state is owned by the Run goroutine.
	state *roomState

	logger zerolog.Logger
}

// NewRoom creates an empty, hidden room. The caller starts Run.
func NewRoom(id int) *Room {
	return newRoom(newRoomState(id))
}

func newRoom(state *roomState) *Room {
	return &Room{
		ID:       state.id,
		events:   make(chan any, mailboxBuffer),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		state:    state,
		logger:   logx.Logger().With().Int("room_id", state.id).Logger(),
	}
}

// Stop terminates the Run loop. Attached clients get their send buffer
// closed, which makes their write pump send a close frame.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Received stop signal. Stopping room.")
		close(r.stopChan)
	})
}

// Done is closed after Run has returned.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run is the room's event loop.
func (r *Room) Run() {
	defer close(r.done)

	for {
		select {
		case ev := <-r.events:
			r.handle(ev)

		case <-r.stopChan:
			r.shutdown()
			return
		}
	}
}

func (r *Room) handle(ev any) {
	switch e := ev.(type) {
	case attachEvent:
		if !r.state.attach(e.client) {
			r.logger.Warn().Str("client_id", e.client.ID).Msg("Ignoring duplicate attach.")
			return
		}
		r.logger.Info().
			Str("client_id", e.client.ID).
			Int("connections", len(r.state.conns)).
			Msg("Connection attached.")

	case detachEvent:
		if !r.state.detach(e.client) {
			r.logger.Debug().Str("client_id", e.client.ID).Msg("Ignoring detach for unknown connection.")
			return
		}
		e.client.closeSend()
		r.logger.Info().
			Str("client_id", e.client.ID).
			Int("connections", len(r.state.conns)).
			Msg("Connection detached.")
		r.broadcast()

	case frameEvent:
		if r.state.find(e.client) == nil {
			r.logger.Debug().Str("client_id", e.client.ID).Msg("Dropping frame from detached connection.")
			return
		}

		msg, err := decodeFrame(e.data)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("client_id", e.client.ID).
				Bytes("message_bytes", e.data).
				Msg("Client sent malformed frame")
			return
		}
		r.state.apply(e.client, msg)
		r.logger.Debug().
			Str("client_id", e.client.ID).
			Str("msg_type", string(msg.messageType())).
			Msg("Frame applied.")
		r.broadcast()

	case snapshotEvent:
		e.reply <- r.state.record()
	}
}

// broadcast sends every attached connection its own projection. Connections
// whose buffer is full are detached and closed, and the round is repeated so
// the remaining connections see the corrected online flags.
func (r *Room) broadcast() {
	for {
		var slow []*Client

		for _, conn := range r.state.conns {
			payload, err := json.Marshal(r.state.project(conn))
			if err != nil {
				r.logger.Error().Err(err).Msg("Error marshaling userData for broadcast.")
				continue
			}
			if !conn.client.trySend(payload) {
				slow = append(slow, conn.client)
			}
		}

		if len(slow) == 0 {
			return
		}

		for _, c := range slow {
			r.logger.Warn().Str("client_id", c.ID).Msg("Client send buffer full, detaching.")
			r.state.detach(c)
			c.closeSend()
		}
	}
}

// shutdown closes every attached client and every client still waiting in
// the mailbox to be attached.
func (r *Room) shutdown() {
	for _, conn := range r.state.conns {
		conn.client.closeSend()
	}
	r.state.conns = nil

	for {
		select {
		case ev := <-r.events:
			switch e := ev.(type) {
			case attachEvent:
				e.client.closeSend()
			case snapshotEvent:
				e.reply <- r.state.record()
			}
		default:
			r.logger.Info().Msg("Room Run loop finished.")
			return
		}
	}
}

// enqueue blocks until the mailbox accepts ev or the room stops.
func (r *Room) enqueue(ev any) bool {
	select {
	case <-r.stopChan:
		return false
	default:
	}

	select {
	case r.events <- ev:
		return true
	case <-r.stopChan:
		return false
	}
}

// Attach queues c for attachment. It returns false if the room has stopped.
func (r *Room) Attach(c *Client) bool {
	return r.enqueue(attachEvent{client: c})
}

// Detach queues the removal of c. Detaching an unknown client is harmless.
func (r *Room) Detach(c *Client) {
	r.enqueue(detachEvent{client: c})
}

// Deliver queues one inbound text frame from c.
func (r *Room) Deliver(c *Client, data []byte) bool {
	return r.enqueue(frameEvent{client: c, data: data})
}

// Snapshot returns the persistent form of the room as seen between two
// events. Once Run has returned the final state is read directly. ok is
// false only when ctx ends first.
func (r *Room) Snapshot(ctx context.Context) (rec store.RoomRecord, ok bool) {
	select {
	case <-r.done:
		return r.state.record(), true
	default:
	}

	reply := make(chan store.RoomRecord, 1)

	select {
	case r.events <- snapshotEvent{reply: reply}:
	case <-r.done:
		return r.state.record(), true
	case <-ctx.Done():
		return store.RoomRecord{}, false
	}

	select {
	case rec = <-reply:
		return rec, true
	case <-r.done:
		// shutdown answers snapshots still queued; a later one is never read.
		select {
		case rec = <-reply:
			return rec, true
		default:
			return r.state.record(), true
		}
	case <-ctx.Done():
		return store.RoomRecord{}, false
	}
}
