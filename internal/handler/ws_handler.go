package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"poker/internal/app/poker"
	"poker/internal/pkg/errs"
	"poker/internal/pkg/limiter"
	"poker/internal/pkg/logx"
	"poker/internal/pkg/resp"
)

// MaxSelectorLength bounds the first path segment, measured in its escaped
// form, before any room lookup happens.
const MaxSelectorLength = 16

// firstSegment returns the first segment of the escaped request path.
func firstSegment(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	segment, _, _ := strings.Cut(path, "/")
	return segment
}

// originChecker decides whether a browser origin may open a room connection.
type originChecker struct {
	development bool
	allowed     map[string]struct{}
}

func newOriginChecker(development bool, origins []string) originChecker {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return originChecker{development: development, allowed: allowed}
}

// check allows everything in development and listed origins otherwise. With
// no list configured the origin must match the requested host, the same rule
// gorilla applies by default.
func (o originChecker) check(r *http.Request) bool {
	if o.development {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(o.allowed) > 0 {
		_, ok := o.allowed[origin]
		return ok
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// HandleRoot serves every path outside the fixed routes. Over-long selectors
// are refused first; upgrade requests join a room, all others get static
// content.
func HandleRoot(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	assets := loadStaticAssets()
	origins := newOriginChecker(deps.Config.IsDevelopment(), deps.Config.AllowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		segment := firstSegment(r)
		if len(segment) > MaxSelectorLength {
			logx.Info("Request rejected: room selector too long.", "length", len(segment))
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomSelectorTooLong))
			return
		}

		if !websocket.IsWebSocketUpgrade(r) {
			assets.serve(w, r, segment)
			return
		}

		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		if !origins.check(r) {
			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", r.Header.Get("Origin"))
			resp.RespondError(w, r, errs.NewError(errs.ErrOriginNotAllowed))
			return
		}

		serveRoomConnection(w, r, deps.Manager, upgrader, poker.ParseRoomID(segment))
	}
}

// serveRoomConnection upgrades the request, attaches the connection to its
// room and runs the read pump on the request goroutine.
func serveRoomConnection(w http.ResponseWriter, r *http.Request, manager *poker.Manager, upgrader websocket.Upgrader, roomID int) {
	room := manager.GetOrCreate(roomID)
	if room == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrServiceUnavailable))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error(), "room_id", roomID)
		return
	}

	client := poker.NewClient(room, conn)

	// Attach is queued before the first frame can be read, so the room
	// always sees a connection before its messages.
	if !room.Attach(client) {
		logx.Info("WebSocket connection closed: room is shutting down.", "room_id", roomID)
		conn.Close()
		return
	}

	go client.WritePump()

	logx.Debug("WebSocket connection established.", "client_id", client.ID, "room_id", roomID)

	client.ReadPump()
}

// upgradeError renders handshake failures in the JSON error envelope.
func upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	logx.Info("WebSocket handshake failed.", "status", status, "reason", reason.Error())

	customErr := errs.NewError(errs.ErrWebSocketUpgrade, reason.Error())
	customErr.Status = status
	resp.RespondError(w, r, customErr)
}
