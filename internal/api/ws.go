package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/events"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware already governs browser origins; WS has no preflight.
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsMessage is the envelope every event is wrapped in on the wire: a
// stable type discriminator plus the event's own JSON-tagged fields.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wsHub fans every published domain event out to connected WebSocket
// clients. It subscribes to the bus once at PriorityLast (after every
// other subscriber has had a look) and broadcasts to all live conns.
type wsHub struct {
	bus *events.Bus

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

type wsConn struct {
	ws   *websocket.Conn
	send chan wsMessage
}

func newWSHub(bus *events.Bus) *wsHub {
	h := &wsHub{bus: bus, conns: make(map[*wsConn]struct{})}

	events.Subscribe(bus, events.PriorityLast, func(e events.ServerChangeState) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.ServerPreStart) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.ServerProcessEnded) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.FileTaskStart) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.FileTaskEnd) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.BackupTaskStart) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.BackupTaskEnd) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.WatchdogMemoryWarning) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.ServerRegistered) { h.broadcast(e.EventName(), e) })
	events.Subscribe(bus, events.PriorityLast, func(e events.ServerUnregistered) { h.broadcast(e.EventName(), e) })

	return h
}

func (h *wsHub) broadcast(typ string, data any) {
	msg := wsMessage{Type: typ, Data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- msg:
		default:
			// Slow consumer: drop rather than block the publishing goroutine.
		}
	}
}

func (h *wsHub) add(c *wsConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	close(c.send)
}

// consoleWS upgrades GET /server/{id}/console/ws to a WebSocket that tails
// a single server's live console output and accepts typed lines as
// commands, grounded on the same read-pump/write-pump shape as the
// generic event fan-out but scoped to one server's PTY output.
func (s *Server) consoleWS(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, line := range srv.ConsoleTail(200) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return nil
		}
	}

	lines := make(chan string, 256)
	unsubscribe := events.Subscribe(s.bus, events.PriorityLast, func(e events.ServerProcessRead) {
		if e.ServerID != srv.ID {
			return
		}
		select {
		case lines <- e.Line:
		default:
		}
	})
	defer unsubscribe()

	readDone := make(chan struct{})
	cmds := make(chan string, 16)
	go func() {
		defer close(readDone)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case cmds <- string(msg):
			default:
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return nil
		case cmd := <-cmds:
			_ = srv.SendCommand(cmd)
		case line := <-lines:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return nil
			}
		}
	}
}

// wsHandler upgrades GET /ws to a WebSocket and streams every server-bound
// event as JSON until the client disconnects. Clients never publish;
// inbound messages (e.g. pings) are read and discarded.
func (s *Server) wsHandler(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	wc := &wsConn{ws: conn, send: make(chan wsMessage, 64)}
	s.hub.add(wc)
	defer s.hub.remove(wc)

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return nil
		case msg, ok := <-wc.send:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return nil
			}
		}
	}
}
