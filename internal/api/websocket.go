package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	MsgTypeFrame = "frame"
	MsgTypePing  = "ping"
	MsgTypePong  = "pong"

	writeWait  = 5 * time.Second
	sendBuffer = 8
)

// WSMessage is sent to websocket clients. Frame messages carry the version
// of the newly painted frame; clients fetch /api/frame.svg to get it.
type WSMessage struct {
	Type      string `json:"type"`
	Version   uint64 `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// hub fans frame notifications out to every connected client. A client that
// falls behind loses messages rather than stalling the painter.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *hub) broadcast(version uint64) {
	msg := WSMessage{Type: MsgTypeFrame, Version: version, Timestamp: time.Now().UnixMilli()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			log.Debug().Uint64("version", version).Msg("Websocket client behind, dropping frame notice")
		}
	}
}

// reply queues msg for one client unless it has already been dropped.
func (h *hub) reply(cl *wsClient, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
	}
}

func (h *hub) add(cl *wsClient) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(cl *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
		cl.conn.Close()
	}
}

// handleWebSocket upgrades the connection, sends the current frame version
// and then one message per painted frame until the client goes away.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &wsClient{conn: conn, send: make(chan WSMessage, sendBuffer)}
	_, version := s.frames.Frame()
	cl.send <- WSMessage{Type: MsgTypeFrame, Version: version, Timestamp: time.Now().UnixMilli()}
	s.hub.add(cl)
	log.Debug().Str("remote", c.RealIP()).Msg("Websocket client connected")

	go writePump(cl)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Websocket connection error")
			}
			break
		}
		if msg.Type == MsgTypePing {
			s.hub.reply(cl, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}

	s.hub.remove(cl)
	log.Debug().Str("remote", c.RealIP()).Msg("Websocket client disconnected")
	return nil
}

func writePump(cl *wsClient) {
	defer cl.conn.Close()
	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("Websocket write failed")
			return
		}
	}
	cl.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
