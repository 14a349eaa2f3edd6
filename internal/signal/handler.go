package signal

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsSender pumps outbound messages to one websocket connection. Writes go
// through a buffered channel so hub broadcasts never block on a slow
// client. The message channel is never closed: a hub broadcast may hold a
// reference to a peer that is concurrently leaving, so Send must stay safe
// after close. Shutdown is signaled through done instead.
type wsSender struct {
	conn *websocket.Conn
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newWSSender(conn *websocket.Conn) *wsSender {
	return &wsSender{conn: conn, ch: make(chan []byte, 32), done: make(chan struct{})}
}

// Send queues data for the write pump. Messages to a full buffer or a
// closed sender are dropped, matching the relay's racy-by-design contract.
func (s *wsSender) Send(data []byte) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- data:
	default:
		log.Printf("Signal send buffer full, dropping message")
	}
}

func (s *wsSender) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *wsSender) writePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.ch:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// Handler serves the signaling websocket route.
type Handler struct {
	hub *Hub
}

// NewHandler creates a signaling websocket handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// Handle runs one peer's signaling connection. The first message must be
// a join; the reply carries the current roster of other peers. Everything
// after is relayed until leave or disconnect.
func (h *Handler) Handle(c *websocket.Conn) {
	roomID := c.Params("roomId")
	out := newWSSender(c)
	go out.writePump()

	defer func() {
		out.close()
		c.Close()
	}()

	peerID := ""
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			sendError(out, roomID, "invalid message")
			continue
		}
		msg.RoomID = roomID

		switch msg.Type {
		case SignalTypeJoin:
			if peerID != "" {
				continue // already joined
			}
			peerID = msg.From
			if peerID == "" {
				peerID = uuid.New().String()
			}
			others := h.hub.Join(roomID, peerID, out)
			roster, _ := json.Marshal(Message{
				Type:   SignalTypePeers,
				To:     peerID,
				RoomID: roomID,
				Peers:  others,
			})
			out.Send(roster)

		case SignalTypeOffer, SignalTypeAnswer, SignalTypeCandidate:
			if peerID == "" {
				sendError(out, roomID, "join first")
				continue
			}
			msg.From = peerID
			h.hub.Relay(msg)

		case SignalTypeLeave:
			if peerID != "" {
				h.hub.Leave(peerID)
				peerID = ""
			}
			return
		}
	}

	if peerID != "" {
		h.hub.Leave(peerID)
	}
}

func sendError(out *wsSender, roomID, detail string) {
	data, _ := json.Marshal(Message{Type: SignalTypeError, RoomID: roomID, Error: detail})
	out.Send(data)
}
