package signal

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sender is the write side of a connected peer. The websocket handler
// satisfies it with a buffered channel pumped to the socket.
type sender interface {
	Send(data []byte)
}

// Peer is one connected signaling client.
type Peer struct {
	ID     string
	RoomID string
	out    sender
}

// Room groups the peers of one call.
type Room struct {
	ID        string
	CreatedAt time.Time
	peers     map[string]*Peer
	// emptySince is set at creation and whenever the last peer leaves;
	// zeroed while occupied. Drives the TTL sweep.
	emptySince time.Time
}

// Hub owns the room roster. It forwards messages between exactly the
// peers of a room and holds no knowledge of negotiation semantics.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	peers map[string]*Peer
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*Room),
		peers: make(map[string]*Peer),
	}
}

// CreateRoom registers a fresh room and returns its id.
func (h *Hub) CreateRoom() string {
	roomID := uuid.New().String()
	h.mu.Lock()
	h.rooms[roomID] = &Room{
		ID:         roomID,
		CreatedAt:  time.Now(),
		peers:      make(map[string]*Peer),
		emptySince: time.Now(),
	}
	h.mu.Unlock()
	log.Printf("Room created: %s", roomID)
	return roomID
}

// RoomExists reports whether the hub currently tracks roomID.
func (h *Hub) RoomExists(roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID]
	return ok
}

// Join registers the peer in the room, creating the room if absent, and
// returns the ids of the other peers already present. An empty roster
// tells the caller it joined first and must wait for the offer; a
// non-empty roster tells it to initiate. Existing peers are notified
// reactively with a peer-joined event.
func (h *Hub) Join(roomID, peerID string, out sender) []string {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = &Room{
			ID:        roomID,
			CreatedAt: time.Now(),
			peers:     make(map[string]*Peer),
		}
		h.rooms[roomID] = room
	}
	room.emptySince = time.Time{}

	others := make([]string, 0, len(room.peers))
	for id := range room.peers {
		others = append(others, id)
	}

	peer := &Peer{ID: peerID, RoomID: roomID, out: out}
	room.peers[peerID] = peer
	h.peers[peerID] = peer
	h.mu.Unlock()

	h.notifyRoom(roomID, peerID, Message{
		Type:   SignalTypePeerJoined,
		From:   peerID,
		RoomID: roomID,
	})

	log.Printf("Peer %s joined room %s (%d other peers)", peerID, roomID, len(others))
	return others
}

// Relay forwards an offer, answer or ice-candidate verbatim. With To set
// it goes to that peer only; otherwise it is broadcast to the room minus
// the sender. An unknown target peer is a silent no-op: signaling is
// inherently racy and the target may have disconnected mid-flight.
func (h *Hub) Relay(msg Message) {
	if !msg.IsRelayable() {
		return
	}
	if msg.To != "" {
		h.mu.RLock()
		peer, ok := h.peers[msg.To]
		h.mu.RUnlock()
		if !ok {
			return
		}
		sendMessage(peer, msg)
		return
	}
	h.notifyRoom(msg.RoomID, msg.From, msg)
}

// Leave removes the peer from its room and notifies the remaining peers.
// A room left empty becomes eligible for the TTL sweep.
func (h *Hub) Leave(peerID string) {
	h.mu.Lock()
	peer, ok := h.peers[peerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, peerID)
	roomID := peer.RoomID
	if room, ok := h.rooms[roomID]; ok {
		delete(room.peers, peerID)
		if len(room.peers) == 0 {
			room.emptySince = time.Now()
		}
	}
	h.mu.Unlock()

	h.notifyRoom(roomID, peerID, Message{
		Type:   SignalTypePeerLeft,
		From:   peerID,
		RoomID: roomID,
	})
	log.Printf("Peer %s left room %s", peerID, roomID)
}

// SweepEmptyRooms drops rooms that have been empty longer than ttl and
// returns how many were removed.
func (h *Hub) SweepEmptyRooms(ttl time.Duration) int {
	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, room := range h.rooms {
		if len(room.peers) == 0 && !room.emptySince.IsZero() && now.Sub(room.emptySince) > ttl {
			delete(h.rooms, id)
			removed++
			log.Printf("Swept empty room %s (empty for %s)", id, now.Sub(room.emptySince).Round(time.Minute))
		}
	}
	return removed
}

// notifyRoom sends msg to every peer in the room except exclude.
func (h *Hub) notifyRoom(roomID, exclude string, msg Message) {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Peer, 0, len(room.peers))
	for id, p := range room.peers {
		if id != exclude {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range targets {
		sendMessage(p, msg)
	}
}

func sendMessage(p *Peer, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal signal message: %v", err)
		return
	}
	p.out.Send(data)
}
