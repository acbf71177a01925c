package hub

import (
	"log"
	"sync"
)

// Hub tracks one RoomHub per active room so game events can be pushed to
// connected spectators and players instead of forcing them to poll.
type Hub struct {
	rooms map[string]*RoomHub
	mu    sync.RWMutex
}

type RoomHub struct {
	roomID     string
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

type Client struct {
	ID       string
	RoomID   string
	PlayerID string
	Send     chan []byte
	Hub      *RoomHub
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*RoomHub),
	}
}

func (h *Hub) GetRoomHub(roomID string) *RoomHub {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// GetOrCreateRoomHub returns the hub for a room, starting one if needed.
func (h *Hub) GetOrCreateRoomHub(roomID string) *RoomHub {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rh, ok := h.rooms[roomID]; ok {
		return rh
	}

	rh := &RoomHub{
		roomID:     roomID,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
	h.rooms[roomID] = rh
	go rh.run()

	return rh
}

func (h *Hub) RemoveRoomHub(roomID string) {
	h.mu.Lock()
	rh, ok := h.rooms[roomID]
	delete(h.rooms, roomID)
	h.mu.Unlock()

	if ok {
		close(rh.done)
	}
}

func (rh *RoomHub) run() {
	for {
		select {
		case client := <-rh.register:
			rh.clients[client.ID] = client

		case client := <-rh.unregister:
			if _, ok := rh.clients[client.ID]; ok {
				delete(rh.clients, client.ID)
				close(client.Send)
			}

		case message := <-rh.broadcast:
			for id, client := range rh.clients {
				select {
				case client.Send <- message:
				default:
					// Slow client, drop it rather than stall the room.
					log.Printf("dropping slow client %s from room %s", id, rh.roomID)
					delete(rh.clients, id)
					close(client.Send)
				}
			}

		case <-rh.done:
			for id, client := range rh.clients {
				delete(rh.clients, id)
				close(client.Send)
			}
			return
		}
	}
}

func (rh *RoomHub) Register(client *Client) {
	client.Hub = rh
	select {
	case rh.register <- client:
	case <-rh.done:
	}
}

func (rh *RoomHub) Unregister(client *Client) {
	select {
	case rh.unregister <- client:
	case <-rh.done:
	}
}

func (rh *RoomHub) Broadcast(data []byte) {
	select {
	case rh.broadcast <- data:
	case <-rh.done:
	}
}
