package repository

import (
	"sync"

	"battlequiz-game/internal/models"
)

// InMemoryRepository backs the game with plain maps. It hands out copies so
// callers can mutate a loaded room or player freely and nothing is visible
// until it is saved back, matching how the persistent stores behave.
type InMemoryRepository struct {
	rooms   map[string]*models.Room
	players map[string]*models.Player
	mu      sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		rooms:   make(map[string]*models.Room),
		players: make(map[string]*models.Player),
	}
}

func (r *InMemoryRepository) SaveRoom(room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *InMemoryRepository) GetRoom(roomID string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (r *InMemoryRepository) ListRooms() ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room.Clone())
	}
	return rooms, nil
}

func (r *InMemoryRepository) DeleteRoom(roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
	return nil
}

func (r *InMemoryRepository) SaveGameState(room *models.Room, players []*models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room.Clone()
	for _, player := range players {
		r.players[player.ID] = player.Clone()
	}
	return nil
}

func (r *InMemoryRepository) SavePlayer(player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[player.ID] = player.Clone()
	return nil
}

func (r *InMemoryRepository) GetPlayer(playerID string) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (r *InMemoryRepository) GetPlayers(playerIDs []string) ([]*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]*models.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		player, ok := r.players[id]
		if !ok {
			return nil, ErrPlayerNotFound
		}
		players = append(players, player.Clone())
	}
	return players, nil
}

func (r *InMemoryRepository) DeletePlayer(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, playerID)
	return nil
}

func (r *InMemoryRepository) Close() error {
	return nil
}
