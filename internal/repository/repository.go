package repository

import (
	"errors"

	"battlequiz-game/internal/models"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// Repository is a dumb store for rooms and players. All game logic, including
// per-room serialization of writes, lives above it in the services layer.
type Repository interface {
	SaveRoom(room *models.Room) error
	GetRoom(roomID string) (*models.Room, error)
	ListRooms() ([]*models.Room, error)
	DeleteRoom(roomID string) error

	// SaveGameState persists a room together with a batch of players,
	// atomically where the backend supports it. Combat resolution uses this
	// so a failed save never leaves half a question's mutations behind.
	SaveGameState(room *models.Room, players []*models.Player) error

	SavePlayer(player *models.Player) error
	GetPlayer(playerID string) (*models.Player, error)
	// GetPlayers returns players in the order of the given ids, which is the
	// room's join order. Unknown ids are an error.
	GetPlayers(playerIDs []string) ([]*models.Player, error)
	DeletePlayer(playerID string) error

	Close() error
}
