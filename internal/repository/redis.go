package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"battlequiz-game/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix   = "room:"
	playerKeyPrefix = "player:"
)

// RedisRepository stores rooms and players as JSON blobs under prefixed keys,
// scanning the room prefix for listings.
type RedisRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisRepository(redisURL string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisRepository{client: client, ctx: ctx}, nil
}

func (r *RedisRepository) SaveRoom(room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.client.Set(r.ctx, roomKeyPrefix+room.ID, data, 0).Err()
}

func (r *RedisRepository) GetRoom(roomID string) (*models.Room, error) {
	data, err := r.client.Get(r.ctx, roomKeyPrefix+roomID).Bytes()
	if err == redis.Nil {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RedisRepository) ListRooms() ([]*models.Room, error) {
	var rooms []*models.Room
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(r.ctx, cursor, roomKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}

		if len(keys) > 0 {
			values, err := r.client.MGet(r.ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				s, ok := v.(string)
				if !ok {
					// Key expired between SCAN and MGET.
					continue
				}
				var room models.Room
				if err := json.Unmarshal([]byte(s), &room); err != nil {
					return nil, err
				}
				rooms = append(rooms, &room)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return rooms, nil
}

func (r *RedisRepository) DeleteRoom(roomID string) error {
	return r.client.Del(r.ctx, roomKeyPrefix+roomID).Err()
}

func (r *RedisRepository) SaveGameState(room *models.Room, players []*models.Player) error {
	roomData, err := json.Marshal(room)
	if err != nil {
		return err
	}
	playerData := make(map[string][]byte, len(players))
	for _, player := range players {
		data, err := json.Marshal(player)
		if err != nil {
			return err
		}
		playerData[player.ID] = data
	}

	_, err = r.client.TxPipelined(r.ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(r.ctx, roomKeyPrefix+room.ID, roomData, 0)
		for id, data := range playerData {
			pipe.Set(r.ctx, playerKeyPrefix+id, data, 0)
		}
		return nil
	})
	return err
}

func (r *RedisRepository) SavePlayer(player *models.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return r.client.Set(r.ctx, playerKeyPrefix+player.ID, data, 0).Err()
}

func (r *RedisRepository) GetPlayer(playerID string) (*models.Player, error) {
	data, err := r.client.Get(r.ctx, playerKeyPrefix+playerID).Bytes()
	if err == redis.Nil {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}

	var player models.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *RedisRepository) GetPlayers(playerIDs []string) ([]*models.Player, error) {
	if len(playerIDs) == 0 {
		return []*models.Player{}, nil
	}

	keys := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		keys[i] = playerKeyPrefix + id
	}

	values, err := r.client.MGet(r.ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*models.Player, 0, len(playerIDs))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, ErrPlayerNotFound
		}
		var player models.Player
		if err := json.Unmarshal([]byte(s), &player); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}

	return players, nil
}

func (r *RedisRepository) DeletePlayer(playerID string) error {
	return r.client.Del(r.ctx, playerKeyPrefix+playerID).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
