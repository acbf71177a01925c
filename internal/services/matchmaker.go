package services

import (
	"errors"
	"fmt"

	"battlequiz-game/internal/models"
	"battlequiz-game/internal/repository"
)

// Join places a new player into a room. With an explicit room id the player
// goes there or the call fails; otherwise the first waiting room with a free
// seat takes them, and a fresh room is created when none has space.
//
// The seat itself is claimed inside joinRoom under the room's lock, so the
// capacity check and the append are one atomic step. Two players racing for
// the last seat cannot both win: the loser either falls through to the next
// candidate room or gets ErrRoomFull back for an explicit join.
func (gs *GameService) Join(playerName string, team models.Team, explicitRoomID string) (*models.Room, *models.Player, error) {
	if playerName == "" {
		return nil, nil, ErrInvalidInput
	}
	if team == "" {
		team = models.TeamUnassigned
	}
	if team != models.TeamRed && team != models.TeamBlue && team != models.TeamUnassigned {
		return nil, nil, ErrInvalidTeam
	}

	player := models.NewPlayer(playerName, team)

	if explicitRoomID != "" {
		room, err := gs.joinRoom(explicitRoomID, player)
		if err != nil {
			return nil, nil, err
		}
		return room, player, nil
	}

	rooms, err := gs.repo.ListRooms()
	if err != nil {
		return nil, nil, fmt.Errorf("listing rooms: %w", err)
	}

	for _, candidate := range rooms {
		if candidate.Phase != models.Waiting || len(candidate.Players) >= gs.capacity {
			continue
		}
		room, err := gs.joinRoom(candidate.ID, player)
		if err == nil {
			return room, player, nil
		}
		// The candidate filled up, started, or was reaped since the scan.
		if errors.Is(err, ErrRoomFull) || errors.Is(err, ErrWrongPhase) ||
			errors.Is(err, ErrGameEnded) || errors.Is(err, repository.ErrRoomNotFound) {
			continue
		}
		return nil, nil, err
	}

	room, err := gs.createRoom(player)
	if err != nil {
		return nil, nil, err
	}
	return room, player, nil
}

// joinRoom claims a seat in an existing room. The room is re-read under its
// lock, so the phase and capacity checks hold when the append is saved.
func (gs *GameService) joinRoom(roomID string, player *models.Player) (*models.Room, error) {
	lock := gs.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := gs.repo.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.Phase == models.Ended {
		return nil, ErrGameEnded
	}
	if room.Phase != models.Waiting {
		return nil, ErrWrongPhase
	}
	if len(room.Players) >= gs.capacity {
		return nil, ErrRoomFull
	}

	room.Players = append(room.Players, player.ID)

	if err := gs.repo.SavePlayer(player); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}
	if err := gs.repo.SaveRoom(room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}

	gs.broadcast(room.ID, "player_joined", map[string]interface{}{
		"player": player,
		"room":   room,
	})

	return room, nil
}

func (gs *GameService) createRoom(player *models.Player) (*models.Room, error) {
	room := models.NewRoom()
	room.Players = append(room.Players, player.ID)

	if err := gs.repo.SavePlayer(player); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}
	if err := gs.repo.SaveRoom(room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}

	gs.broadcast(room.ID, "player_joined", map[string]interface{}{
		"player": player,
		"room":   room,
	})

	return room, nil
}
