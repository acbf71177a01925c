package services

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongPhase       = errors.New("operation not valid in current phase")
	ErrNotEnoughPlayers = errors.New("need at least 2 players")
	ErrTeamRequired     = errors.New("all players must pick a team first")
	ErrGameEnded        = errors.New("game has ended")
	ErrNotInRoom        = errors.New("player is not in this room")
	ErrInvalidTeam      = errors.New("team must be red or blue")
)
