package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"battlequiz-game/internal/config"
	"battlequiz-game/internal/hub"
	"battlequiz-game/internal/models"
	"battlequiz-game/internal/repository"
)

// GameService drives rooms through their lifecycle: matchmaking players in,
// starting games, collecting answers, resolving combat on completion or
// deadline, and advancing or ending the game.
//
// Every mutation of a given room runs under that room's mutex from roomLocks.
// Rooms never share a lock, so independent games proceed in parallel.
type GameService struct {
	hub          *hub.Hub
	repo         repository.Repository
	questionBank *QuestionBank
	capacity     int
	questionTime time.Duration
	roomTTL      time.Duration
	rng          Rand

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

// lockedRand guards a shared math/rand source; room resolutions in different
// rooms may draw concurrently.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func NewGameService(gameHub *hub.Hub, repo repository.Repository, cfg *config.Config) *GameService {
	gs := &GameService{
		hub:          gameHub,
		repo:         repo,
		questionBank: NewQuestionBank(),
		capacity:     cfg.RoomCapacity,
		questionTime: time.Duration(cfg.QuestionTime) * time.Second,
		roomTTL:      time.Duration(cfg.RoomTTLMinutes) * time.Minute,
		rng:          &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		roomLocks:    make(map[string]*sync.Mutex),
		stopCh:       make(chan struct{}),
	}

	go gs.cleanupLoop()

	return gs
}

func (gs *GameService) Stop() {
	gs.stopOnce.Do(func() { close(gs.stopCh) })
}

// roomLock returns the mutex serializing all mutations of one room.
func (gs *GameService) roomLock(roomID string) *sync.Mutex {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	l, ok := gs.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		gs.roomLocks[roomID] = l
	}
	return l
}

// StartGame moves a waiting room into its first question. It requires at
// least two players, all of them with a team picked, and arms the question
// deadline.
func (gs *GameService) StartGame(roomID string) (*models.Room, error) {
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
	if len(room.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	players, err := gs.repo.GetPlayers(room.Players)
	if err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}
	for _, p := range players {
		if p.Team == models.TeamUnassigned {
			return nil, ErrTeamRequired
		}
	}

	room.Phase = models.Question
	room.CurrentQuestion = 0
	room.ClearAnswers()

	if err := gs.repo.SaveRoom(room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}

	gs.armQuestionTimer(room.ID, room.CurrentQuestion)

	gs.broadcast(room.ID, "game_started", map[string]interface{}{
		"room": room,
	})
	gs.broadcastQuestion(room, "new_question")

	return room, nil
}

// SubmitAnswer records one player's choice for the active question,
// overwriting any earlier submission. When the last outstanding player
// answers, the question resolves synchronously before this returns.
func (gs *GameService) SubmitAnswer(roomID, playerID string, answerIndex int) (bool, error) {
	if answerIndex < 0 {
		return false, ErrInvalidInput
	}

	lock := gs.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := gs.repo.GetRoom(roomID)
	if err != nil {
		return false, err
	}
	if room.Phase == models.Ended {
		return false, ErrGameEnded
	}
	if room.Phase != models.Question {
		return false, ErrWrongPhase
	}
	if !room.HasPlayer(playerID) {
		return false, ErrNotInRoom
	}

	room.Answers[playerID] = answerIndex

	if !room.AllAnswered() {
		if err := gs.repo.SaveRoom(room); err != nil {
			return false, fmt.Errorf("saving room: %w", err)
		}
		gs.broadcast(room.ID, "answer_received", map[string]interface{}{
			"player_id": playerID,
			"answered":  len(room.Answers),
			"total":     len(room.Players),
		})
		return false, nil
	}

	if err := gs.resolveQuestion(room); err != nil {
		return false, err
	}
	return true, nil
}

// NextQuestion advances a room sitting on results to the following question
// and re-arms the deadline.
func (gs *GameService) NextQuestion(roomID string) (*models.Room, error) {
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
	if room.Phase != models.Results {
		return nil, ErrWrongPhase
	}

	room.CurrentQuestion++
	room.ClearAnswers()
	room.Phase = models.Question

	if err := gs.repo.SaveRoom(room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}

	gs.armQuestionTimer(room.ID, room.CurrentQuestion)
	gs.broadcastQuestion(room, "next_question")

	return room, nil
}

// SelectTeam assigns a team to a player who joined without one. Only allowed
// while the room is still waiting, so a started game never has teamless
// players.
func (gs *GameService) SelectTeam(roomID, playerID string, team models.Team) (*models.Player, error) {
	if team != models.TeamRed && team != models.TeamBlue {
		return nil, ErrInvalidTeam
	}

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
	if !room.HasPlayer(playerID) {
		return nil, ErrNotInRoom
	}

	player, err := gs.repo.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	player.Team = team

	if err := gs.repo.SavePlayer(player); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}

	gs.broadcast(room.ID, "team_selected", map[string]interface{}{
		"player": player,
	})

	return player, nil
}

// GetRoomState returns a consistent snapshot of a room with its players, and
// the winner once the game has ended.
func (gs *GameService) GetRoomState(roomID string) (*models.Room, []*models.Player, *models.Player, error) {
	lock := gs.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := gs.repo.GetRoom(roomID)
	if err != nil {
		return nil, nil, nil, err
	}

	players, err := gs.repo.GetPlayers(room.Players)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading players: %w", err)
	}

	var winner *models.Player
	if room.Phase == models.Ended {
		winner = Winner(players)
	}

	return room, players, winner, nil
}

func (gs *GameService) ListRooms() ([]models.RoomSummary, error) {
	rooms, err := gs.repo.ListRooms()
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}

	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	return summaries, nil
}

// resolveQuestion scores the current question and transitions the room to
// results, or straight to ended when the termination condition holds. The
// caller must hold the room lock.
//
// The phase guard makes resolution at-most-once per question: whichever of
// the answer collector and the deadline timer gets here second sees a phase
// other than question and does nothing. All mutations are committed in one
// repository batch, so a storage failure leaves the room in the question
// phase with nothing applied and the resolution can simply run again.
func (gs *GameService) resolveQuestion(room *models.Room) error {
	if room.Phase != models.Question {
		return nil
	}

	question := gs.questionBank.Get(room.CurrentQuestion)
	if question == nil {
		return fmt.Errorf("no question at index %d", room.CurrentQuestion)
	}

	players, err := gs.repo.GetPlayers(room.Players)
	if err != nil {
		return fmt.Errorf("loading players: %w", err)
	}

	ResolveCombat(room, players, question.Correct, gs.rng)

	room.Phase = models.Results
	if AliveCount(players) <= 1 || room.CurrentQuestion >= gs.questionBank.LastIndex() {
		room.Phase = models.Ended
		now := time.Now()
		room.EndedAt = &now
	}

	if err := gs.repo.SaveGameState(room, players); err != nil {
		// Roll the in-memory transition back so a retry sees question phase.
		room.Phase = models.Question
		room.EndedAt = nil
		return fmt.Errorf("saving resolution: %w", err)
	}

	gs.broadcast(room.ID, "question_results", map[string]interface{}{
		"correct_answer": question.Correct,
		"question_id":    question.ID,
		"players":        players,
		"phase":          room.Phase,
	})

	if room.Phase == models.Ended {
		gs.broadcast(room.ID, "game_ended", map[string]interface{}{
			"winner":  Winner(players),
			"players": players,
		})
	}

	return nil
}

func (gs *GameService) broadcastQuestion(room *models.Room, eventType string) {
	question := gs.questionBank.Get(room.CurrentQuestion)
	if question == nil {
		return
	}
	gs.broadcast(room.ID, eventType, map[string]interface{}{
		"question_id":     question.ID,
		"question":        question.Text,
		"options":         question.Options,
		"question_number": room.CurrentQuestion + 1,
		"total_questions": gs.questionBank.Len(),
		"time_limit":      int(gs.questionTime.Seconds()),
	})
}

func (gs *GameService) broadcast(roomID, eventType string, data interface{}) {
	event := models.GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now(),
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("error marshaling %s event: %v", eventType, err)
		return
	}

	gs.hub.GetOrCreateRoomHub(roomID).Broadcast(jsonData)
}

// cleanupLoop deletes ended rooms, and their players, once they have been
// finished longer than the configured TTL.
func (gs *GameService) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-gs.stopCh:
			return
		case <-ticker.C:
			gs.reapEndedRooms()
		}
	}
}

func (gs *GameService) reapEndedRooms() {
	rooms, err := gs.repo.ListRooms()
	if err != nil {
		log.Printf("error listing rooms for cleanup: %v", err)
		return
	}

	for _, room := range rooms {
		if room.Phase != models.Ended || room.EndedAt == nil {
			continue
		}
		if time.Since(*room.EndedAt) < gs.roomTTL {
			continue
		}

		lock := gs.roomLock(room.ID)
		lock.Lock()
		for _, playerID := range room.Players {
			if err := gs.repo.DeletePlayer(playerID); err != nil {
				log.Printf("error deleting player %s: %v", playerID, err)
			}
		}
		if err := gs.repo.DeleteRoom(room.ID); err != nil {
			log.Printf("error deleting room %s: %v", room.ID, err)
		}
		lock.Unlock()

		gs.hub.RemoveRoomHub(room.ID)
		gs.mu.Lock()
		delete(gs.roomLocks, room.ID)
		gs.mu.Unlock()

		log.Printf("cleaned up ended room %s", room.ID)
	}
}
