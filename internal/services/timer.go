package services

import (
	"log"
	"time"

	"battlequiz-game/internal/models"
)

// armQuestionTimer schedules the hard deadline for one question. The timer is
// never cancelled; it carries the question index it was armed for and checks
// on firing whether that question is still the active one.
func (gs *GameService) armQuestionTimer(roomID string, questionIndex int) {
	go func() {
		time.Sleep(gs.questionTime)
		gs.fireQuestionTimer(roomID, questionIndex)
	}()
}

// fireQuestionTimer forces resolution of a question whose deadline passed.
// Players who never submitted get the unanswered sentinel, which always
// scores as wrong. A stale timer, one whose room has already resolved,
// advanced, or been deleted, is a no-op.
func (gs *GameService) fireQuestionTimer(roomID string, questionIndex int) {
	lock := gs.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := gs.repo.GetRoom(roomID)
	if err != nil {
		return
	}
	if room.Phase != models.Question || room.CurrentQuestion != questionIndex {
		return
	}

	for _, playerID := range room.Players {
		if _, ok := room.Answers[playerID]; !ok {
			room.Answers[playerID] = models.NoAnswer
		}
	}

	if err := gs.resolveQuestion(room); err != nil {
		log.Printf("error resolving question %d in room %s on deadline: %v",
			questionIndex, roomID, err)
	}
}
