package models

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	Waiting  Phase = "waiting"
	Question Phase = "question"
	Results  Phase = "results"
	Ended    Phase = "ended"
)

type Team string

const (
	TeamRed        Team = "red"
	TeamBlue       Team = "blue"
	TeamUnassigned Team = "unassigned"
)

const (
	MaxHealth = 100

	// AttackDamage is dealt to a random opponent when a red player answers
	// correctly. ShieldGain is what a blue player banks instead. WrongDamage
	// is the self-inflicted cost of a wrong (or missing) answer.
	AttackDamage = 10
	ShieldGain   = 11
	WrongDamage  = 25

	// NoAnswer marks a player who never submitted before the deadline.
	// It can never equal a real option index, so it always scores as wrong.
	NoAnswer = -1
)

type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"max_health"`
	Shield    int    `json:"shield"`
	Team      Team   `json:"team"`
	Alive     bool   `json:"alive"`
}

type Room struct {
	ID              string         `json:"id"`
	Players         []string       `json:"players"`
	CurrentQuestion int            `json:"current_question"`
	Phase           Phase          `json:"phase"`
	Answers         map[string]int `json:"answers"`
	CreatedAt       time.Time      `json:"created_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
}

type QuestionEntry struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

type GameEvent struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type RoomSummary struct {
	ID          string    `json:"id"`
	PlayerCount int       `json:"player_count"`
	Phase       Phase     `json:"phase"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewRoom() *Room {
	return &Room{
		ID:        uuid.New().String(),
		Players:   make([]string, 0),
		Phase:     Waiting,
		Answers:   make(map[string]int),
		CreatedAt: time.Now(),
	}
}

func NewPlayer(name string, team Team) *Player {
	return &Player{
		ID:        uuid.New().String(),
		Name:      name,
		Health:    MaxHealth,
		MaxHealth: MaxHealth,
		Shield:    0,
		Team:      team,
		Alive:     true,
	}
}

func (r *Room) HasPlayer(playerID string) bool {
	for _, id := range r.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

// AllAnswered reports whether every player in the room, dead or alive, has an
// answer recorded for the current question.
func (r *Room) AllAnswered() bool {
	for _, id := range r.Players {
		if _, ok := r.Answers[id]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) ClearAnswers() {
	r.Answers = make(map[string]int)
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		PlayerCount: len(r.Players),
		Phase:       r.Phase,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = append([]string(nil), r.Players...)
	clone.Answers = make(map[string]int, len(r.Answers))
	for k, v := range r.Answers {
		clone.Answers[k] = v
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		clone.EndedAt = &t
	}
	return &clone
}

func (p *Player) Clone() *Player {
	clone := *p
	return &clone
}

// TakeDamage applies an incoming hit, letting the shield soak it first.
// Damage to health is computed from the shield value before it is reduced.
// Dropping to zero health kills the player permanently.
func (p *Player) TakeDamage(amount int) {
	damage := amount - p.Shield
	if damage < 0 {
		damage = 0
	}
	p.Shield -= amount
	if p.Shield < 0 {
		p.Shield = 0
	}
	p.Health -= damage
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Health == 0 {
		p.Alive = false
	}
}

// Scoreable reports whether the combat resolver should score this player at
// all: the dead and the teamless are skipped.
func (p *Player) Scoreable() bool {
	return p.Alive && p.Team != TeamUnassigned
}
