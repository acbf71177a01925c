package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"battlequiz-game/internal/models"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func createTables(db *sql.DB) error {
	createRoomsTable := `
	CREATE TABLE IF NOT EXISTS rooms (
		id VARCHAR(36) PRIMARY KEY,
		players JSONB NOT NULL DEFAULT '[]',
		current_question INTEGER NOT NULL DEFAULT 0,
		phase VARCHAR(20) NOT NULL DEFAULT 'waiting',
		answers JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		ended_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createPlayersTable := `
	CREATE TABLE IF NOT EXISTS players (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		health INTEGER NOT NULL DEFAULT 100,
		max_health INTEGER NOT NULL DEFAULT 100,
		shield INTEGER NOT NULL DEFAULT 0,
		team VARCHAR(20) NOT NULL DEFAULT 'unassigned',
		alive BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_rooms_phase ON rooms(phase);
	`

	if _, err := db.Exec(createRoomsTable); err != nil {
		return err
	}
	if _, err := db.Exec(createPlayersTable); err != nil {
		return err
	}
	if _, err := db.Exec(createIndexes); err != nil {
		return err
	}

	return nil
}

func (r *PostgresRepository) SaveRoom(room *models.Room) error {
	playersJSON, err := json.Marshal(room.Players)
	if err != nil {
		return err
	}
	answersJSON, err := json.Marshal(room.Answers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (id, players, current_question, phase, answers, created_at, ended_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			players = EXCLUDED.players,
			current_question = EXCLUDED.current_question,
			phase = EXCLUDED.phase,
			answers = EXCLUDED.answers,
			ended_at = EXCLUDED.ended_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(query,
		room.ID,
		playersJSON,
		room.CurrentQuestion,
		room.Phase,
		answersJSON,
		room.CreatedAt,
		room.EndedAt,
		time.Now(),
	)
	return err
}

func (r *PostgresRepository) GetRoom(roomID string) (*models.Room, error) {
	query := `
		SELECT id, players, current_question, phase, answers, created_at, ended_at
		FROM rooms WHERE id = $1
	`

	var room models.Room
	var playersJSON, answersJSON []byte

	err := r.db.QueryRow(query, roomID).Scan(
		&room.ID, &playersJSON, &room.CurrentQuestion, &room.Phase,
		&answersJSON, &room.CreatedAt, &room.EndedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(playersJSON, &room.Players); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answersJSON, &room.Answers); err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *PostgresRepository) ListRooms() ([]*models.Room, error) {
	query := `
		SELECT id, players, current_question, phase, answers, created_at, ended_at
		FROM rooms
		ORDER BY created_at
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room
		var playersJSON, answersJSON []byte
		err := rows.Scan(&room.ID, &playersJSON, &room.CurrentQuestion,
			&room.Phase, &answersJSON, &room.CreatedAt, &room.EndedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(playersJSON, &room.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answersJSON, &room.Answers); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

func (r *PostgresRepository) DeleteRoom(roomID string) error {
	_, err := r.db.Exec("DELETE FROM rooms WHERE id = $1", roomID)
	return err
}

func (r *PostgresRepository) SaveGameState(room *models.Room, players []*models.Player) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	playersJSON, err := json.Marshal(room.Players)
	if err != nil {
		return err
	}
	answersJSON, err := json.Marshal(room.Answers)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO rooms (id, players, current_question, phase, answers, created_at, ended_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			players = EXCLUDED.players,
			current_question = EXCLUDED.current_question,
			phase = EXCLUDED.phase,
			answers = EXCLUDED.answers,
			ended_at = EXCLUDED.ended_at,
			updated_at = EXCLUDED.updated_at
	`, room.ID, playersJSON, room.CurrentQuestion, room.Phase, answersJSON,
		room.CreatedAt, room.EndedAt, time.Now())
	if err != nil {
		return err
	}

	for _, player := range players {
		_, err = tx.Exec(`
			INSERT INTO players (id, name, health, max_health, shield, team, alive, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				health = EXCLUDED.health,
				max_health = EXCLUDED.max_health,
				shield = EXCLUDED.shield,
				team = EXCLUDED.team,
				alive = EXCLUDED.alive
		`, player.ID, player.Name, player.Health, player.MaxHealth,
			player.Shield, player.Team, player.Alive, time.Now())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) SavePlayer(player *models.Player) error {
	query := `
		INSERT INTO players (id, name, health, max_health, shield, team, alive, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			health = EXCLUDED.health,
			max_health = EXCLUDED.max_health,
			shield = EXCLUDED.shield,
			team = EXCLUDED.team,
			alive = EXCLUDED.alive
	`

	_, err := r.db.Exec(query, player.ID, player.Name, player.Health,
		player.MaxHealth, player.Shield, player.Team, player.Alive, time.Now())
	return err
}

func (r *PostgresRepository) GetPlayer(playerID string) (*models.Player, error) {
	query := `
		SELECT id, name, health, max_health, shield, team, alive
		FROM players WHERE id = $1
	`

	var player models.Player
	err := r.db.QueryRow(query, playerID).Scan(
		&player.ID, &player.Name, &player.Health, &player.MaxHealth,
		&player.Shield, &player.Team, &player.Alive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	return &player, nil
}

func (r *PostgresRepository) GetPlayers(playerIDs []string) ([]*models.Player, error) {
	query := `
		SELECT id, name, health, max_health, shield, team, alive
		FROM players WHERE id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(playerIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Player, len(playerIDs))
	for rows.Next() {
		var player models.Player
		err := rows.Scan(&player.ID, &player.Name, &player.Health,
			&player.MaxHealth, &player.Shield, &player.Team, &player.Alive)
		if err != nil {
			return nil, err
		}
		byID[player.ID] = &player
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve join order.
	players := make([]*models.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		player, ok := byID[id]
		if !ok {
			return nil, ErrPlayerNotFound
		}
		players = append(players, player)
	}

	return players, nil
}

func (r *PostgresRepository) DeletePlayer(playerID string) error {
	_, err := r.db.Exec("DELETE FROM players WHERE id = $1", playerID)
	return err
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
