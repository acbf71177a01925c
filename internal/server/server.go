package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"battlequiz-game/internal/config"
	"battlequiz-game/internal/hub"
	"battlequiz-game/internal/models"
	"battlequiz-game/internal/repository"
	"battlequiz-game/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	config      *config.Config
	hub         *hub.Hub
	gameService *services.GameService
	router      *gin.Engine
	upgrader    websocket.Upgrader
}

type WebSocketMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

func NewServer(cfg *config.Config) *Server {
	gameHub := hub.NewHub()

	var repo repository.Repository
	var err error

	switch {
	case cfg.RedisURL != "":
		log.Printf("Using Redis store")
		repo, err = repository.NewRedisRepository(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	case cfg.DatabaseURL != "":
		log.Printf("Using PostgreSQL store")
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
	default:
		log.Printf("Using in-memory store (development mode)")
		repo = repository.NewInMemoryRepository()
	}

	gameService := services.NewGameService(gameHub, repo, cfg)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins for development
		},
	}

	router := gin.Default()

	server := &Server{
		config:      cfg,
		hub:         gameHub,
		gameService: gameService,
		router:      router,
		upgrader:    upgrader,
	}

	server.setupRoutes()
	return server
}

// NewServerWithService wires a server around an existing game service, used
// by tests to drive the HTTP surface against an in-memory store.
func NewServerWithService(cfg *config.Config, gameHub *hub.Hub, gameService *services.GameService) *Server {
	server := &Server{
		config:      cfg,
		hub:         gameHub,
		gameService: gameService,
		router:      gin.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	server.setupRoutes()
	return server
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.POST("/rooms/join", s.joinRoom)
		api.GET("/rooms", s.listRooms)
		api.GET("/rooms/:id", s.getRoom)
		api.POST("/rooms/:id/team", s.selectTeam)
		api.POST("/rooms/:id/start", s.startGame)
		api.POST("/rooms/:id/answer", s.submitAnswer)
		api.POST("/rooms/:id/next", s.nextQuestion)
	}

	s.router.GET("/ws", s.handleWebSocket)
}

// statusForError maps the service error taxonomy onto HTTP codes: bad input
// 400, unknown entities 404, phase/capacity preconditions 409, storage 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidTeam):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrPlayerNotFound),
		errors.Is(err, services.ErrNotInRoom):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrWrongPhase),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrTeamRequired),
		errors.Is(err, services.ErrGameEnded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func modelTeam(team string) models.Team {
	if team == "" {
		return models.TeamUnassigned
	}
	// Anything unknown passes through; the service rejects it.
	return models.Team(team)
}

func (s *Server) joinRoom(c *gin.Context) {
	var req struct {
		PlayerName string `json:"player_name" binding:"required"`
		Team       string `json:"team"`
		RoomID     string `json:"room_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	room, player, err := s.gameService.Join(req.PlayerName, modelTeam(req.Team), req.RoomID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"room_id":   room.ID,
		"player_id": player.ID,
		"player":    player,
		"room":      room,
	})
}

func (s *Server) selectTeam(c *gin.Context) {
	roomID := c.Param("id")

	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
		Team     string `json:"team" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	player, err := s.gameService.SelectTeam(roomID, req.PlayerID, modelTeam(req.Team))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{"player": player})
}

func (s *Server) startGame(c *gin.Context) {
	roomID := c.Param("id")

	room, err := s.gameService.StartGame(roomID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{"room": room})
}

func (s *Server) submitAnswer(c *gin.Context) {
	roomID := c.Param("id")

	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
		// Pointer so index 0 survives required-field validation.
		AnswerIndex *int `json:"answer_index" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	allAnswered, err := s.gameService.SubmitAnswer(roomID, req.PlayerID, *req.AnswerIndex)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{"all_answered": allAnswered})
}

func (s *Server) nextQuestion(c *gin.Context) {
	roomID := c.Param("id")

	room, err := s.gameService.NextQuestion(roomID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{"room": room})
}

func (s *Server) getRoom(c *gin.Context) {
	roomID := c.Param("id")

	room, players, winner, err := s.gameService.GetRoomState(roomID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := gin.H{
		"room":    room,
		"players": players,
	}
	if winner != nil {
		resp["winner"] = winner
	}

	c.JSON(200, resp)
}

func (s *Server) listRooms(c *gin.Context) {
	summaries, err := s.gameService.ListRooms()
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(200, summaries)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &hub.Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}

	go s.readPump(conn, client)
	go s.writePump(conn, client)
}

func (s *Server) readPump(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		if client.Hub != nil {
			client.Hub.Unregister(client)
		}
		conn.Close()
	}()

	for {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		if msg.Type == "join_room" && msg.RoomID != "" {
			if client.Hub != nil {
				client.Hub.Unregister(client)
			}
			client.RoomID = msg.RoomID
			client.PlayerID = msg.PlayerID
			s.hub.GetOrCreateRoomHub(msg.RoomID).Register(client)
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) Start() error {
	return s.router.Run(":" + s.config.Port)
}
