package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"battlequiz-game/internal/config"
	"battlequiz-game/internal/hub"
	"battlequiz-game/internal/repository"
	"battlequiz-game/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Port:           "0",
		RoomCapacity:   100,
		QuestionTime:   3600,
		RoomTTLMinutes: 10,
	}
	gameHub := hub.NewHub()
	gameService := services.NewGameService(gameHub, repository.NewInMemoryRepository(), cfg)
	t.Cleanup(gameService.Stop)

	return NewServerWithService(cfg, gameHub, gameService)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func join(t *testing.T, srv *Server, name, team string) (roomID, playerID string) {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/join",
		map[string]string{"player_name": name, "team": team})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	return resp["room_id"].(string), resp["player_id"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJoinEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("missing name is 400", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/join",
			map[string]string{"team": "red"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown explicit room is 404", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/join",
			map[string]string{"player_name": "X", "room_id": "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("join returns player and room", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/join",
			map[string]string{"player_name": "Ada", "team": "blue"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode(t, w)
		assert.NotEmpty(t, resp["room_id"])
		assert.NotEmpty(t, resp["player_id"])
		player := resp["player"].(map[string]interface{})
		assert.Equal(t, "Ada", player["name"])
		assert.Equal(t, float64(100), player["health"])
		assert.Equal(t, "blue", player["team"])
	})
}

func TestStartEndpoint(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := join(t, srv, "Red", "red")

	t.Run("too few players is 409", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/nope/start", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("starts with two teamed players", func(t *testing.T) {
		join(t, srv, "Blue", "blue")
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		room := decode(t, w)["room"].(map[string]interface{})
		assert.Equal(t, "question", room["phase"])
	})
}

func TestAnswerAndNextEndpoints(t *testing.T) {
	srv := newTestServer(t)
	roomID, redID := join(t, srv, "Red", "red")
	_, blueID := join(t, srv, "Blue", "blue")

	t.Run("answer before start is 409", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": redID, "answer_index": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("index zero is accepted", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": redID, "answer_index": 0})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, false, decode(t, w)["all_answered"])
	})

	t.Run("missing answer_index is 400", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": redID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("last answer resolves", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": blueID, "answer_index": 1})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["all_answered"])
	})

	t.Run("next advances from results", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/next", nil)
		require.Equal(t, http.StatusOK, w.Code)
		room := decode(t, w)["room"].(map[string]interface{})
		assert.Equal(t, "question", room["phase"])
		assert.Equal(t, float64(1), room["current_question"])
	})

	t.Run("next during question is 409", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/next", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetRoomAndListEndpoints(t *testing.T) {
	srv := newTestServer(t)
	roomID, _ := join(t, srv, "Red", "red")
	join(t, srv, "Blue", "blue")

	t.Run("get room returns players", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode(t, w)
		players := resp["players"].([]interface{})
		assert.Len(t, players, 2)
		assert.Nil(t, resp["winner"])
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/rooms/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list rooms", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/rooms", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var summaries []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, roomID, summaries[0]["id"])
		assert.Equal(t, float64(2), summaries[0]["player_count"])
		assert.Equal(t, "waiting", summaries[0]["phase"])
	})
}

func TestTeamEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/join",
		map[string]string{"player_name": "Undecided"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	roomID := resp["room_id"].(string)
	playerID := resp["player_id"].(string)

	t.Run("bad team is 400", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/team",
			map[string]string{"player_id": playerID, "team": "green"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("assigns team", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/team",
			map[string]string{"player_id": playerID, "team": "red"})
		require.Equal(t, http.StatusOK, w.Code)
		player := decode(t, w)["player"].(map[string]interface{})
		assert.Equal(t, "red", player["team"])
	})
}

// A full two-player game over HTTP: joined, started, resolved each round on
// answers, ended by elimination, winner reported.
func TestFullGameOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	roomID, redID := join(t, srv, "Red", "red")
	_, blueID := join(t, srv, "Blue", "blue")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	for round := 0; round < 20; round++ {
		// Red always right, blue always wrong: blue bleeds out.
		w = doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": redID, "answer_index": 1})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/answer",
			map[string]interface{}{"player_id": blueID, "answer_index": 3})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, true, decode(t, w)["all_answered"])

		w = doJSON(t, srv, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		room := resp["room"].(map[string]interface{})

		if room["phase"] == "ended" {
			winner, ok := resp["winner"].(map[string]interface{})
			require.True(t, ok, "ended game should report a winner")
			assert.Equal(t, "Red", winner["name"])
			return
		}

		w = doJSON(t, srv, http.MethodPost, "/api/v1/rooms/"+roomID+"/next", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Fatalf("game in room %s never ended", roomID)
}
