package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/bots"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

func newTestServer(t *testing.T, opts game.Options) (*httptest.Server, *game.Manager) {
	t.Helper()
	opts.Bots = bots.Resolve
	m := game.NewManager(game.NewDuelFactory(), opts)
	ts := httptest.NewServer(New(m))
	t.Cleanup(ts.Close)
	return ts, m
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func builtinReq(id, bot string) models.PlayerConfig {
	return models.PlayerConfig{PlayerID: id, Kind: models.KindBuiltin, BuiltinBotID: bot}
}

func remoteReq(id string) models.PlayerConfig {
	return models.PlayerConfig{PlayerID: id, Kind: models.KindRemote}
}

func createSession(t *testing.T, ts *httptest.Server, p1, p2 models.PlayerConfig, visualize bool) uuid.UUID {
	t.Helper()
	resp := postJSON(t, ts.URL+"/sessions", createSessionRequest{Player1: p1, Player2: p2, Visualize: visualize})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[createSessionResponse](t, resp)
	id, err := uuid.Parse(body.SessionID)
	require.NoError(t, err)
	return id
}

func waitFinished(t *testing.T, m *game.Manager, id uuid.UUID) {
	t.Helper()
	s, err := m.GetSession(id)
	require.NoError(t, err)
	require.Eventually(t, s.Terminal, 3*time.Second, 2*time.Millisecond)
}

func TestCreateSessionAndList(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{TurnDeadline: 5 * time.Second})

	id := createSession(t, ts, builtinReq("alice", "aggressor"), remoteReq("bob"), false)

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]sessionSummary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, id.String(), list[0].SessionID)
	assert.Equal(t, []string{"alice", "bob"}, list[0].Players)
}

func TestCreateSessionValidationError(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{})

	resp := postJSON(t, ts.URL+"/sessions", createSessionRequest{
		Player1: models.PlayerConfig{PlayerID: "x", Kind: "psychic"},
		Player2: builtinReq("y", "pacifist"),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Error, "invalid config")
}

func TestSubmitActionFlow(t *testing.T) {
	ts, m := newTestServer(t, game.Options{TurnDeadline: 5 * time.Second, MaxTurns: 1})
	id := createSession(t, ts, builtinReq("alice", "pacifist"), remoteReq("bob"), false)

	sub := models.ActionSubmission{
		PlayerID: "bob",
		Turn:     1,
		Action:   models.Action{Move: &[2]int{-1, 0}},
	}
	url := fmt.Sprintf("%s/sessions/%s/actions", ts.URL, id)
	require.Eventually(t, func() bool {
		resp := postJSON(t, url, sub)
		return resp.StatusCode == http.StatusAccepted
	}, 2*time.Second, 5*time.Millisecond)

	waitFinished(t, m, id)
}

func TestSubmitActionErrors(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{TurnDeadline: 5 * time.Second})
	id := createSession(t, ts, builtinReq("alice", "trickster"), remoteReq("bob"), false)

	// Unknown session.
	resp := postJSON(t, fmt.Sprintf("%s/sessions/%s/actions", ts.URL, uuid.New()),
		models.ActionSubmission{PlayerID: "bob", Turn: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed id.
	resp = postJSON(t, ts.URL+"/sessions/not-a-uuid/actions",
		models.ActionSubmission{PlayerID: "bob", Turn: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Builtin sides never accept submissions.
	resp = postJSON(t, fmt.Sprintf("%s/sessions/%s/actions", ts.URL, id),
		models.ActionSubmission{PlayerID: "alice", Turn: 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{TurnDeadline: 5 * time.Second})
	id := createSession(t, ts, builtinReq("alice", "aggressor"), remoteReq("bob"), false)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/sessions/%s", ts.URL, id), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone from the registry; replay now misses.
	resp, err = http.Get(fmt.Sprintf("%s/sessions/%s/replay", ts.URL, id))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReplayEndpoint(t *testing.T) {
	ts, m := newTestServer(t, game.Options{MaxTurns: 2})
	id := createSession(t, ts, builtinReq("alice", "pacifist"), builtinReq("bob", "pacifist"), false)
	waitFinished(t, m, id)

	resp, err := http.Get(fmt.Sprintf("%s/sessions/%s/replay", ts.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := decodeBody[[]game.GameEvent](t, resp)
	require.Len(t, events, 4) // session_start, two turns, game_over
	assert.Equal(t, game.EventSessionStart, events[0].Event)
	assert.Equal(t, game.EventGameOver, events[3].Event)
	require.NotNil(t, events[3].Result)
	assert.Equal(t, models.ResultDraw, events[3].Result.Kind)
}

func TestEventStreamWebSocket(t *testing.T) {
	ts, m := newTestServer(t, game.Options{MaxTurns: 3})
	id := createSession(t, ts, builtinReq("alice", "aggressor"), builtinReq("bob", "pacifist"), false)
	waitFinished(t, m, id)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("%s/sessions/%s/events", ts.URL, id), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// A late joiner still receives the full history, then a clean close.
	var events []game.GameEvent
	for {
		var ev game.GameEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
			break
		}
		events = append(events, ev)
	}
	require.Len(t, events, 5)
	assert.Equal(t, game.EventSessionStart, events[0].Event)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, events[i].Turn)
	}
	assert.Equal(t, game.EventGameOver, events[4].Event)
}

func TestListBots(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{})
	resp, err := http.Get(ts.URL + "/bots")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := decodeBody[botsResponse](t, resp)
	assert.Equal(t, []string{"aggressor", "pacifist", "trickster"}, body.Bots)
}

func TestListPlayersWithoutStore(t *testing.T) {
	ts, _ := newTestServer(t, game.Options{})
	resp, err := http.Get(ts.URL + "/players")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[playersResponse](t, resp)
	assert.Empty(t, body.Players)
}
