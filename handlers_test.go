package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, cfg *Config) (*httptest.Server, *Store) {
	t.Helper()

	if cfg == nil {
		cfg = &Config{handSize: 5, chatHistory: 50}
	}
	store := NewStore(cfg.chatHistory)
	mux := httprouter.New()
	registerRoutes(cfg, store, mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createTestRoom(t *testing.T, srv *httptest.Server, code string) string {
	t.Helper()

	resp, body := postJSON(t, srv.URL+"/api/rooms/create", map[string]any{
		"room_code":   code,
		"player_id":   "p0",
		"player_name": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterRoutes(t *testing.T) {
	cfg := &Config{handSize: 5, chatHistory: 50, profile: true}
	store := NewStore(cfg.chatHistory)
	mux := httprouter.New()

	// httprouter panics at registration time on conflicting paths, so
	// building the table is itself the assertion.
	require.NotPanics(t, func() { registerRoutes(cfg, store, mux) })

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/version"},
		{http.MethodGet, "/robots.txt"},
		{http.MethodPost, "/api/rooms/create"},
		{http.MethodPost, "/api/rooms/join"},
		{http.MethodGet, "/api/rooms/ROOM1"},
		{http.MethodPost, "/api/rooms/ROOM1/phase"},
		{http.MethodPost, "/api/rooms/ROOM1/themes"},
		{http.MethodPost, "/api/rooms/ROOM1/leave"},
		{http.MethodPost, "/api/rooms/ROOM1/cards"},
		{http.MethodGet, "/api/rooms/ROOM1/cards"},
		{http.MethodPost, "/api/rooms/ROOM1/vote"},
		{http.MethodGet, "/api/rooms/ROOM1/votes"},
		{http.MethodGet, "/api/rooms/ROOM1/hand"},
		{http.MethodPost, "/api/rooms/ROOM1/calculate_results"},
		{http.MethodPost, "/api/rooms/ROOM1/next_round"},
		{http.MethodPost, "/api/auth/verify"},
		{http.MethodGet, "/api/debug/rooms"},
		{http.MethodGet, "/rooms/ROOM1/qr"},
		{http.MethodGet, "/ws/ROOM1"},
		{http.MethodGet, "/pprof/heap"},
	}
	for _, route := range routes {
		handle, _, _ := mux.Lookup(route.method, route.path)
		assert.NotNil(t, handle, "%s %s is not routable", route.method, route.path)
	}
}

func TestRoomActionDispatch(t *testing.T) {
	srv, _ := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")

	// A POST to the room code itself is not an action.
	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/api/rooms/create", map[string]any{
		"room_code":   "ROOM1",
		"player_id":   "p0",
		"player_name": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["player_slot"])
	assert.NotEmpty(t, body["token"])

	resp, _ = postJSON(t, srv.URL+"/api/rooms/create", map[string]any{
		"room_code":   "ROOM1",
		"player_id":   "p9",
		"player_name": "mallory",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/rooms/create", map[string]any{
		"room_code": "ROOM2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinAndGetRoomEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")

	resp, body := postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code":   "ROOM1",
		"player_id":   "p1",
		"player_name": "bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["player_slot"])

	resp, _ = postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code":   "NOPE",
		"player_id":   "p1",
		"player_name": "bob",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = getJSON(t, srv.URL+"/api/rooms/ROOM1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	room, ok := body["room"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ROOM1", room["room_code"])
	assert.Equal(t, PhaseLobby, room["phase"])
	assert.Nil(t, room["round_seed"])

	players, ok := body["players"].([]any)
	require.True(t, ok)
	assert.Len(t, players, 2)
	for _, p := range players {
		view := p.(map[string]any)
		assert.NotContains(t, view, "token")
		assert.Equal(t, false, view["is_online"])
	}
}

func TestPhaseAndHandEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")
	postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p1", "player_name": "bob",
	})

	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1/phase", map[string]any{
		"phase":      PhasePlacement,
		"round_seed": 42,
		"themes":     []string{ThemeFood},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := getJSON(t, srv.URL+"/api/rooms/ROOM1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room := body["room"].(map[string]any)
	assert.Equal(t, PhasePlacement, room["phase"])
	assert.Equal(t, float64(42), room["round_seed"])
	assert.Equal(t, ThemeFood, room["selected_theme"])
	assert.NotNil(t, room["axis_payload"])
	assert.NotNil(t, room["wolf_axis_payload"])

	resp, body = getJSON(t, srv.URL+"/api/rooms/ROOM1/hand?player_id=p1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["player_slot"])
	hand, ok := body["hand"].([]any)
	require.True(t, ok)
	assert.Len(t, hand, 5)

	resp, _ = getJSON(t, srv.URL+"/api/rooms/ROOM1/hand?player_id=ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// No new seats once the round is underway.
	resp, _ = postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p2", "player_name": "carol",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCardAndVoteEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")
	postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p1", "player_name": "bob",
	})
	postJSON(t, srv.URL+"/api/rooms/ROOM1/phase", map[string]any{
		"phase": PhasePlacement, "round_seed": 42,
	})

	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1/cards?player_id=p0", map[string]any{
		"card_id":  "ramen",
		"quadrant": 2,
		"offsets":  map[string]float64{"x": 0.25, "y": 0.75},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := getJSON(t, srv.URL+"/api/rooms/ROOM1/cards")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := body["cards"].([]any)
	require.Len(t, cards, 1)
	placed := cards[0].(map[string]any)
	assert.Equal(t, "ramen", placed["card_id"])
	assert.Equal(t, float64(2), placed["quadrant"])
	assert.Equal(t, 0.25, placed["offset_x"])

	resp, _ = postJSON(t, srv.URL+"/api/rooms/ROOM1/vote?player_id=p0", map[string]any{
		"target_slot": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = getJSON(t, srv.URL+"/api/rooms/ROOM1/votes")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	votes := body["votes"].([]any)
	require.Len(t, votes, 1)
	vote := votes[0].(map[string]any)
	assert.Equal(t, float64(0), vote["voter_slot"])
	assert.Equal(t, float64(1), vote["target_slot"])

	resp, _ = postJSON(t, srv.URL+"/api/rooms/ROOM1/vote?player_id=p0", map[string]any{
		"target_slot": 7,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultsAndNextRoundEndpoints(t *testing.T) {
	srv, store := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")
	postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p1", "player_name": "bob",
	})
	postJSON(t, srv.URL+"/api/rooms/ROOM1/phase", map[string]any{
		"phase": PhasePlacement, "round_seed": 42,
	})

	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1/calculate_results", map[string]any{})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	room, err := store.Get("ROOM1")
	require.NoError(t, err)
	room.mu.Lock()
	wolf := room.round.WolfSlot
	room.mu.Unlock()

	hunter := "p0"
	if wolf == 0 {
		hunter = "p1"
	}
	resp, _ = postJSON(t, fmt.Sprintf("%s/api/rooms/ROOM1/vote?player_id=%s", srv.URL, hunter), map[string]any{
		"target_slot": wolf,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	postJSON(t, srv.URL+"/api/rooms/ROOM1/phase", map[string]any{"phase": PhaseResults})

	resp, body := postJSON(t, srv.URL+"/api/rooms/ROOM1/calculate_results", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["wolf_caught"])
	assert.Equal(t, float64(wolf), body["wolf_slot"])
	assert.NotNil(t, body["all_hands"])
	assert.NotNil(t, body["round_deltas"])

	resp, body = postJSON(t, srv.URL+"/api/rooms/ROOM1/next_round", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["round"])
	assert.NotEqual(t, float64(42), body["round_seed"])
}

func TestAuthEnforcementOverHTTP(t *testing.T) {
	cfg := &Config{handSize: 5, chatHistory: 50, enforceAuth: true}
	srv, _ := testServer(t, cfg)
	hostToken := createTestRoom(t, srv, "ROOM1")

	_, joinBody := postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p1", "player_name": "bob",
	})
	guestToken := joinBody["token"].(string)

	phaseReq := map[string]any{"phase": PhasePlacement, "round_seed": 42}

	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1/phase?player_id=p0", phaseReq)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, fmt.Sprintf("%s/api/rooms/ROOM1/phase?player_id=p1&token=%s", srv.URL, guestToken), phaseReq)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = postJSON(t, fmt.Sprintf("%s/api/rooms/ROOM1/phase?player_id=p0&token=%s", srv.URL, hostToken), phaseReq)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)
	token := createTestRoom(t, srv, "ROOM1")

	resp, _ := postJSON(t, fmt.Sprintf("%s/api/auth/verify?player_id=p0&token=%s", srv.URL, token), map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/auth/verify?player_id=p0&token=nope", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/auth/verify?player_id=ghost&token=nope", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaveEndpoint(t *testing.T) {
	srv, store := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")
	postJSON(t, srv.URL+"/api/rooms/join", map[string]any{
		"room_code": "ROOM1", "player_id": "p1", "player_name": "bob",
	})

	resp, _ := postJSON(t, srv.URL+"/api/rooms/ROOM1/leave?player_id=p0", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	room, err := store.Get("ROOM1")
	require.NoError(t, err)
	room.mu.Lock()
	survivor := room.playerByIDLocked("p1")
	room.mu.Unlock()
	require.NotNil(t, survivor)
	assert.True(t, survivor.IsHost)

	resp, _ = postJSON(t, srv.URL+"/api/rooms/ROOM1/leave?player_id=p1", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = getJSON(t, srv.URL+"/api/rooms/ROOM1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDebugRoomsEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)
	createTestRoom(t, srv, "ROOM1")
	createTestRoom(t, srv, "ROOM2")

	resp, body := getJSON(t, srv.URL+"/api/debug/rooms")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total"])
	rooms := body["rooms"].([]any)
	assert.Len(t, rooms, 2)
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
