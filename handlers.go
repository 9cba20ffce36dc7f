package main

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

// Wire views. Field names match what the web client already consumes;
// credentials never appear in a view.
type roomView struct {
	RoomCode        string       `json:"room_code"`
	Phase           string       `json:"phase"`
	ActiveRound     int          `json:"active_round"`
	Themes          []string     `json:"themes"`
	SelectedTheme   string       `json:"selected_theme,omitempty"`
	RoundSeed       *int64       `json:"round_seed"`
	AxisPayload     *AxisPayload `json:"axis_payload"`
	WolfAxisPayload *AxisPayload `json:"wolf_axis_payload"`
	Scores          map[int]int  `json:"scores"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type playerView struct {
	PlayerID    string    `json:"player_id"`
	PlayerSlot  int       `json:"player_slot"`
	PlayerName  string    `json:"player_name"`
	IsHost      bool      `json:"is_host"`
	IsOnline    bool      `json:"is_online"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Snapshot renders the room and its players for the state query. The
// wolf slot stays out of the view; it is only revealed through results.
func (r *Room) Snapshot() (roomView, []playerView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scores := make(map[int]int, len(r.Scores))
	for slot, total := range r.Scores {
		scores[slot] = total
	}
	view := roomView{
		RoomCode:    r.Code,
		Phase:       r.Phase,
		ActiveRound: r.ActiveRound,
		Themes:      slices.Clone(r.Themes),
		Scores:      scores,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.round != nil {
		seed := r.round.Seed
		view.RoundSeed = &seed
		view.SelectedTheme = r.round.Theme
		axis := r.round.Axis
		wolfAxis := r.round.WolfAxis
		view.AxisPayload = &axis
		view.WolfAxisPayload = &wolfAxis
	}

	players := make([]playerView, 0, len(r.Players))
	for _, p := range r.Players {
		_, online := r.byPlayerID[p.ID]
		players = append(players, playerView{
			PlayerID:    p.ID,
			PlayerSlot:  p.Slot,
			PlayerName:  p.Name,
			IsHost:      p.IsHost,
			IsOnline:    online,
			ConnectedAt: p.ConnectedAt,
			LastSeenAt:  p.LastSeenAt,
		})
	}
	return view, players
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGameError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]any{
		"success": false,
		"detail":  err.Error(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"detail":  "malformed request body",
		})
		return false
	}
	return true
}

// credential pulls the caller's identity and token from the request.
// The token travels either as a query parameter or the X-Player-Token
// header.
func credential(r *http.Request) (playerID, token string) {
	playerID = r.URL.Query().Get("player_id")
	token = r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("X-Player-Token")
	}
	return playerID, token
}

// roomActionHandler multiplexes POST /api/rooms/:code. httprouter does
// not allow static children next to a wildcard in one method tree, so
// create and join travel through the :code segment as actions; both
// carry the actual room code in the request body.
func roomActionHandler(cfg *Config, store *Store) httprouter.Handle {
	create := createRoomHandler(cfg, store)
	join := joinRoomHandler(cfg, store)

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("code") {
		case "create":
			create(w, r, ps)
		case "join":
			join(w, r, ps)
		default:
			writeGameError(w, errNotFound("no such room action %q", ps.ByName("code")))
		}
	}
}

func createRoomHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			RoomCode   string `json:"room_code"`
			PlayerID   string `json:"player_id"`
			PlayerName string `json:"player_name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.RoomCode == "" || req.PlayerID == "" || req.PlayerName == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"detail":  "room_code, player_id and player_name are required",
			})
			return
		}

		_, host, err := store.Create(req.RoomCode, req.PlayerID, req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"room_code":   req.RoomCode,
			"player_slot": host.Slot,
			"token":       host.Token,
		})
	}
}

func joinRoomHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			RoomCode   string `json:"room_code"`
			PlayerID   string `json:"player_id"`
			PlayerName string `json:"player_name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		_, player, err := store.Join(req.RoomCode, req.PlayerID, req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"player_slot": player.Slot,
			"token":       player.Token,
		})
	}
}

func getRoomHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			writeGameError(w, err)
			return
		}

		view, players := room.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"room":    view,
			"players": players,
		})
	}
}

// withRoomAuth resolves the room and runs the access-control checks
// shared by every state-mutating handler.
func withRoomAuth(cfg *Config, store *Store, code string, r *http.Request, needHost bool) (*Room, string, error) {
	room, err := store.Get(code)
	if err != nil {
		return nil, "", err
	}
	playerID, token := credential(r)
	if err := room.Authorize(playerID, token, needHost, cfg.enforceAuth); err != nil {
		return nil, "", err
	}
	return room, playerID, nil
}

func updatePhaseHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, _, err := withRoomAuth(cfg, store, ps.ByName("code"), r, true)
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req PhaseChangeRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := room.UpdatePhase(req, cfg.handSize); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func updateThemesHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, _, err := withRoomAuth(cfg, store, ps.ByName("code"), r, true)
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req struct {
			Themes []string `json:"themes"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := room.UpdateThemes(req.Themes); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func leaveRoomHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, playerID, err := withRoomAuth(cfg, store, ps.ByName("code"), r, false)
		if err != nil {
			writeGameError(w, err)
			return
		}

		if err := room.Leave(store, playerID); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func placeCardHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, playerID, err := withRoomAuth(cfg, store, ps.ByName("code"), r, false)
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req struct {
			CardID   string `json:"card_id"`
			Quadrant int    `json:"quadrant"`
			Offsets  struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"offsets"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := room.PlaceCard(playerID, req.CardID, req.Quadrant, req.Offsets.X, req.Offsets.Y); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func getCardsHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": room.Placements()})
	}
}

func submitVoteHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, playerID, err := withRoomAuth(cfg, store, ps.ByName("code"), r, false)
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req struct {
			TargetSlot int `json:"target_slot"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := room.CastVote(playerID, req.TargetSlot); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func getVotesHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"votes": room.CurrentVotes()})
	}
}

func getHandHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			writeGameError(w, err)
			return
		}

		playerID, _ := credential(r)
		slot, hand, err := room.HandFor(playerID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"hand":        hand,
			"player_slot": slot,
		})
	}
}

func calculateResultsHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			writeGameError(w, err)
			return
		}

		results, err := room.Results()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func nextRoundHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, _, err := withRoomAuth(cfg, store, ps.ByName("code"), r, true)
		if err != nil {
			writeGameError(w, err)
			return
		}

		round, seed, err := room.NextRound(cfg.handSize)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"round":      round,
			"round_seed": seed,
		})
	}
}

func verifyTokenHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID, token := credential(r)
		if err := store.VerifyCredential(playerID, token); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func debugRoomsHandler(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		type summary struct {
			roomView
			PlayersCount int          `json:"players_count"`
			Players      []playerView `json:"players"`
			CardsCount   int          `json:"cards_count"`
			VotesCount   int          `json:"votes_count"`
		}

		rooms := store.snapshot()
		out := make([]summary, 0, len(rooms))
		for _, room := range rooms {
			view, players := room.Snapshot()
			out = append(out, summary{
				roomView:     view,
				PlayersCount: len(players),
				Players:      players,
				CardsCount:   len(room.Placements()),
				VotesCount:   len(room.CurrentVotes()),
			})
		}

		log.Debug().Int("rooms", len(out)).Msg("debug room listing served")
		writeJSON(w, http.StatusOK, map[string]any{
			"rooms": out,
			"total": len(out),
		})
	}
}
