package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Messages sent to clients. Every externally visible mutation maps to
// one of these.
type playerJoinedMessage struct {
	Type       string `json:"type"`
	PlayerSlot int    `json:"player_slot"`
	PlayerName string `json:"player_name"`
}

type playerLeftMessage struct {
	Type       string `json:"type"`
	PlayerSlot int    `json:"player_slot"`
	PlayerName string `json:"player_name"`
}

type playerRemovedMessage struct {
	Type       string `json:"type"`
	PlayerSlot int    `json:"player_slot"`
	PlayerName string `json:"player_name"`
	Reason     string `json:"reason"`
}

type presenceMessage struct {
	Type       string `json:"type"` // "player_online" or "player_offline"
	PlayerSlot int    `json:"player_slot"`
	PlayerName string `json:"player_name"`
}

type hostChangedMessage struct {
	Type        string `json:"type"`
	NewHostSlot int    `json:"new_host_slot"`
	NewHostName string `json:"new_host_name"`
}

type phaseChangedMessage struct {
	Type  string `json:"type"`
	Phase string `json:"phase"`
}

type cardPlacedMessage struct {
	Type       string  `json:"type"`
	PlayerSlot int     `json:"player_slot"`
	CardID     string  `json:"card_id"`
	Quadrant   int     `json:"quadrant"`
	OffsetX    float64 `json:"offset_x"`
	OffsetY    float64 `json:"offset_y"`
}

type voteSubmittedMessage struct {
	Type       string `json:"type"`
	VoterSlot  int    `json:"voter_slot"`
	TargetSlot int    `json:"target_slot"`
}

type themesUpdatedMessage struct {
	Type   string   `json:"type"`
	Themes []string `json:"themes"`
}

type roundStartedMessage struct {
	Type      string `json:"type"`
	Round     int    `json:"round"`
	RoundSeed int64  `json:"round_seed"`
}

type chatMessageOut struct {
	Type       string    `json:"type"`
	PlayerSlot int       `json:"player_slot"`
	PlayerName string    `json:"player_name"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

type pongMessage struct {
	Type string `json:"type"`
}

// Messages coming from clients over the socket.
type wsInbound struct {
	Type string `json:"type"` // "ping", "chat", "load_history"
	Text string `json:"text,omitempty"`
}

// wsClient is one live transport. Outbound delivery goes through a
// buffered channel so a stalled socket never blocks a room mutation.
type wsClient struct {
	conn      *websocket.Conn
	send      chan any
	playerID  string
	closeOnce sync.Once
}

func (c *wsClient) closeWith(reason string) {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = c.conn.Close()
	})
}

func (c *wsClient) writePump() {
	defer c.closeWith("")

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) readPump(store *Store, room *Room) {
	defer func() {
		room.unregisterClient(store, c)
		_ = c.conn.Close()
	}()

	for {
		var msg wsInbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "ping":
			room.sendTo(c, pongMessage{Type: "pong"})
		case "chat":
			room.relayChat(c, msg.Text)
		case "load_history":
			room.replayChat(c)
		default:
			// ignore unknown types
		}
	}
}

// registerClient binds the transport to the player identity. A second
// connection for the same identity supersedes the first: the old
// transport is evicted in favor of the new one.
func (r *Room) registerClient(c *wsClient) {
	r.mu.Lock()
	if c.playerID != "" {
		if prev, ok := r.byPlayerID[c.playerID]; ok && prev != c {
			r.dropLocked(prev, "superseded")
		}
		r.byPlayerID[c.playerID] = c
	}
	r.clients[c] = struct{}{}
	r.touchLocked()

	if player := r.playerByIDLocked(c.playerID); player != nil {
		player.LastSeenAt = time.Now()
		r.broadcastLocked(presenceMessage{
			Type:       "player_online",
			PlayerSlot: player.Slot,
			PlayerName: player.Name,
		})
	}
	r.mu.Unlock()
}

// unregisterClient drops the transport. During the lobby a lost
// transport also removes the player; mid-round the player just goes
// offline so the slot snapshot stays intact. Both paths run under the
// room lock so a racing explicit leave cannot remove the slot twice.
func (r *Room) unregisterClient(store *Store, c *wsClient) {
	r.mu.Lock()

	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	current := c.playerID != "" && r.byPlayerID[c.playerID] == c
	if current {
		delete(r.byPlayerID, c.playerID)
	}

	if !current {
		r.mu.Unlock()
		return
	}

	player := r.playerByIDLocked(c.playerID)
	if player == nil {
		r.mu.Unlock()
		return
	}
	r.touchLocked()

	if r.Phase != PhaseLobby {
		r.broadcastLocked(presenceMessage{
			Type:       "player_offline",
			PlayerSlot: player.Slot,
			PlayerName: player.Name,
		})
		r.mu.Unlock()
		return
	}

	removed, newHost, empty := r.removePlayerLocked(c.playerID)
	r.broadcastLocked(playerRemovedMessage{
		Type:       "player_removed",
		PlayerSlot: removed.Slot,
		PlayerName: removed.Name,
		Reason:     "disconnected",
	})
	if newHost != nil {
		r.broadcastLocked(hostChangedMessage{
			Type:        "host_changed",
			NewHostSlot: newHost.Slot,
			NewHostName: newHost.Name,
		})
	}
	r.mu.Unlock()

	if empty {
		store.Remove(r.Code, r)
	}
	log.Info().Str("room", r.Code).Str("player", removed.Name).Msg("removed player on lobby disconnect")
}

// broadcastLocked fans a message out to every live transport. Delivery
// is best effort per recipient: a client whose buffer is full is
// dropped rather than allowed to stall the others.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		select {
		case client.send <- msg:
		default:
			r.dropLocked(client, "slow consumer")
		}
	}
}

// dropLocked evicts a transport from the fan-out set and closes its
// socket in the background. The identity mapping stays in place until
// the read pump observes the close and unregisters, so an evicted lobby
// client still goes through the normal departure handling instead of
// leaking its seat.
func (r *Room) dropLocked(c *wsClient, reason string) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	close(c.send)
	go c.closeWith(reason)
}

func (r *Room) sendTo(c *wsClient, msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		r.dropLocked(c, "slow consumer")
	}
}

// relayChat appends to the retained log and fans out. Chat from an
// identity with no seat in the room is ignored.
func (r *Room) relayChat(c *wsClient, text string) {
	if text == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(c.playerID)
	if player == nil {
		return
	}

	msg := ChatMessage{
		Slot:   player.Slot,
		Name:   player.Name,
		Text:   text,
		SentAt: time.Now(),
	}
	r.appendChatLocked(msg)
	r.touchLocked()
	r.broadcastLocked(chatMessageOut{
		Type:       "chat",
		PlayerSlot: msg.Slot,
		PlayerName: msg.Name,
		Text:       msg.Text,
		SentAt:     msg.SentAt,
	})
}

// replayChat resends the retained log to one client, preserving chat
// continuity across reconnects.
func (r *Room) replayChat(c *wsClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}
	for _, msg := range r.chat {
		select {
		case c.send <- chatMessageOut{
			Type:       "chat",
			PlayerSlot: msg.Slot,
			PlayerName: msg.Name,
			Text:       msg.Text,
			SentAt:     msg.SentAt,
		}:
		default:
			r.dropLocked(c, "slow consumer")
			return
		}
	}
}

// OnlineIDs reports which identities currently hold a live transport.
// Never stored, always recomputed.
func (r *Room) OnlineIDs() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	online := make(map[string]bool, len(r.byPlayerID))
	for id := range r.byPlayerID {
		online[id] = true
	}
	return online
}

// serveWS upgrades the connection and runs the client pumps for the
// room named in the path.
func serveWS(cfg *Config, store *Store) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		room, err := store.Get(ps.ByName("code"))
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		playerID := req.URL.Query().Get("player_id")

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		// The buffer leaves room for a full history replay on top of
		// ordinary fan-out without tripping the slow-client drop.
		client := &wsClient{
			conn:     conn,
			send:     make(chan any, cfg.chatHistory+32),
			playerID: playerID,
		}

		room.registerClient(client)
		go client.writePump()

		if req.URL.Query().Get("load_history") == "true" {
			room.replayChat(client)
		}

		client.readPump(store, room)
	}
}
