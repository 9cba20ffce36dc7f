package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	PhaseLobby     = "lobby"
	PhasePlacement = "placement"
	PhaseVoting    = "voting"
	PhaseResults   = "results"
)

func validPhase(phase string) bool {
	switch phase {
	case PhaseLobby, PhasePlacement, PhaseVoting, PhaseResults:
		return true
	}
	return false
}

// Player is one identity within a room. The slot is allocated once and
// survives reconnects; the token is the opaque credential minted at join.
type Player struct {
	ID          string
	Slot        int
	Name        string
	IsHost      bool
	Token       string
	ConnectedAt time.Time
	LastSeenAt  time.Time
}

// PlacedCard records where a player judged a card to belong. At most one
// entry per (slot, card) per round; re-placing replaces.
type PlacedCard struct {
	Round    int       `json:"round"`
	Slot     int       `json:"player_slot"`
	CardID   string    `json:"card_id"`
	Quadrant int       `json:"quadrant"`
	OffsetX  float64   `json:"offset_x"`
	OffsetY  float64   `json:"offset_y"`
	PlacedAt time.Time `json:"placed_at"`
}

// Vote is one voter's current choice for the round. Re-voting replaces.
type Vote struct {
	Round       int       `json:"round"`
	VoterSlot   int       `json:"voter_slot"`
	TargetSlot  int       `json:"target_slot"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ChatMessage is one retained chat entry, replayed on reconnect.
type ChatMessage struct {
	Slot   int       `json:"player_slot"`
	Name   string    `json:"player_name"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Room is one game session. All mutation happens under mu, which also
// guards the connection maps so state transitions and transport
// lifecycle are linearized together.
type Room struct {
	mu sync.Mutex

	Code        string
	Phase       string
	ActiveRound int
	Themes      []string

	// round is nil before the first round starts and is always replaced
	// wholesale, so seed, axes, wolf slot, and hands are never partially
	// set.
	round      *RoundContent
	roundSlots []int

	Scores map[int]int

	Players []*Player
	Cards   []PlacedCard
	Votes   []Vote

	nextSlot int

	resultsDone bool
	results     *RoundResults

	chat        []ChatMessage
	chatLimit   int
	clients     map[*wsClient]struct{}
	byPlayerID  map[string]*wsClient

	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt time.Time
}

func newRoom(code string, chatLimit int) *Room {
	now := time.Now()
	return &Room{
		Code:           code,
		Phase:          PhaseLobby,
		Scores:         make(map[int]int),
		chatLimit:      chatLimit,
		clients:        make(map[*wsClient]struct{}),
		byPlayerID:     make(map[string]*wsClient),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}
}

func (r *Room) touchLocked() {
	now := time.Now()
	r.UpdatedAt = now
	r.LastActivityAt = now
}

func (r *Room) playerByIDLocked(playerID string) *Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) playerBySlotLocked(slot int) *Player {
	for _, p := range r.Players {
		if p.Slot == slot {
			return p
		}
	}
	return nil
}

// addPlayerLocked allocates the next slot. Slots count up monotonically
// and are never handed to a second identity, even when the highest slot
// has since left.
func (r *Room) addPlayerLocked(playerID, name string, host bool) *Player {
	now := time.Now()
	p := &Player{
		ID:          playerID,
		Slot:        r.nextSlot,
		Name:        name,
		IsHost:      host,
		Token:       mintToken(),
		ConnectedAt: now,
		LastSeenAt:  now,
	}
	r.nextSlot++
	r.Players = append(r.Players, p)
	return p
}

// removePlayerLocked removes the identity and, when it held host status,
// promotes the lowest remaining slot. Reports whether the room is now
// empty and the promoted player, if any.
func (r *Room) removePlayerLocked(playerID string) (removed *Player, newHost *Player, empty bool) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, len(r.Players) == 0
	}

	removed = r.Players[idx]
	r.Players = slices.Delete(r.Players, idx, idx+1)

	if len(r.Players) == 0 {
		return removed, nil, true
	}

	if removed.IsHost {
		lowest := r.Players[0]
		for _, p := range r.Players[1:] {
			if p.Slot < lowest.Slot {
				lowest = p
			}
		}
		lowest.IsHost = true
		newHost = lowest
	}
	return removed, newHost, false
}

func (r *Room) participatingSlotsLocked() []int {
	slots := make([]int, 0, len(r.Players))
	for _, p := range r.Players {
		slots = append(slots, p.Slot)
	}
	slices.Sort(slots)
	return slots
}

func (r *Room) appendChatLocked(msg ChatMessage) {
	r.chat = append(r.chat, msg)
	if r.chatLimit > 0 && len(r.chat) > r.chatLimit {
		r.chat = r.chat[len(r.chat)-r.chatLimit:]
	}
}

// Store owns the room map. Individual rooms serialize their own
// mutations; the store's lock only guards map membership, so slow work
// inside one room never blocks another.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	chatLimit int
}

func NewStore(chatLimit int) *Store {
	return &Store{
		rooms:     make(map[string]*Room),
		chatLimit: chatLimit,
	}
}

// Create makes the room and seats the creator as host in slot 0.
func (s *Store) Create(code, playerID, playerName string) (*Room, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[code]; exists {
		return nil, nil, errConflict("room %q already exists", code)
	}

	room := newRoom(code, s.chatLimit)
	host := room.addPlayerLocked(playerID, playerName, true)
	s.rooms[code] = room

	log.Info().Str("room", code).Str("player", playerName).Msg("room created")
	return room, host, nil
}

func (s *Store) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, errNotFound("room %q not found", code)
	}
	return room, nil
}

// Remove drops the room if it is still the registered instance. Racing
// deletions are a no-op.
func (s *Store) Remove(code string, room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.rooms[code]; ok && current == room {
		delete(s.rooms, code)
		log.Info().Str("room", code).Msg("room destroyed")
	}
}

func (s *Store) snapshot() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// ReapLoop scans for rooms idle past retention and destroys them,
// closing any transports still registered. Each candidate is re-checked
// under its own lock before deletion.
func (s *Store) ReapLoop(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapOnce(retention)
		}
	}
}

func (s *Store) reapOnce(retention time.Duration) {
	cutoff := time.Now().Add(-retention)

	for _, room := range s.snapshot() {
		room.mu.Lock()
		expired := room.LastActivityAt.Before(cutoff)
		if expired {
			for c := range room.clients {
				room.dropLocked(c, "room expired")
			}
			room.byPlayerID = make(map[string]*wsClient)
		}
		room.mu.Unlock()

		if !expired {
			continue
		}
		s.Remove(room.Code, room)
		log.Info().Str("room", room.Code).Msg("reaped idle room")
	}
}

// newRoundSeed draws a fresh random seed for a round from crypto/rand.
func newRoundSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fall back to the clock; determinism only requires that the
		// chosen seed is shared, not how it was chosen.
		return time.Now().UnixNano()
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]) >> 1)
	return seed
}
