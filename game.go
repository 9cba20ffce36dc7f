package main

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// PhaseChangeRequest carries an update_phase call. The payload fields are
// optional overrides for clients that generate content themselves; when
// absent the server derives everything from the seed.
type PhaseChangeRequest struct {
	Phase           string       `json:"phase"`
	AxisPayload     *AxisPayload `json:"axis_payload,omitempty"`
	WolfAxisPayload *AxisPayload `json:"wolf_axis_payload,omitempty"`
	RoundSeed       *int64       `json:"round_seed,omitempty"`
	Themes          []string     `json:"themes,omitempty"`
}

// Join admits an identity into the room, or hands back the existing slot
// for a known identity. New entrants are only admitted while the room is
// still in the lobby.
func (s *Store) Join(code, playerID, playerName string) (*Room, *Player, error) {
	room, err := s.Get(code)
	if err != nil {
		return nil, nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if existing := room.playerByIDLocked(playerID); existing != nil {
		if existing.Token == "" {
			existing.Token = mintToken()
		}
		existing.LastSeenAt = time.Now()
		room.touchLocked()
		return room, existing, nil
	}

	if room.Phase != PhaseLobby {
		return nil, nil, errConflict("room %q is already playing, no new players may join", code)
	}

	player := room.addPlayerLocked(playerID, playerName, false)
	room.touchLocked()
	room.broadcastLocked(playerJoinedMessage{
		Type:       "player_joined",
		PlayerSlot: player.Slot,
		PlayerName: player.Name,
	})

	log.Info().Str("room", code).Str("player", playerName).Int("slot", player.Slot).Msg("player joined")
	return room, player, nil
}

// Leave removes the identity immediately, transferring host status if
// needed and destroying the room when the last player is gone.
func (r *Room) Leave(store *Store, playerID string) error {
	r.mu.Lock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		r.mu.Unlock()
		return errNotFound("player not in room %q", r.Code)
	}

	removed, newHost, empty := r.removePlayerLocked(playerID)
	r.touchLocked()

	r.broadcastLocked(playerLeftMessage{
		Type:       "player_left",
		PlayerSlot: removed.Slot,
		PlayerName: removed.Name,
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
	log.Info().Str("room", r.Code).Str("player", removed.Name).Msg("player left")
	return nil
}

// UpdatePhase drives the state machine. Entering placement from the
// lobby starts a round; entering results computes the outcome once;
// returning to lobby resets all per-round state while keeping scores.
func (r *Room) UpdatePhase(req PhaseChangeRequest, handSize int) error {
	if !validPhase(req.Phase) {
		return errConflict("unknown phase %q", req.Phase)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(req.Themes) > 0 {
		if err := r.setThemesLocked(req.Themes); err != nil {
			return err
		}
	}

	switch req.Phase {
	case PhasePlacement:
		if r.round == nil {
			if err := r.startRoundLocked(req, handSize); err != nil {
				return err
			}
		}
	case PhaseResults:
		if _, err := r.computeResultsLocked(); err != nil {
			return err
		}
	case PhaseLobby:
		r.resetToLobbyLocked()
	}

	r.Phase = req.Phase
	r.touchLocked()
	r.broadcastLocked(phaseChangedMessage{
		Type:  "phase_changed",
		Phase: req.Phase,
	})

	log.Debug().Str("room", r.Code).Str("phase", req.Phase).Msg("phase changed")
	return nil
}

// startRoundLocked generates or accepts the round's content and freezes
// the participating slot snapshot. Stale placements and votes from any
// previous state are discarded.
func (r *Room) startRoundLocked(req PhaseChangeRequest, handSize int) error {
	seed := newRoundSeed()
	if req.RoundSeed != nil {
		seed = *req.RoundSeed
	}

	slots := r.participatingSlotsLocked()
	content, err := GenerateRoundContent(seed, r.Themes, slots, handSize)
	if err != nil {
		return err
	}
	if req.AxisPayload != nil {
		content.Axis = *req.AxisPayload
	}
	if req.WolfAxisPayload != nil {
		content.WolfAxis = *req.WolfAxisPayload
	}

	r.round = content
	r.roundSlots = slots
	r.Cards = nil
	r.Votes = nil
	r.resultsDone = false
	r.results = nil
	return nil
}

// NextRound advances to the following round: fresh seed, regenerated
// content, new slot snapshot, cleared placements and votes.
func (r *Room) NextRound(handSize int) (round int, seed int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round == nil {
		return 0, 0, errPrecondition("room %q has no active round", r.Code)
	}

	r.ActiveRound++
	req := PhaseChangeRequest{Phase: PhasePlacement}
	if err := r.startRoundLocked(req, handSize); err != nil {
		r.ActiveRound--
		return 0, 0, err
	}
	r.Phase = PhasePlacement
	r.touchLocked()

	r.broadcastLocked(roundStartedMessage{
		Type:      "round_started",
		Round:     r.ActiveRound,
		RoundSeed: r.round.Seed,
	})

	log.Info().Str("room", r.Code).Int("round", r.ActiveRound).Msg("round started")
	return r.ActiveRound, r.round.Seed, nil
}

func (r *Room) resetToLobbyLocked() {
	r.round = nil
	r.roundSlots = nil
	r.Cards = nil
	r.Votes = nil
	r.resultsDone = false
	r.results = nil
}

func (r *Room) setThemesLocked(themes []string) error {
	for _, t := range themes {
		if !validTheme(t) {
			return errConflict("unknown theme %q", t)
		}
	}
	r.Themes = slices.Clone(themes)
	return nil
}

// UpdateThemes replaces the room's theme list; the change takes effect
// at the next content generation.
func (r *Room) UpdateThemes(themes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setThemesLocked(themes); err != nil {
		return err
	}
	r.touchLocked()
	r.broadcastLocked(themesUpdatedMessage{
		Type:   "themes_updated",
		Themes: slices.Clone(themes),
	})
	return nil
}

// PlaceCard records where a player put a card. Placing the same card
// again replaces the earlier entry.
func (r *Room) PlaceCard(playerID, cardID string, quadrant int, offsetX, offsetY float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		return errNotFound("player not in room %q", r.Code)
	}
	if r.round == nil {
		return errPrecondition("room %q has no active round", r.Code)
	}

	placed := PlacedCard{
		Round:    r.ActiveRound,
		Slot:     player.Slot,
		CardID:   cardID,
		Quadrant: quadrant,
		OffsetX:  offsetX,
		OffsetY:  offsetY,
		PlacedAt: time.Now(),
	}

	replaced := false
	for i := range r.Cards {
		if r.Cards[i].Slot == player.Slot && r.Cards[i].CardID == cardID {
			r.Cards[i] = placed
			replaced = true
			break
		}
	}
	if !replaced {
		r.Cards = append(r.Cards, placed)
	}

	r.touchLocked()
	r.broadcastLocked(cardPlacedMessage{
		Type:       "card_placed",
		PlayerSlot: player.Slot,
		CardID:     cardID,
		Quadrant:   quadrant,
		OffsetX:    offsetX,
		OffsetY:    offsetY,
	})
	return nil
}

// CastVote records the voter's current target, replacing any earlier
// vote this round.
func (r *Room) CastVote(playerID string, targetSlot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		return errNotFound("player not in room %q", r.Code)
	}
	if r.round == nil {
		return errPrecondition("room %q has no active round", r.Code)
	}
	if !slices.Contains(r.roundSlots, targetSlot) {
		return errNotFound("slot %d is not participating this round", targetSlot)
	}

	vote := Vote{
		Round:       r.ActiveRound,
		VoterSlot:   player.Slot,
		TargetSlot:  targetSlot,
		SubmittedAt: time.Now(),
	}

	replaced := false
	for i := range r.Votes {
		if r.Votes[i].VoterSlot == player.Slot {
			r.Votes[i] = vote
			replaced = true
			break
		}
	}
	if !replaced {
		r.Votes = append(r.Votes, vote)
	}

	r.touchLocked()
	r.broadcastLocked(voteSubmittedMessage{
		Type:       "vote_submitted",
		VoterSlot:  player.Slot,
		TargetSlot: targetSlot,
	})
	return nil
}

// computeResultsLocked runs the scoring engine exactly once per round.
// Repeat calls return the cached outcome untouched, so a racing vote
// mutation can never change an already-published result.
func (r *Room) computeResultsLocked() (*RoundResults, error) {
	if r.resultsDone {
		return r.results, nil
	}
	if r.round == nil {
		return nil, errPrecondition("room %q has no active round", r.Code)
	}

	topVoted, caught, deltas := ComputeOutcome(r.round.WolfSlot, r.Votes, r.roundSlots)
	for slot, delta := range deltas {
		r.Scores[slot] += delta
	}

	scores := make(map[int]int, len(r.Scores))
	for slot, total := range r.Scores {
		scores[slot] = total
	}
	hands := make(map[int][]string, len(r.round.Hands))
	for slot, hand := range r.round.Hands {
		hands[slot] = slices.Clone(hand)
	}

	r.results = &RoundResults{
		Round:       r.ActiveRound,
		WolfSlot:    r.round.WolfSlot,
		TopVoted:    topVoted,
		WolfCaught:  caught,
		VoteCounts:  VoteCounts(r.Votes),
		RoundDeltas: deltas,
		Scores:      scores,
		AllHands:    hands,
		NormalAxis:  r.round.Axis,
		WolfAxis:    r.round.WolfAxis,
	}
	r.resultsDone = true
	return r.results, nil
}

// Results returns the cached outcome for the current round.
func (r *Room) Results() (*RoundResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseResults {
		return nil, errPrecondition("room %q has not entered the results phase", r.Code)
	}
	return r.computeResultsLocked()
}

// HandFor returns the dealt hand for the identity's snapshot slot.
func (r *Room) HandFor(playerID string) (slot int, hand []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		return 0, nil, errNotFound("player not in room %q", r.Code)
	}
	if r.round == nil {
		return 0, nil, errPrecondition("room %q has no round seed yet", r.Code)
	}
	hand, ok := r.round.Hands[player.Slot]
	if !ok {
		return 0, nil, errPrecondition("slot %d joined after the round started", player.Slot)
	}
	return player.Slot, slices.Clone(hand), nil
}

// Placements returns a copy of the current round's card placements.
func (r *Room) Placements() []PlacedCard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.Cards)
}

// CurrentVotes returns a copy of the current round's votes.
func (r *Room) CurrentVotes() []Vote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.Votes)
}
