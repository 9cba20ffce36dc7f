package main

import (
	"testing"
	"time"
)

func TestStoreCreate(t *testing.T) {
	store := NewStore(50)

	room, host, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.Slot != 0 || !host.IsHost {
		t.Errorf("creator got slot %d host=%v, want slot 0 host=true", host.Slot, host.IsHost)
	}
	if host.Token == "" {
		t.Error("creator was not issued a token")
	}
	if room.Phase != PhaseLobby {
		t.Errorf("new room phase = %q, want %q", room.Phase, PhaseLobby)
	}

	if _, _, err := store.Create("ROOM1", "p9", "mallory"); errKind(err) != KindConflict {
		t.Errorf("duplicate create error = %v, want conflict", err)
	}
}

func TestStoreJoinAllocatesSlots(t *testing.T) {
	store := NewStore(50)
	if _, _, err := store.Create("ROOM1", "p0", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, p1, err := store.Join("ROOM1", "p1", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, p2, err := store.Join("ROOM1", "p2", "carol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p1.Slot != 1 || p2.Slot != 2 {
		t.Errorf("slots = %d, %d, want 1, 2", p1.Slot, p2.Slot)
	}
	if p1.IsHost || p2.IsHost {
		t.Error("joiners must not be hosts")
	}
}

func TestStoreJoinRejoinKeepsSlot(t *testing.T) {
	store := NewStore(50)
	if _, _, err := store.Create("ROOM1", "p0", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, first, err := store.Join("ROOM1", "p1", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, again, err := store.Join("ROOM1", "p1", "bob")
	if err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
	if again.Slot != first.Slot {
		t.Errorf("rejoin slot = %d, want %d", again.Slot, first.Slot)
	}
	if again.Token != first.Token {
		t.Errorf("rejoin minted a new token")
	}
}

func TestStoreJoinAfterStartConflicts(t *testing.T) {
	store := NewStore(50)
	room, _, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Join("ROOM1", "p1", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seed := int64(42)
	if err := room.UpdatePhase(PhaseChangeRequest{Phase: PhasePlacement, RoundSeed: &seed}, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := store.Join("ROOM1", "p2", "carol"); errKind(err) != KindConflict {
		t.Errorf("mid-game join error = %v, want conflict", err)
	}
	if len(room.Players) != 2 {
		t.Errorf("rejected join still seated a player: %d players", len(room.Players))
	}

	// The players already seated can still rejoin.
	if _, _, err := store.Join("ROOM1", "p1", "bob"); err != nil {
		t.Errorf("seated player rejoin failed: %v", err)
	}
}

func TestSlotsNeverReused(t *testing.T) {
	store := NewStore(50)
	room, _, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Join("ROOM1", "p1", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := room.Leave(store, "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, p2, err := store.Join("ROOM1", "p2", "carol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2.Slot != 2 {
		t.Errorf("slot after a departure = %d, want 2", p2.Slot)
	}
}

func TestLeaveTransfersHost(t *testing.T) {
	store := NewStore(50)
	room, _, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Join("ROOM1", "p1", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Join("ROOM1", "p2", "carol"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := room.Leave(store, "p0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	room.mu.Lock()
	newHost := room.playerBySlotLocked(1)
	room.mu.Unlock()
	if newHost == nil || !newHost.IsHost {
		t.Fatal("lowest remaining slot did not inherit host status")
	}

	if err := room.Leave(store, "p0"); errKind(err) != KindNotFound {
		t.Errorf("second leave error = %v, want not found", err)
	}
}

func TestLeaveLastPlayerDestroysRoom(t *testing.T) {
	store := NewStore(50)
	room, _, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := room.Leave(store, "p0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get("ROOM1"); errKind(err) != KindNotFound {
		t.Errorf("room lookup after last leave = %v, want not found", err)
	}
}

func TestReapOnce(t *testing.T) {
	store := NewStore(50)
	stale, _, err := store.Create("OLD", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Create("FRESH", "p1", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale.mu.Lock()
	stale.LastActivityAt = time.Now().Add(-48 * time.Hour)
	stale.mu.Unlock()

	store.reapOnce(24 * time.Hour)

	if _, err := store.Get("OLD"); errKind(err) != KindNotFound {
		t.Errorf("stale room survived the reaper: %v", err)
	}
	if _, err := store.Get("FRESH"); err != nil {
		t.Errorf("fresh room was reaped: %v", err)
	}
}

func TestChatLogTrimsToLimit(t *testing.T) {
	room := newRoom("ROOM1", 3)

	room.mu.Lock()
	for i := range 5 {
		room.appendChatLocked(ChatMessage{Slot: 0, Name: "alice", Text: string(rune('a' + i))})
	}
	kept := len(room.chat)
	oldest := room.chat[0].Text
	room.mu.Unlock()

	if kept != 3 {
		t.Errorf("retained %d messages, want 3", kept)
	}
	if oldest != "c" {
		t.Errorf("oldest retained message = %q, want %q", oldest, "c")
	}
}
