package main

import "testing"

func TestMintTokenUnique(t *testing.T) {
	if mintToken() == mintToken() {
		t.Fatal("two minted tokens collided")
	}
}

func TestAuthorize(t *testing.T) {
	store := NewStore(50)
	room, host, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, guest, err := store.Join("ROOM1", "p1", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		playerID string
		token    string
		needHost bool
		enforce  bool
		kind     ErrorKind
	}{
		{name: "enforcement off passes anything", playerID: "ghost", token: "", needHost: true, enforce: false, kind: 0},
		{name: "valid credential", playerID: "p0", token: host.Token, enforce: true, kind: 0},
		{name: "valid host credential", playerID: "p0", token: host.Token, needHost: true, enforce: true, kind: 0},
		{name: "unknown player", playerID: "ghost", token: "anything", enforce: true, kind: KindNotFound},
		{name: "empty token", playerID: "p0", token: "", enforce: true, kind: KindUnauthorized},
		{name: "wrong token", playerID: "p0", token: "nope", enforce: true, kind: KindUnauthorized},
		{name: "guest cannot act as host", playerID: "p1", token: guest.Token, needHost: true, enforce: true, kind: KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := room.Authorize(tt.playerID, tt.token, tt.needHost, tt.enforce)
			if got := errKind(err); got != tt.kind {
				t.Errorf("error kind = %d (%v), want %d", got, err, tt.kind)
			}
		})
	}
}

func TestVerifyCredential(t *testing.T) {
	store := NewStore(50)
	_, host, err := store.Create("ROOM1", "p0", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Create("ROOM2", "p9", "zoe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.VerifyCredential("p0", host.Token); err != nil {
		t.Errorf("valid credential rejected: %v", err)
	}
	if err := store.VerifyCredential("p0", "nope"); errKind(err) != KindUnauthorized {
		t.Errorf("bad token error = %v, want unauthorized", err)
	}
	if err := store.VerifyCredential("stranger", "nope"); errKind(err) != KindNotFound {
		t.Errorf("unknown identity error = %v, want not found", err)
	}
	if err := store.VerifyCredential("", ""); errKind(err) != KindNotFound {
		t.Errorf("empty identity error = %v, want not found", err)
	}
}
