package main

import "github.com/google/uuid"

// mintToken issues the opaque per-player credential handed out at create
// or join time.
func mintToken() string {
	return uuid.NewString()
}

// Authorize validates the caller's credential and, when required, host
// status. With enforcement off every call passes, matching the
// frictionless local-play default.
func (r *Room) Authorize(playerID, token string, needHost, enforce bool) error {
	if !enforce {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		return errNotFound("player not in room %q", r.Code)
	}
	if token == "" || token != player.Token {
		return errUnauthorized("invalid credential for player %q", playerID)
	}
	if needHost && !player.IsHost {
		return errForbidden("player %q is not the host of room %q", playerID, r.Code)
	}
	return nil
}

// VerifyCredential checks a stored credential against every room the
// identity is seated in. The verify endpoint predates room-scoped
// tokens, so it carries no room code.
func (s *Store) VerifyCredential(playerID, token string) error {
	if playerID == "" {
		return errNotFound("player %q not found", playerID)
	}

	seated := false
	for _, room := range s.snapshot() {
		err := room.VerifyToken(playerID, token)
		if err == nil {
			return nil
		}
		if errKind(err) == KindUnauthorized {
			seated = true
		}
	}
	if seated {
		return errUnauthorized("invalid credential for player %q", playerID)
	}
	return errNotFound("player %q not found", playerID)
}

// VerifyToken backs the auth/verify endpoint used by clients to check a
// stored credential before rejoining.
func (r *Room) VerifyToken(playerID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByIDLocked(playerID)
	if player == nil {
		return errNotFound("player not in room %q", r.Code)
	}
	if token == "" || token != player.Token {
		return errUnauthorized("invalid credential for player %q", playerID)
	}
	return nil
}
