// Reconnection Tests
//
// Copyright (c) 2026  The go-dentcp authors
//
// This file is part of go-dentcp.
//
// go-dentcp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-dentcp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-dentcp. If not, see
// <http://www.gnu.org/licenses/>

package server

import (
	"testing"
	"time"

	"go-dentcp"
)

// disconnect simulates a transport loss for a session in a game.
func disconnect(cli *Client) {
	cli.closeTransport()
	cli.transportLost()
}

func TestReconnectResumesGame(t *testing.T) {
	reg := testRegistry()
	john, _, _, p2 := startGame(t, reg, "r1")

	// Freeze the game mid-turn.
	reg.rooms["r1"].Game.FlipTurn()
	disconnect(john)
	p2.take()

	fresh, q := connect(reg)
	fresh.handleReconnect("r1,john")

	msgs := q.frames(t)
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 frames for the rebound session, got %v", msgs)
	}
	if msgs[0].Op != dentcp.ReconnectOk || msgs[0].Data != "r1" {
		t.Errorf("Expected RECONNECT_OK r1, got %s %q", msgs[0].Op, msgs[0].Data)
	}
	if msgs[1].Op != dentcp.PlayerReconnected || msgs[1].Data != "r1,john" {
		t.Errorf("Expected PLAYER_RECONNECTED r1,john, got %s %q",
			msgs[1].Op, msgs[1].Data)
	}
	if msgs[2].Op != dentcp.GameResumed || msgs[2].Data != "r1" {
		t.Errorf("Expected GAME_RESUMED r1, got %s %q", msgs[2].Op, msgs[2].Data)
	}
	if msgs[3].Op != dentcp.GameState {
		t.Errorf("Expected GAME_STATE, got %s", msgs[3].Op)
	}

	var saw []dentcp.Op
	for _, msg := range p2.frames(t) {
		saw = append(saw, msg.Op)
	}
	if len(saw) != 3 || saw[0] != dentcp.PlayerReconnecting ||
		saw[1] != dentcp.PlayerReconnected || saw[2] != dentcp.GameResumed {
		t.Errorf("Peer saw %v", saw)
	}

	if reg.findSession("john") != fresh {
		t.Error("Identity not rebound to the new transport")
	}
	if john.State() != dentcp.Removed {
		t.Errorf("Expected the husk to be removed, got %s", john.State())
	}
	if fresh.Name() != "john" || fresh.Phase() != dentcp.InGame || fresh.Room() != "r1" {
		t.Errorf("Identity not adopted: %q %s %q",
			fresh.Name(), fresh.Phase(), fresh.Room())
	}

	room := reg.rooms["r1"]
	if room.State != RoomActive {
		t.Errorf("Expected an active room, got %s", room.State)
	}
	if room.seat("john") == nil || *room.seat("john") != fresh {
		t.Error("Seat not rewired to the new transport")
	}
	// The pre-pause turn survives the pause.
	if room.Game.Current != "ann" {
		t.Errorf("Expected ann to keep the turn, got %q", room.Game.Current)
	}
}

func TestReconnectByPlayerOnly(t *testing.T) {
	reg := testRegistry()
	john, _, _, p2 := startGame(t, reg, "r1")

	disconnect(john)
	p2.take()

	fresh, q := connect(reg)
	fresh.handleReconnect("john")

	msgs := q.frames(t)
	if len(msgs) == 0 || msgs[0].Op != dentcp.ReconnectOk || msgs[0].Data != "r1" {
		t.Fatalf("Expected RECONNECT_OK r1, got %v", msgs)
	}
}

func TestReconnectFailures(t *testing.T) {
	for _, test := range []struct {
		name   string
		data   string
		reason string
	}{
		{"empty", "", "Invalid format"},
		{"three fields", "a,b,c", "Invalid format"},
		{"stranger", "nobody", "Unknown player"},
		{"wrong room", "r2,john", "Not a member"},
		{"connected peer", "r1,ann", "Session is not reconnectable"},
	} {
		t.Run(test.name, func(t *testing.T) {
			reg := testRegistry()
			john, _, _, p2 := startGame(t, reg, "r1")
			disconnect(john)
			p2.take()

			fresh, q := connect(reg)
			fresh.handleReconnect(test.data)
			if data := q.expect(t, dentcp.ReconnectFail); data != test.reason {
				t.Errorf("Expected %q, got %q", test.reason, data)
			}
			if reg.findSession("ann").State() != dentcp.Connected {
				t.Error("Failed attempt altered an unrelated session")
			}
			if msgs := p2.frames(t); len(msgs) != 0 {
				t.Errorf("Failed attempt leaked to the peer: %v", msgs)
			}
		})
	}
}

func TestReconnectWindowCloses(t *testing.T) {
	reg := testRegistry()
	john, _, _, p2 := startGame(t, reg, "r1")
	disconnect(john)
	p2.take()

	john.mu.Lock()
	john.disconnectAt = time.Now().Add(-reg.conf.LongDisconnect() - time.Second)
	john.mu.Unlock()

	fresh, q := connect(reg)
	fresh.handleReconnect("r1,john")
	if data := q.expect(t, dentcp.ReconnectFail); data != errWindowClosed.Error() {
		t.Errorf("Expected %q, got %q", errWindowClosed, data)
	}
	if john.State() != dentcp.Disconnected {
		t.Errorf("Failed attempt altered the session to %s", john.State())
	}
	// The peer must not hear about a claim that never went through.
	if msgs := p2.frames(t); len(msgs) != 0 {
		t.Errorf("Failed attempt leaked to the peer: %v", msgs)
	}
}

func TestReconnectSingleWinner(t *testing.T) {
	reg := testRegistry()
	john, _, _, p2 := startGame(t, reg, "r1")
	disconnect(john)
	p2.take()

	first, q1 := connect(reg)
	first.handleReconnect("r1,john")
	if msgs := q1.frames(t); len(msgs) == 0 || msgs[0].Op != dentcp.ReconnectOk {
		t.Fatalf("Expected the first claim to win, got %v", msgs)
	}
	p2.take()

	second, q2 := connect(reg)
	second.handleReconnect("r1,john")
	if data := q2.expect(t, dentcp.ReconnectFail); data != errNotReconnectable.Error() {
		t.Errorf("Expected %q, got %q", errNotReconnectable, data)
	}
	if reg.findSession("john") != first {
		t.Error("Losing claim displaced the winner")
	}
	if msgs := p2.frames(t); len(msgs) != 0 {
		t.Errorf("Losing claim leaked to the peer: %v", msgs)
	}
}

func TestReconnectRequiresAnonymity(t *testing.T) {
	reg := testRegistry()
	john, _, _, p2 := startGame(t, reg, "r1")
	disconnect(john)
	p2.take()

	eve, q := loggedIn(t, reg, "eve")
	eve.handleReconnect("r1,john")
	if data := q.expect(t, dentcp.ReconnectFail); data != "Already logged in" {
		t.Errorf("Expected %q, got %q", "Already logged in", data)
	}
	if reg.findSession("john") != john {
		t.Error("Logged-in claimant captured the identity")
	}
}
