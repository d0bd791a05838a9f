// Room and Game Handler Tests
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
	"encoding/json"
	"testing"

	"go-dentcp"
)

func TestCreateRoom(t *testing.T) {
	reg := testRegistry()
	cli, p := loggedIn(t, reg, "john")

	cli.handleCreateRoom("john,r1")
	if data := p.expect(t, dentcp.RoomCreated); data != "r1" {
		t.Errorf("Expected ROOM_CREATED r1, got %q", data)
	}
	if cli.Phase() != dentcp.InLobby {
		t.Errorf("Creating a room moved the creator to %s", cli.Phase())
	}

	cli.handleCreateRoom("john,r1")
	if data := p.expect(t, dentcp.RoomFail); data != ErrRoomDup.Error() {
		t.Errorf("Expected a duplicate room failure, got %q", data)
	}

	cli.handleCreateRoom("eve,r2")
	if data := p.expect(t, dentcp.RoomFail); data != "Name mismatch" {
		t.Errorf("Expected a name mismatch, got %q", data)
	}
}

func TestCreateRoomCap(t *testing.T) {
	reg := testRegistry()
	reg.conf.Rooms.Max = 2
	cli, p := loggedIn(t, reg, "john")

	cli.handleCreateRoom("john,r1")
	cli.handleCreateRoom("john,r2")
	p.take()
	cli.handleCreateRoom("john,r3")
	if data := p.expect(t, dentcp.RoomFail); data != ErrRoomMax.Error() {
		t.Errorf("Expected the room cap to hold, got %q", data)
	}
}

func TestJoinStartsGame(t *testing.T) {
	reg := testRegistry()
	john, p1 := loggedIn(t, reg, "john")
	ann, p2 := loggedIn(t, reg, "ann")

	john.handleCreateRoom("john,r1")
	p1.take()

	john.handleJoinRoom("john,r1")
	if data := p1.expect(t, dentcp.RoomJoined); data != "r1,1" {
		t.Errorf("Expected ROOM_JOINED r1,1, got %q", data)
	}
	if john.Phase() != dentcp.InRoomWaiting {
		t.Errorf("Expected IN_ROOM_WAITING, got %s", john.Phase())
	}

	ann.handleJoinRoom("ann,r1")
	msgs := p2.frames(t)
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 frames for the second joiner, got %v", msgs)
	}
	if msgs[0].Op != dentcp.RoomJoined || msgs[0].Data != "r1,2" {
		t.Errorf("Expected ROOM_JOINED r1,2, got %s %q", msgs[0].Op, msgs[0].Data)
	}
	if msgs[1].Op != dentcp.GameStart || msgs[1].Data != "r1,john,ann,john" {
		t.Errorf("Expected GAME_START r1,john,ann,john, got %s %q",
			msgs[1].Op, msgs[1].Data)
	}
	if msgs[2].Op != dentcp.GameState {
		t.Errorf("Expected GAME_STATE, got %s", msgs[2].Op)
	}

	var state struct {
		Board       [8][8]int `json:"board"`
		CurrentTurn string    `json:"current_turn"`
		Player1     string    `json:"player1"`
		Player2     string    `json:"player2"`
	}
	if err := json.Unmarshal([]byte(msgs[2].Data), &state); err != nil {
		t.Fatalf("Unparsable game state: %s", err)
	}
	if state.CurrentTurn != "john" || state.Player1 != "john" || state.Player2 != "ann" {
		t.Errorf("Wrong game state header: %+v", state)
	}
	if state.Board[5][1] != 1 || state.Board[0][0] != 3 {
		t.Error("Wrong initial board in game state")
	}

	// The first joiner sees the same start.
	msgs = p1.frames(t)
	if len(msgs) != 2 || msgs[0].Op != dentcp.GameStart || msgs[1].Op != dentcp.GameState {
		t.Errorf("Expected GAME_START and GAME_STATE for the first joiner, got %v", msgs)
	}
}

func TestJoinFailures(t *testing.T) {
	reg := testRegistry()
	john, p1 := loggedIn(t, reg, "john")
	ann, p2 := loggedIn(t, reg, "ann")
	eve, p3 := loggedIn(t, reg, "eve")

	john.handleCreateRoom("john,r1")
	john.handleJoinRoom("john,r1")
	p1.take()

	john.handleJoinRoom("john,r1")
	if data := p1.expect(t, dentcp.RoomFail); data != "You are already in this room" {
		t.Errorf("Expected a rejoin failure, got %q", data)
	}

	ann.handleJoinRoom("ann,nosuch")
	if data := p2.expect(t, dentcp.RoomFail); data != ErrNoRoom.Error() {
		t.Errorf("Expected a missing room failure, got %q", data)
	}

	ann.handleJoinRoom("ann,r1")
	p2.take()
	eve.handleJoinRoom("eve,r1")
	if data := p3.expect(t, dentcp.RoomFull); data != "r1" {
		t.Errorf("Expected ROOM_FULL r1, got %q", data)
	}
	p1.take()
}

func TestMove(t *testing.T) {
	reg := testRegistry()
	john, ann, p1, p2 := startGame(t, reg, "r1")

	// Not diagonal, and not even empty.
	john.handleMove("r1,john,5,1,5,3")
	if data := p1.expect(t, dentcp.InvalidMove); data != "Invalid move" {
		t.Errorf("Expected INVALID_MOVE, got %q", data)
	}
	if cur := reg.rooms["r1"].Game.Current; cur != "john" {
		t.Errorf("Rejected move flipped the turn to %q", cur)
	}

	ann.handleMove("r1,ann,2,0,3,1")
	if data := p2.expect(t, dentcp.InvalidMove); data != "Not your turn" {
		t.Errorf("Expected a turn rejection, got %q", data)
	}

	// Plant a capture for white.
	reg.rooms["r1"].Game.Board[4][2] = dentcp.BlackMan
	john.handleMove("r1,john,5,1,3,3")

	for _, p := range []*pipe{p1, p2} {
		var state struct {
			Board       [8][8]int `json:"board"`
			CurrentTurn string    `json:"current_turn"`
		}
		if err := json.Unmarshal([]byte(p.expect(t, dentcp.GameState)), &state); err != nil {
			t.Fatalf("Unparsable game state: %s", err)
		}
		if state.Board[4][2] != 0 || state.Board[3][3] != 1 || state.Board[5][1] != 0 {
			t.Error("Capture not reflected in the broadcast state")
		}
		if state.CurrentTurn != "ann" {
			t.Errorf("Expected the turn to pass to ann, got %q", state.CurrentTurn)
		}
	}

	john.handleMove("r1,john,6,0,5,1")
	if data := p1.expect(t, dentcp.InvalidMove); data != "Not your turn" {
		t.Errorf("Expected a turn rejection, got %q", data)
	}
}

func TestMoveWhilePaused(t *testing.T) {
	reg := testRegistry()
	john, _, p1, p2 := startGame(t, reg, "r1")

	reg.pauseRoom("r1", "ann")
	p2.take()
	p1.take()

	john.handleMove("r1,john,5,1,4,2")
	if data := p1.expect(t, dentcp.InvalidMove); data != "Game is paused" {
		t.Errorf("Expected a pause rejection, got %q", data)
	}
}

func TestMultiMove(t *testing.T) {
	reg := testRegistry()
	john, _, p1, p2 := startGame(t, reg, "r1")

	// Reduce the game to a forced double capture that also ends it.
	game := reg.rooms["r1"].Game
	*game.Board = dentcp.Board{}
	game.Board[5][1] = dentcp.WhiteMan
	game.Board[4][2] = dentcp.BlackMan
	game.Board[2][4] = dentcp.BlackMan

	// A plain step may not appear in a chain.
	john.handleMultiMove("r1,john,2,5,1,4,0")
	if data := p1.expect(t, dentcp.InvalidMove); data != "Invalid move in chain" {
		t.Errorf("Expected a chain rejection, got %q", data)
	}
	if cur := reg.rooms["r1"].Game.Current; cur != "john" {
		t.Errorf("Rejected chain flipped the turn to %q", cur)
	}

	john.handleMultiMove("r1,john,3,5,1,3,3,1,5")
	msgs := p1.frames(t)
	if len(msgs) != 3 {
		t.Fatalf("Expected GAME_STATE, GAME_END and ROOM_LEFT, got %v", msgs)
	}
	if msgs[1].Op != dentcp.GameEnd || msgs[1].Data != "john,no_pieces" {
		t.Errorf("Expected GAME_END john,no_pieces, got %s %q",
			msgs[1].Op, msgs[1].Data)
	}
	if msgs[2].Op != dentcp.RoomLeft {
		t.Errorf("Expected ROOM_LEFT, got %s", msgs[2].Op)
	}
	if got := p2.frames(t); len(got) != 3 || got[1].Op != dentcp.GameEnd {
		t.Errorf("Peer missed the game end: %v", got)
	}

	if john.Phase() != dentcp.InLobby || john.Room() != "" {
		t.Error("Winner not returned to the lobby")
	}
	if reg.rooms["r1"].State != RoomFinished {
		t.Errorf("Expected a finished room, got %s", reg.rooms["r1"].State)
	}
}

func TestMultiMoveFormat(t *testing.T) {
	reg := testRegistry()
	john, _, p1, _ := startGame(t, reg, "r1")

	for _, data := range []string{
		"r1,john",
		"r1,john,1,5,1",
		"r1,john,21,5,1",
		"r1,john,3,5,1,3,3",
		"r1,john,2,5,1,x,3",
	} {
		john.handleMultiMove(data)
		if msgs := p1.frames(t); len(msgs) != 1 || msgs[0].Op != dentcp.InvalidMove {
			t.Errorf("Multi-move %q: expected INVALID_MOVE, got %v", data, msgs)
		}
	}
}

func TestLeaveRoom(t *testing.T) {
	reg := testRegistry()
	john, ann, p1, p2 := startGame(t, reg, "r1")

	ann.handleLeaveRoom("r1,ann")
	if data := p2.expect(t, dentcp.RoomLeft); data != "r1,ann" {
		t.Errorf("Expected ROOM_LEFT r1,ann, got %q", data)
	}
	if data := p1.expect(t, dentcp.RoomLeft); data != "r1,ann" {
		t.Errorf("Expected the peer to see the departure, got %q", data)
	}

	if ann.Phase() != dentcp.InLobby || john.Phase() != dentcp.InLobby {
		t.Error("Players not returned to the lobby")
	}
	if reg.rooms["r1"].State != RoomFinished {
		t.Errorf("Expected a finished room, got %s", reg.rooms["r1"].State)
	}
}

func TestListRooms(t *testing.T) {
	reg := testRegistry()
	cli, p := loggedIn(t, reg, "john")

	cli.handleListRooms("")
	if data := p.expect(t, dentcp.RoomsList); data != "[]" {
		t.Errorf("Expected an empty listing, got %q", data)
	}

	cli.handleCreateRoom("john,r1")
	cli.handleCreateRoom("john,r2")
	cli.handleJoinRoom("john,r1")
	p.take()

	cli.handleListRooms("")
	var rooms []RoomInfo
	if err := json.Unmarshal([]byte(p.expect(t, dentcp.RoomsList)), &rooms); err != nil {
		t.Fatalf("Unparsable room listing: %s", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "r1" || rooms[0].Players != 1 {
		t.Errorf("Wrong first entry: %+v", rooms[0])
	}
	if rooms[1].Name != "r2" || rooms[1].Players != 0 {
		t.Errorf("Wrong second entry: %+v", rooms[1])
	}
}
