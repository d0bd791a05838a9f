// Operation Handlers
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
	"fmt"
	"strconv"
	"strings"

	"go-dentcp"
)

// The longest name the server accepts, for players and rooms alike.
const maxName = 32

// pair splits a two-field payload.
func pair(data string) (a, b string, ok bool) {
	i := strings.IndexByte(data, ',')
	if i <= 0 || i == len(data)-1 {
		return "", "", false
	}
	return data[:i], data[i+1:], true
}

func (cli *Client) handleLogin(data string) {
	name := strings.TrimSpace(data)
	switch {
	case name == "":
		cli.send(dentcp.LoginFail, "Name cannot be empty")
		return
	case len(name) > maxName:
		cli.send(dentcp.LoginFail, "Name too long")
		return
	case strings.ContainsAny(name, ",|"):
		cli.send(dentcp.LoginFail, "Name contains reserved characters")
		return
	}

	if err := cli.reg.login(cli, name); err != nil {
		cli.send(dentcp.LoginFail, err.Error())
		return
	}
	cli.send(dentcp.LoginOk, name)
	dentcp.Debug.Printf("Client %s logged in", cli)
}

// handleCreateRoom opens an empty room.  The creator stays in the
// lobby; occupying the room takes an explicit JOIN_ROOM.
func (cli *Client) handleCreateRoom(data string) {
	player, roomName, ok := pair(data)
	if !ok || len(roomName) > maxName {
		cli.send(dentcp.RoomFail, "Invalid format")
		return
	}
	if player != cli.Name() {
		cli.send(dentcp.RoomFail, "Name mismatch")
		return
	}

	reg := cli.reg
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	if _, ok := reg.rooms[roomName]; ok {
		cli.send(dentcp.RoomFail, ErrRoomDup.Error())
		return
	}
	if len(reg.rooms) >= reg.conf.Rooms.Max {
		cli.send(dentcp.RoomFail, ErrRoomMax.Error())
		return
	}

	reg.nextID++
	reg.rooms[roomName] = &Room{
		ID:    reg.nextID,
		Name:  roomName,
		Owner: player,
		State: RoomWaiting,
	}
	cli.send(dentcp.RoomCreated, roomName)
	dentcp.Debug.Printf("Room %q created by %q", roomName, player)
}

// handleJoinRoom seats the client.  The room table and the session
// are checked in separate critical sections, so the room is
// re-validated after the session check.
func (cli *Client) handleJoinRoom(data string) {
	player, roomName, ok := pair(data)
	if !ok {
		cli.send(dentcp.RoomFail, "Invalid format")
		return
	}
	if player != cli.Name() {
		cli.send(dentcp.RoomFail, "Name mismatch")
		return
	}

	reg := cli.reg
	reg.rmu.Lock()
	room, ok := reg.rooms[roomName]
	switch {
	case !ok || room.State == RoomFinished:
		reg.rmu.Unlock()
		cli.send(dentcp.RoomFail, ErrNoRoom.Error())
		return
	case room.has(player):
		reg.rmu.Unlock()
		cli.send(dentcp.RoomFail, "You are already in this room")
		return
	case room.Occupants() >= 2:
		reg.rmu.Unlock()
		cli.send(dentcp.RoomFull, roomName)
		return
	}
	reg.rmu.Unlock()

	// Own-session check without a table lock held.
	if cli.Room() != "" {
		cli.send(dentcp.RoomFail, ErrBusy.Error())
		return
	}

	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok = reg.rooms[roomName]
	if !ok || room.State == RoomFinished {
		cli.send(dentcp.RoomFail, ErrNoRoom.Error())
		return
	}
	if room.has(player) {
		cli.send(dentcp.RoomFail, "You are already in this room")
		return
	}
	if room.Occupants() >= 2 {
		cli.send(dentcp.RoomFull, roomName)
		return
	}

	if room.P1 == nil {
		room.P1 = cli
	} else {
		room.P2 = cli
	}
	cli.enterRoom(roomName)
	cli.send(dentcp.RoomJoined,
		fmt.Sprintf("%s,%d", roomName, room.Occupants()))
	dentcp.Debug.Printf("Player %q joined room %q (%d/2)",
		player, roomName, room.Occupants())

	if room.Occupants() < 2 {
		return
	}

	// The second join starts the game.  The first joiner plays
	// white and moves first.
	p1, p2 := room.P1.Name(), room.P2.Name()
	room.Game = dentcp.MakeGame(p1, p2)
	room.State = RoomActive

	start := fmt.Sprintf("%s,%s,%s,%s", roomName, p1, p2, p1)
	state := stateJSON(room)
	room.each(func(c *Client) {
		c.setPhase(dentcp.InGame)
		c.send(dentcp.GameStart, start)
		c.send(dentcp.GameState, state)
	})
}

func (cli *Client) handleLeaveRoom(data string) {
	roomName, player, ok := pair(data)
	if !ok {
		cli.send(dentcp.RoomFail, "Invalid format")
		return
	}
	if player != cli.Name() || roomName != cli.Room() {
		cli.send(dentcp.RoomFail, ErrNoRoom.Error())
		return
	}

	cli.reg.abandonRoom(roomName, player)
	cli.clearRoom()
	cli.setPhase(dentcp.InLobby)
	cli.send(dentcp.RoomLeft, fmt.Sprintf("%s,%s", roomName, player))
}

func (cli *Client) handleListRooms(string) {
	buf, err := json.Marshal(cli.reg.RoomsInfo())
	if err != nil {
		panic(err)
	}
	cli.send(dentcp.RoomsList, string(buf))
}

// handleMove validates and commits one step.  The room lock is held
// from the mover check through the GAME_STATE broadcast, so both
// peers see every state before the next move is accepted.
func (cli *Client) handleMove(data string) {
	fields := strings.Split(data, ",")
	if len(fields) != 6 {
		cli.send(dentcp.InvalidMove, "Invalid move format")
		return
	}
	coord, ok := numbers(fields[2:])
	if !ok {
		cli.send(dentcp.InvalidMove, "Invalid move format")
		return
	}
	from := dentcp.Pos{Row: coord[0], Col: coord[1]}
	to := dentcp.Pos{Row: coord[2], Col: coord[3]}

	cli.inGame(fields[0], fields[1], func(room *Room) {
		game := room.Game
		side, _ := game.ColorOf(fields[1])
		m, err := game.Board.Validate(from, to, side)
		if err != nil {
			cli.send(dentcp.InvalidMove, "Invalid move")
			return
		}
		game.Board.Apply(m)
		game.FlipTurn()
		cli.reg.commitLocked(room)
	})
}

// handleMultiMove validates and commits a capture chain.  The payload
// names the number of positions, between 2 and 20; every step of the
// chain must be a capture and the turn flips exactly once.
func (cli *Client) handleMultiMove(data string) {
	fields := strings.Split(data, ",")
	if len(fields) < 3 {
		cli.send(dentcp.InvalidMove, "Invalid multi-move format")
		return
	}
	k, err := strconv.Atoi(fields[2])
	if err != nil || k < 2 || k > 20 || len(fields) != 3+2*k {
		cli.send(dentcp.InvalidMove, "Invalid multi-move format")
		return
	}
	coord, ok := numbers(fields[3:])
	if !ok {
		cli.send(dentcp.InvalidMove, "Invalid coordinates")
		return
	}
	path := make([]dentcp.Pos, k)
	for i := range path {
		path[i] = dentcp.Pos{Row: coord[2*i], Col: coord[2*i+1]}
	}

	cli.inGame(fields[0], fields[1], func(room *Room) {
		game := room.Game
		side, _ := game.ColorOf(fields[1])
		m, err := game.Board.ValidatePath(path, side)
		if err != nil {
			cli.send(dentcp.InvalidMove, "Invalid move in chain")
			return
		}
		game.Board.ApplyPath(m)
		game.FlipTurn()
		cli.reg.commitLocked(room)
	})
}

// inGame runs FN under the room lock once the frame's room and player
// fields, the room state and the turn have all been checked.
func (cli *Client) inGame(roomName, player string, fn func(*Room)) {
	if player != cli.Name() || roomName != cli.Room() {
		cli.send(dentcp.Error, "Game not found")
		return
	}

	reg := cli.reg
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok := reg.rooms[roomName]
	if !ok || room.Game == nil || !room.Game.Active || room.State == RoomFinished {
		cli.send(dentcp.Error, "Game not found")
		return
	}
	if room.State == RoomPaused {
		cli.send(dentcp.InvalidMove, "Game is paused")
		return
	}
	if room.Game.Current != player {
		cli.send(dentcp.InvalidMove, "Not your turn")
		return
	}
	fn(room)
}

// commitLocked broadcasts the state after a committed move and, if
// the game is decided, ends it.  Caller holds the room lock.
func (reg *Registry) commitLocked(room *Room) {
	state := stateJSON(room)
	room.each(func(c *Client) { c.send(dentcp.GameState, state) })

	winner, over := room.Game.Over()
	if !over {
		return
	}
	room.State = RoomFinished
	room.Game.Active = false
	end := winner + ",no_pieces"
	room.each(func(c *Client) {
		c.send(dentcp.GameEnd, end)
		c.send(dentcp.RoomLeft,
			fmt.Sprintf("%s,%s", room.Name, c.Name()))
		c.clearRoom()
		c.setPhase(dentcp.InLobby)
	})
	dentcp.Debug.Printf("Room %q: %q wins", room.Name, winner)
}

// numbers parses a run of decimal fields.
func numbers(fields []string) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
