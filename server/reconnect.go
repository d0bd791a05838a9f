// Reconnection Controller
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
	"errors"
	"fmt"
	"strings"
	"time"

	"go-dentcp"
)

var (
	errNotReconnectable = errors.New("Session is not reconnectable")
	errWindowClosed     = errors.New("Reconnect window closed")
)

// handleReconnect lets a fresh transport claim a disconnected
// session.  On success the identity moves to this client, the stale
// session becomes a husk and the paused game resumes.  On failure the
// requesting transport is dropped; the claimed session is never
// altered by a failed attempt.
func (cli *Client) handleReconnect(data string) {
	fail := func(reason string) {
		dentcp.Debug.Printf("Reconnect via %s refused: %s", cli, reason)
		cli.send(dentcp.ReconnectFail, reason)
		cli.Kill()
	}

	var claimRoom, player string
	switch parts := strings.Split(data, ","); len(parts) {
	case 1:
		player = parts[0]
	case 2:
		claimRoom, player = parts[0], parts[1]
	default:
		fail("Invalid format")
		return
	}
	if player == "" {
		fail("Invalid format")
		return
	}

	// Only an anonymous transport may claim an identity; a rebind
	// would otherwise orphan the caller's own session.
	if cli.Name() != "" {
		fail("Already logged in")
		return
	}

	reg := cli.reg
	old := reg.findSession(player)
	if old == nil || old == cli {
		fail("Unknown player")
		return
	}
	roomName := old.Room()
	if claimRoom != "" && claimRoom != roomName {
		fail("Not a member")
		return
	}

	if err := old.takeover(); err != nil {
		fail(err.Error())
		return
	}

	// The claim has won; only now may the waiting peer hear about
	// it, so a refused attempt leaves no trace on the wire either.
	reg.notifyReconnecting(roomName, player)

	// The identity is ours now.  Adopt it, replace the table entry
	// and rewire the seat.
	now := time.Now()
	cli.mu.Lock()
	cli.name = player
	cli.room = roomName
	cli.state = dentcp.Connected
	cli.lastPong = now
	cli.missedPongs = 0
	cli.waitingPong = false
	cli.mu.Unlock()

	reg.smu.Lock()
	reg.sessions[player] = cli
	reg.smu.Unlock()
	old.closeTransport()

	dentcp.Debug.Printf("Client %q rebound to %s", player, cli)
	reg.resume(cli, player, roomName)
}

// takeover claims the identity of a disconnected session.  The state
// check makes concurrent claims race for exactly one winner; losers
// leave no trace.
func (cli *Client) takeover() error {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	if cli.state != dentcp.Disconnected {
		return errNotReconnectable
	}
	if time.Since(cli.disconnectAt) > cli.reg.conf.LongDisconnect() {
		return errWindowClosed
	}
	cli.state = dentcp.Removed
	return nil
}

// notifyReconnecting forwards the reconnect notice to the peer still
// waiting in NAME.
func (reg *Registry) notifyReconnecting(name, player string) {
	if name == "" {
		return
	}
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok := reg.rooms[name]
	if !ok || room.State != RoomPaused {
		return
	}
	if peer := room.other(player); peer != nil {
		peer.send(dentcp.PlayerReconnecting,
			fmt.Sprintf("%s,%s", name, player))
	}
}

// resume puts a rebound session back where it was: into its room with
// the game unfrozen, or into the lobby if the room did not survive
// the disconnect.
func (reg *Registry) resume(cli *Client, player, name string) {
	if name == "" {
		cli.setPhase(dentcp.InLobby)
		cli.send(dentcp.ReconnectOk, "")
		return
	}

	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok := reg.rooms[name]
	if !ok || room.State == RoomFinished {
		cli.clearRoom()
		cli.setPhase(dentcp.InLobby)
		cli.send(dentcp.ReconnectOk, "")
		return
	}

	if seat := room.seat(player); seat != nil {
		*seat = cli
	}
	if room.Game != nil {
		cli.setPhase(dentcp.InGame)
	} else {
		cli.setPhase(dentcp.InRoomWaiting)
	}
	cli.send(dentcp.ReconnectOk, name)

	if room.State == RoomPaused && room.Gone == player {
		room.State = RoomActive
		room.Gone = ""
		room.PausedAt = time.Time{}

		// The pre-pause turn is preserved, the game continues
		// exactly where it froze.
		note := fmt.Sprintf("%s,%s", name, player)
		room.each(func(c *Client) {
			c.send(dentcp.PlayerReconnected, note)
			c.send(dentcp.GameResumed, name)
		})
	}
	if room.Game != nil {
		cli.send(dentcp.GameState, stateJSON(room))
	}
}
