// Operation Dispatch
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
	"fmt"

	"go-dentcp"
	"go-dentcp/proto"
)

// whitelist maps each phase to the operations a client may send in
// it.  RECONNECT_REQUEST and ERROR are accepted everywhere, a client
// cannot know what phase the server still has it in.
var whitelist = map[dentcp.Phase][]dentcp.Op{
	dentcp.NotLoggedIn: {
		dentcp.Login,
		dentcp.Ping, dentcp.Pong,
		dentcp.ReconnectRequest, dentcp.Error,
	},
	dentcp.InLobby: {
		dentcp.CreateRoom, dentcp.JoinRoom, dentcp.ListRooms,
		dentcp.Ping, dentcp.Pong,
		dentcp.ReconnectRequest, dentcp.Error,
	},
	dentcp.InRoomWaiting: {
		dentcp.JoinRoom, dentcp.LeaveRoom, dentcp.ListRooms,
		dentcp.Ping, dentcp.Pong,
		dentcp.ReconnectRequest, dentcp.Error,
	},
	dentcp.InGame: {
		dentcp.Move, dentcp.MultiMove, dentcp.LeaveRoom,
		dentcp.ListRooms,
		dentcp.Ping, dentcp.Pong,
		dentcp.ReconnectRequest, dentcp.Error,
	},
}

// Allowed reports whether OP may be sent in phase P.
func Allowed(p dentcp.Phase, op dentcp.Op) bool {
	for _, o := range whitelist[p] {
		if o == op {
			return true
		}
	}
	return false
}

// interpret routes one well-formed frame.  Frames outside the current
// phase's whitelist are never delivered to a handler, they only feed
// the violation counter.
func (cli *Client) interpret(msg proto.Message) {
	phase := cli.Phase()
	if !Allowed(phase, msg.Op) {
		cli.chargePhase(msg.Op, phase)
		return
	}

	switch msg.Op {
	case dentcp.Login:
		cli.handleLogin(msg.Data)
	case dentcp.CreateRoom:
		cli.handleCreateRoom(msg.Data)
	case dentcp.JoinRoom:
		cli.handleJoinRoom(msg.Data)
	case dentcp.LeaveRoom:
		cli.handleLeaveRoom(msg.Data)
	case dentcp.ListRooms:
		cli.handleListRooms(msg.Data)
	case dentcp.Move:
		cli.handleMove(msg.Data)
	case dentcp.MultiMove:
		cli.handleMultiMove(msg.Data)
	case dentcp.Ping:
		cli.send(dentcp.Pong, "")
	case dentcp.Pong:
		cli.updatePong()
	case dentcp.ReconnectRequest:
		cli.handleReconnect(msg.Data)
	case dentcp.Error:
		// Peers may report errors, nothing to act on.
		dentcp.Debug.Printf("%s reported: %q", cli, msg.Data)
	default:
		// Server-to-client operations are well-formed but never
		// acceptable from a client.
		cli.chargePhase(msg.Op, phase)
	}
}

// chargePhase records a phase violation.  Until the limit the client
// gets a warning naming the offense; at the limit the session is cut
// with a generic reason, the peer learns nothing about the phase
// tables.
func (cli *Client) chargePhase(op dentcp.Op, phase dentcp.Phase) {
	dentcp.Debug.Printf("%s sent %s during %s", cli, op, phase)

	count, limit := cli.charge(false)
	if count < limit {
		cli.send(dentcp.Error, fmt.Sprintf(
			"Operation %s not allowed in phase %s. Warning %d/%d",
			op, phase, count, limit))
		return
	}
	cli.forceClose(dentcp.SuspiciousActivity)
}
