// Common Types and Constants
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

package dentcp

import "fmt"

// Op is a DENTCP operation code as it appears on the wire.
type Op uint16

const (
	Login              Op = 1
	LoginOk            Op = 2
	LoginFail          Op = 3
	CreateRoom         Op = 4
	JoinRoom           Op = 5
	RoomJoined         Op = 6
	RoomFull           Op = 7
	RoomFail           Op = 8
	GameStart          Op = 9
	Move               Op = 10
	InvalidMove        Op = 11
	GameState          Op = 12
	GameEnd            Op = 13
	LeaveRoom          Op = 14
	RoomLeft           Op = 15
	Ping               Op = 16
	Pong               Op = 17
	ListRooms          Op = 18
	RoomsList          Op = 19
	RoomCreated        Op = 20
	MultiMove          Op = 21
	PlayerDisconnected Op = 22
	PlayerReconnecting Op = 23
	PlayerReconnected  Op = 24
	ReconnectRequest   Op = 25
	ReconnectOk        Op = 26
	ReconnectFail      Op = 27
	GamePaused         Op = 28
	GameResumed        Op = 29
	Error              Op = 500
)

// KnownOp reports whether OP is part of the protocol enumeration.
func KnownOp(op Op) bool {
	return (op >= Login && op <= GameResumed) || op == Error
}

func (op Op) String() string {
	switch op {
	case Login:
		return "LOGIN"
	case LoginOk:
		return "LOGIN_OK"
	case LoginFail:
		return "LOGIN_FAIL"
	case CreateRoom:
		return "CREATE_ROOM"
	case JoinRoom:
		return "JOIN_ROOM"
	case RoomJoined:
		return "ROOM_JOINED"
	case RoomFull:
		return "ROOM_FULL"
	case RoomFail:
		return "ROOM_FAIL"
	case GameStart:
		return "GAME_START"
	case Move:
		return "MOVE"
	case InvalidMove:
		return "INVALID_MOVE"
	case GameState:
		return "GAME_STATE"
	case GameEnd:
		return "GAME_END"
	case LeaveRoom:
		return "LEAVE_ROOM"
	case RoomLeft:
		return "ROOM_LEFT"
	case Ping:
		return "PING"
	case Pong:
		return "PONG"
	case ListRooms:
		return "LIST_ROOMS"
	case RoomsList:
		return "ROOMS_LIST"
	case RoomCreated:
		return "ROOM_CREATED"
	case MultiMove:
		return "MULTI_MOVE"
	case PlayerDisconnected:
		return "PLAYER_DISCONNECTED"
	case PlayerReconnecting:
		return "PLAYER_RECONNECTING"
	case PlayerReconnected:
		return "PLAYER_RECONNECTED"
	case ReconnectRequest:
		return "RECONNECT_REQUEST"
	case ReconnectOk:
		return "RECONNECT_OK"
	case ReconnectFail:
		return "RECONNECT_FAIL"
	case GamePaused:
		return "GAME_PAUSED"
	case GameResumed:
		return "GAME_RESUMED"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("OP(%d)", uint16(op))
	}
}

// Phase is the logical state of a session with respect to game flow.
type Phase uint8

const (
	NotLoggedIn Phase = iota
	InLobby
	InRoomWaiting
	InGame
)

func (p Phase) String() string {
	switch p {
	case NotLoggedIn:
		return "NOT_LOGGED_IN"
	case InLobby:
		return "IN_LOBBY"
	case InRoomWaiting:
		return "IN_ROOM_WAITING"
	case InGame:
		return "IN_GAME"
	default:
		panic(fmt.Sprintf("Illegal phase: %d", p))
	}
}

// ConnState tracks a session across transport loss and recovery.
type ConnState uint8

const (
	Connected ConnState = iota
	Disconnected
	Reconnecting
	TimedOut
	Removed
)

func (s ConnState) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case Disconnected:
		return "DISCONNECTED"
	case Reconnecting:
		return "RECONNECTING"
	case TimedOut:
		return "TIMEOUT"
	case Removed:
		return "REMOVED"
	default:
		panic(fmt.Sprintf("Illegal connection state: %d", s))
	}
}

// Reason classifies a protocol violation.  Codec failures and phase
// rejections both accumulate into the session's violation counters;
// past the limit the reason is reported to the peer and the transport
// is closed.
type Reason uint8

const (
	InvalidPrefix Reason = iota
	InvalidFormat
	InvalidOpcode
	InvalidLength
	DataMismatch
	BufferOverflow
	TooManyViolations
	SuspiciousActivity
)

func (r Reason) String() string {
	switch r {
	case InvalidPrefix:
		return "Invalid message prefix"
	case InvalidFormat:
		return "Invalid message format"
	case InvalidOpcode:
		return "Invalid operation code"
	case InvalidLength:
		return "Invalid length field"
	case DataMismatch:
		return "Data length mismatch"
	case BufferOverflow:
		return "Buffer overflow attempt"
	case TooManyViolations:
		return "Too many protocol violations"
	case SuspiciousActivity:
		return "Suspicious activity detected"
	default:
		panic(fmt.Sprintf("Illegal reason: %d", r))
	}
}
