// Room State
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
	"time"

	"go-dentcp"
)

type RoomState uint8

const (
	// Created, fewer than two players
	RoomWaiting RoomState = iota
	// Two players, game in progress
	RoomActive
	// A player is disconnected, the game is frozen
	RoomPaused
	// Terminal.  Removed on the next sweep.
	RoomFinished
)

func (rs RoomState) String() string {
	switch rs {
	case RoomWaiting:
		return "waiting"
	case RoomActive:
		return "active"
	case RoomPaused:
		return "paused"
	case RoomFinished:
		return "finished"
	default:
		panic("Illegal room state")
	}
}

// Room is one game room.  All fields are guarded by the registry's
// room lock; a Room is never touched without it.
type Room struct {
	ID    uint64
	Name  string
	Owner string

	// Sessions occupying the two slots, nil when empty.  A
	// reconnect swaps the pointer, the seat stays.
	P1, P2 *Client

	Game  *dentcp.Game
	State RoomState

	// Set while paused
	PausedAt time.Time
	Gone     string
}

func (room *Room) Occupants() (n int) {
	if room.P1 != nil {
		n++
	}
	if room.P2 != nil {
		n++
	}
	return
}

func (room *Room) has(name string) bool {
	if room.Game != nil {
		return room.Game.Player1 == name || room.Game.Player2 == name
	}
	return room.P1 != nil && room.P1.Name() == name ||
		room.P2 != nil && room.P2.Name() == name
}

// seat returns a pointer to the slot NAME occupies, or nil.
func (room *Room) seat(name string) **Client {
	if room.P1 != nil && room.P1.Name() == name {
		return &room.P1
	}
	if room.P2 != nil && room.P2.Name() == name {
		return &room.P2
	}
	return nil
}

// other returns the session seated opposite of NAME, or nil.
func (room *Room) other(name string) *Client {
	if room.P1 != nil && room.P1.Name() != name {
		return room.P1
	}
	if room.P2 != nil && room.P2.Name() != name {
		return room.P2
	}
	return nil
}

// each invokes FN on every occupied seat.
func (room *Room) each(fn func(*Client)) {
	if room.P1 != nil {
		fn(room.P1)
	}
	if room.P2 != nil {
		fn(room.P2)
	}
}
