// Session and Room Registry
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
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-dentcp"
	"go-dentcp/conf"
)

var (
	ErrNameTaken = errors.New("Client ID already in use")
	ErrNoRoom    = errors.New("Room not found")
	ErrRoomDup   = errors.New("Room already exists")
	ErrRoomMax   = errors.New("Too many rooms")
	ErrRoomFull  = errors.New("Room is full")
	ErrBusy      = errors.New("Already in a room")
)

// Registry holds the two shared tables.  The session lock and the
// room lock are never held at the same time; any path that needs
// both releases the first and re-validates after reacquiring.
type Registry struct {
	conf *conf.Conf

	smu      sync.Mutex
	sessions map[string]*Client

	rmu    sync.Mutex
	rooms  map[string]*Room
	nextID uint64
}

func MakeRegistry(c *conf.Conf) *Registry {
	return &Registry{
		conf:     c,
		sessions: make(map[string]*Client),
		rooms:    make(map[string]*Room),
	}
}

// login claims NAME for CLI.  Names of disconnected sessions stay
// claimed until the reconnect window closes.
func (reg *Registry) login(cli *Client, name string) error {
	reg.smu.Lock()
	defer reg.smu.Unlock()

	if _, ok := reg.sessions[name]; ok {
		return ErrNameTaken
	}
	reg.sessions[name] = cli

	cli.mu.Lock()
	cli.name = name
	cli.phase = dentcp.InLobby
	cli.mu.Unlock()
	return nil
}

// dropSession removes NAME from the table, but only while CLI still
// owns it.  A rebound identity belongs to someone else by now.
func (reg *Registry) dropSession(name string, cli *Client) {
	reg.smu.Lock()
	defer reg.smu.Unlock()
	if reg.sessions[name] == cli {
		delete(reg.sessions, name)
	}
}

func (reg *Registry) findSession(name string) *Client {
	reg.smu.Lock()
	defer reg.smu.Unlock()
	return reg.sessions[name]
}

// snapshotSessions copies the session table so callers can iterate
// without holding the lock.
func (reg *Registry) snapshotSessions() []*Client {
	reg.smu.Lock()
	defer reg.smu.Unlock()

	all := make([]*Client, 0, len(reg.sessions))
	for _, cli := range reg.sessions {
		all = append(all, cli)
	}
	return all
}

func (reg *Registry) SessionCount() int {
	reg.smu.Lock()
	defer reg.smu.Unlock()
	return len(reg.sessions)
}

// gameState is the payload of every GAME_STATE frame.
type gameState struct {
	Board       *dentcp.Board `json:"board"`
	CurrentTurn string        `json:"current_turn"`
	Player1     string        `json:"player1"`
	Player2     string        `json:"player2"`
}

// stateJSON renders the full game state of ROOM.  Caller holds the
// room lock.
func stateJSON(room *Room) string {
	buf, err := json.Marshal(&gameState{
		Board:       room.Game.Board,
		CurrentTurn: room.Game.Current,
		Player1:     room.Game.Player1,
		Player2:     room.Game.Player2,
	})
	if err != nil {
		panic(err)
	}
	return string(buf)
}

// pauseRoom freezes the game in NAME because WHO lost its transport.
// The remaining peer is told who is gone and that the clock stopped.
func (reg *Registry) pauseRoom(name, who string) {
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok := reg.rooms[name]
	if !ok || room.State != RoomActive || !room.has(who) {
		return
	}
	room.State = RoomPaused
	room.PausedAt = time.Now()
	room.Gone = who

	dentcp.Debug.Printf("Room %q paused, %q is gone", name, who)
	if peer := room.other(who); peer != nil {
		peer.send(dentcp.PlayerDisconnected, fmt.Sprintf("%s,%s", name, who))
		peer.send(dentcp.GamePaused, name)
	}
}

// abandonRoom terminates NAME because WHO left it for good.  The
// remaining peer is moved back into the lobby.
func (reg *Registry) abandonRoom(name, who string) {
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	room, ok := reg.rooms[name]
	if !ok || room.State == RoomFinished || !room.has(who) {
		return
	}
	if seat := room.seat(who); seat != nil {
		*seat = nil
	}
	room.State = RoomFinished
	if room.Game != nil {
		room.Game.Active = false
	}

	if peer := room.other(who); peer != nil {
		peer.send(dentcp.RoomLeft, fmt.Sprintf("%s,%s", name, who))
		peer.clearRoom()
		peer.setPhase(dentcp.InLobby)
	}
}

// forfeitLocked ends the game in ROOM against LOSER.  Caller holds
// the room lock.  Finishing twice is impossible, the state check
// guards the transition.
func (reg *Registry) forfeitLocked(room *Room, loser string) {
	if room.State == RoomFinished || room.Game == nil {
		return
	}
	room.State = RoomFinished
	room.Game.Active = false
	winner := room.Game.Opponent(loser)

	dentcp.Debug.Printf("Room %q forfeit by %q", room.Name, loser)
	if peer := room.other(loser); peer != nil {
		peer.send(dentcp.GameEnd, winner+",opponent_timeout")
		peer.clearRoom()
		peer.setPhase(dentcp.InLobby)
	}
	if seat := room.seat(loser); seat != nil {
		*seat = nil
	}
}

// RoomInfo is a consistent copy of one room.  The wire listing only
// carries id, name and occupancy; the state is for the status page.
type RoomInfo struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	State   string `json:"-"`
}

// RoomsInfo snapshots all non-finished rooms, ordered by creation.
func (reg *Registry) RoomsInfo() []RoomInfo {
	reg.rmu.Lock()
	all := make([]RoomInfo, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		if room.State == RoomFinished {
			continue
		}
		all = append(all, RoomInfo{
			ID:      room.ID,
			Name:    room.Name,
			Players: room.Occupants(),
			State:   room.State.String(),
		})
	}
	reg.rmu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (cli *Client) enterRoom(name string) {
	cli.mu.Lock()
	cli.room = name
	cli.phase = dentcp.InRoomWaiting
	cli.mu.Unlock()
}

func (cli *Client) clearRoom() {
	cli.mu.Lock()
	cli.room = ""
	cli.mu.Unlock()
}
