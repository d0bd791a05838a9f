// Heartbeat Monitor
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
	"go-dentcp/cmd"
	"go-dentcp/conf"
)

// Monitor is the heartbeat manager.  One periodic sweep pings every
// connected session, escalates missed pongs into disconnects and
// expired disconnects into forfeits, and collects finished rooms.
type Monitor struct {
	reg  *Registry
	shut chan struct{}
}

func MakeMonitor(reg *Registry) *Monitor {
	return &Monitor{reg: reg, shut: make(chan struct{})}
}

func (m *Monitor) String() string {
	return "Heartbeat Monitor"
}

func (m *Monitor) Start(st *cmd.State, c *conf.Conf) error {
	tick := time.NewTicker(c.PingInterval())
	defer tick.Stop()

	for {
		select {
		case <-m.shut:
			return nil
		case <-st.Context.Done():
			return nil
		case <-tick.C:
			m.Sweep(time.Now())
		}
	}
}

func (m *Monitor) Shutdown() {
	close(m.shut)
}

type beat uint8

const (
	beatNone beat = iota
	// Send a ping and expect a pong before the next sweep.
	beatPing
	// The session stopped answering, treat the transport as gone.
	beatLost
	// The reconnect window closed.
	beatExpired
)

// Sweep runs one heartbeat pass at the given instant.
func (m *Monitor) Sweep(now time.Time) {
	for _, cli := range m.reg.snapshotSessions() {
		switch m.check(cli, now) {
		case beatPing:
			cli.send(dentcp.Ping, "")
		case beatLost:
			dentcp.Debug.Printf("Client %s stopped answering", cli)
			cli.closeTransport()
			cli.transportLost()
		case beatExpired:
			m.expire(cli)
		}
	}
	m.reg.sweepRooms(now)
}

// check inspects one session under its identity lock and decides what
// the sweep owes it.
func (m *Monitor) check(cli *Client, now time.Time) beat {
	c := m.reg.conf
	cli.mu.Lock()
	defer cli.mu.Unlock()

	switch cli.state {
	case dentcp.Connected, dentcp.Reconnecting:
		if cli.waitingPong && now.Sub(cli.pingSent) > c.PongTimeout() {
			cli.waitingPong = false
			cli.missedPongs++
			dentcp.Debug.Printf("Client %q missed a pong (%d/%d)",
				cli.name, cli.missedPongs, c.Heart.MissedMax)
		}
		if cli.missedPongs >= c.Heart.MissedMax ||
			now.Sub(cli.lastPong) > c.Silence() {
			return beatLost
		}
		if !cli.waitingPong {
			cli.waitingPong = true
			cli.pingSent = now
			return beatPing
		}

	case dentcp.Disconnected:
		if now.Sub(cli.disconnectAt) > c.LongDisconnect() {
			cli.state = dentcp.TimedOut
			return beatExpired
		}
	}
	return beatNone
}

// expire removes a session whose reconnect window has closed.  If it
// still occupies a room the game is forfeited against it.
func (m *Monitor) expire(cli *Client) {
	name, room := cli.Name(), cli.Room()
	dentcp.Debug.Printf("Client %q expired", name)

	if room != "" {
		m.reg.forfeit(room, name)
	}
	m.reg.dropSession(name, cli)
}

// forfeit ends the game in NAME against LOSER.
func (reg *Registry) forfeit(name, loser string) {
	reg.rmu.Lock()
	defer reg.rmu.Unlock()
	if room, ok := reg.rooms[name]; ok {
		reg.forfeitLocked(room, loser)
	}
}

// sweepRooms forfeits games whose pause outlived the reconnect window
// and drops rooms that reached their terminal state.
func (reg *Registry) sweepRooms(now time.Time) {
	reg.rmu.Lock()
	defer reg.rmu.Unlock()

	for name, room := range reg.rooms {
		if room.State == RoomPaused {
			stale := now.Sub(room.PausedAt)
			if stale > reg.conf.LongDisconnect() {
				reg.forfeitLocked(room, room.Gone)
			} else if stale > reg.conf.ShortDisconnect() {
				dentcp.Debug.Printf("Room %q paused for %s, waiting on %q",
					name, stale.Round(time.Second), room.Gone)
			}
		}
		if room.State == RoomFinished {
			delete(reg.rooms, name)
		}
	}
}
