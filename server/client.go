// Client Session Management
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
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"go-dentcp"
	"go-dentcp/proto"
)

// Client is one session.  It is created for a transport, but outlives
// it: when the transport is lost the session lingers in the registry
// as DISCONNECTED until a reconnect claims its identity or the long
// disconnect threshold passes.
type Client struct {
	reg *Registry

	// The transport is written under iolock and never reassigned;
	// a reconnect moves the identity to a fresh Client instead.
	iolock sync.Mutex
	rwc    io.ReadWriteCloser

	kill context.CancelFunc

	// Identity lock.  Guards everything below.
	mu    sync.Mutex
	name  string
	phase dentcp.Phase
	state dentcp.ConnState
	room  string

	// Heartbeat bookkeeping, maintained by the monitor.
	lastPong     time.Time
	pingSent     time.Time
	waitingPong  bool
	missedPongs  int
	disconnectAt time.Time

	// Violation counters with their decay timestamp.
	vioCodec int
	vioPhase int
	vioLast  time.Time
}

// MakeClient wraps a transport into a session.  The caller is
// expected to run Handle.
func MakeClient(rwc io.ReadWriteCloser, reg *Registry) *Client {
	return &Client{
		reg:      reg,
		rwc:      rwc,
		state:    dentcp.Connected,
		phase:    dentcp.NotLoggedIn,
		lastPong: time.Now(),
	}
}

// String returns an internal representation for log output.
func (cli *Client) String() string {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	if cli.name == "" {
		return fmt.Sprintf("%p (anonymous)", cli)
	}
	return fmt.Sprintf("%p (%q)", cli, cli.name)
}

func (cli *Client) Name() string {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.name
}

func (cli *Client) Phase() dentcp.Phase {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.phase
}

func (cli *Client) State() dentcp.ConnState {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.state
}

func (cli *Client) Room() string {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	return cli.room
}

func (cli *Client) setPhase(p dentcp.Phase) {
	cli.mu.Lock()
	old := cli.phase
	cli.phase = p
	cli.mu.Unlock()
	dentcp.Debug.Printf("Client %s: %s -> %s", cli, old, p)
}

// send serialises and writes one frame.  A write failure is routed
// through the same disconnect path as a heartbeat miss.
func (cli *Client) send(op dentcp.Op, data string) {
	frame, err := proto.Serialize(op, data)
	if err != nil {
		dentcp.Debug.Printf("Refusing to send %s to %s: %s", op, cli, err)
		return
	}

	cli.iolock.Lock()
	if cli.rwc == nil {
		cli.iolock.Unlock()
		return
	}
	if nc, ok := cli.rwc.(net.Conn); ok {
		nc.SetWriteDeadline(time.Now().Add(cli.reg.conf.ConnectTimeout()))
	}
	_, err = io.WriteString(cli.rwc, frame)
	cli.iolock.Unlock()

	dentcp.Debug.Printf("%s > %s %q", cli, op, data)
	if err != nil {
		dentcp.Debug.Printf("Write to %s failed: %s", cli, err)
		go cli.transportLost()
	}
}

// closeTransport detaches and closes the transport, if any is left.
func (cli *Client) closeTransport() {
	cli.iolock.Lock()
	defer cli.iolock.Unlock()
	if cli.rwc != nil {
		cli.rwc.Close()
		cli.rwc = nil
	}
}

// Kill aborts the connection.
func (cli *Client) Kill() {
	if cli.kill != nil {
		cli.kill()
	}
	cli.closeTransport()
}

// Handle owns the transport: it accumulates bytes into a bounded
// buffer, slices logical lines at the terminator and feeds them
// through the codec into the dispatcher.  It returns when the
// transport is gone.
func (cli *Client) Handle() {
	var ctx context.Context
	ctx, cli.kill = context.WithCancel(context.Background())
	defer cli.kill()

	// The first frame has to arrive within the connect deadline.
	if nc, ok := cli.rwc.(net.Conn); ok {
		nc.SetReadDeadline(time.Now().Add(cli.reg.conf.ConnectTimeout()))
	}

	var (
		rwc   = cli.rwc
		buf   = make([]byte, 0, cli.reg.conf.Proto.MaxFrame)
		tmp   = make([]byte, 512)
		first = true
		drop  = false
	)
	for {
		n, err := rwc.Read(tmp)
		if n > 0 && first {
			first = false
			if nc, ok := rwc.(net.Conn); ok {
				nc.SetReadDeadline(time.Time{})
			}
		}

		for _, b := range tmp[:n] {
			if b != '\n' {
				if drop {
					continue
				}
				if len(buf) == cap(buf) {
					// The buffer filled without a terminator.
					// The line is charged once and its rest
					// skipped up to the next terminator.
					buf = buf[:0]
					drop = true
					cli.chargeCodec(dentcp.BufferOverflow)
					continue
				}
				buf = append(buf, b)
				continue
			}
			if drop {
				drop = false
				continue
			}

			line := strings.TrimSuffix(string(buf), "\r")
			buf = buf[:0]
			if line == "" {
				continue
			}

			dentcp.Debug.Printf("%s < %q", cli, line)
			msg, perr := proto.Parse(line)
			if perr != nil {
				if v, ok := perr.(*proto.Violation); ok {
					cli.chargeCodec(v.Reason)
				}
				continue
			}
			cli.interpret(msg)
		}

		if err != nil {
			break
		}
		select {
		case <-ctx.Done():
			cli.closeTransport()
			cli.transportLost()
			return
		default:
		}
	}

	cli.closeTransport()
	cli.transportLost()
}

// transportLost runs the disconnect path: anonymous sessions are
// dropped, logged-in sessions are preserved as DISCONNECTED and their
// room is paused.  The heartbeat monitor later decides between resume
// and forfeit.
func (cli *Client) transportLost() {
	cli.mu.Lock()
	switch cli.state {
	case dentcp.Removed, dentcp.TimedOut:
		// Already rebound, kicked or swept.
		cli.mu.Unlock()
		return
	}

	if cli.phase == dentcp.NotLoggedIn {
		cli.state = dentcp.Removed
		cli.mu.Unlock()
		return
	}

	name, room := cli.name, cli.room
	if cli.state == dentcp.Connected {
		cli.state = dentcp.Disconnected
		cli.disconnectAt = time.Now()
	}
	cli.mu.Unlock()

	dentcp.Debug.Printf("Client %s lost its transport", name)
	if room != "" {
		cli.reg.pauseRoom(room, name)
	}
}

// charge bumps one of the violation counters and returns its new
// value along with the configured limit.  Both counters decay to zero
// after the configured idle window.
func (cli *Client) charge(codec bool) (count, limit int) {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	now := time.Now()
	if !cli.vioLast.IsZero() && now.Sub(cli.vioLast) > cli.reg.conf.ViolationReset() {
		cli.vioCodec, cli.vioPhase = 0, 0
	}
	cli.vioLast = now

	if codec {
		cli.vioCodec++
		return cli.vioCodec, cli.reg.conf.Violations.Codec
	}
	cli.vioPhase++
	return cli.vioPhase, cli.reg.conf.Violations.Phase
}

// chargeCodec records a malformed frame.  Until the limit the client
// gets a warning naming the offense; at the limit the session is
// force-closed with the originating reason reported first.
func (cli *Client) chargeCodec(reason dentcp.Reason) {
	count, limit := cli.charge(true)
	if count < limit {
		cli.send(dentcp.Error,
			fmt.Sprintf("%s. Warning %d/%d", reason, count, limit))
		return
	}
	cli.forceClose(reason)
}

// forceClose reports REASON to the peer and closes the session for
// good.  Violations above the limit are unrecoverable, so the session
// does not wait for a reconnect; an occupied room is terminated as if
// the player had left.
func (cli *Client) forceClose(reason dentcp.Reason) {
	cli.send(dentcp.Error, reason.String())

	cli.mu.Lock()
	name, room := cli.name, cli.room
	cli.state = dentcp.Removed
	cli.room = ""
	cli.mu.Unlock()

	dentcp.Debug.Printf("Force-closing %s: %s", cli, reason)
	if room != "" {
		cli.reg.abandonRoom(room, name)
	}
	if name != "" {
		cli.reg.dropSession(name, cli)
	}
	cli.Kill()
}

// updatePong acknowledges a PONG from the peer.
func (cli *Client) updatePong() {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	cli.lastPong = time.Now()
	cli.missedPongs = 0
	cli.waitingPong = false
	if cli.state == dentcp.Reconnecting {
		cli.state = dentcp.Connected
	}
}
