// Test Helpers and Login Tests
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
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"go-dentcp"
	"go-dentcp/conf"
	"go-dentcp/proto"
)

// pipe is a transport stub.  Reads block on nothing and return EOF,
// writes accumulate so tests can inspect the frames a session sent.
type pipe struct {
	mu     sync.Mutex
	out    bytes.Buffer
	closed bool
}

func (p *pipe) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (p *pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.out.Write(b)
}

func (p *pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// take drains everything written since the last call.
func (p *pipe) take() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.out.String()
	p.out.Reset()
	return s
}

// frames decodes all frames written since the last call.
func (p *pipe) frames(t *testing.T) []proto.Message {
	t.Helper()
	var out []proto.Message
	for _, line := range strings.Split(p.take(), "\n") {
		if line == "" {
			continue
		}
		msg, err := proto.Parse(line)
		if err != nil {
			t.Fatalf("Sent an unparsable frame %q: %s", line, err)
		}
		out = append(out, msg)
	}
	return out
}

// expect asserts a single frame and returns its payload.
func (p *pipe) expect(t *testing.T, op dentcp.Op) string {
	t.Helper()
	msgs := p.frames(t)
	if len(msgs) != 1 {
		t.Fatalf("Expected one %s frame, got %v", op, msgs)
	}
	if msgs[0].Op != op {
		t.Fatalf("Expected %s, got %s %q", op, msgs[0].Op, msgs[0].Data)
	}
	return msgs[0].Data
}

func testRegistry() *Registry {
	return MakeRegistry(conf.Default())
}

// connect returns a fresh session on a transport stub.
func connect(reg *Registry) (*Client, *pipe) {
	p := &pipe{}
	return MakeClient(p, reg), p
}

// loggedIn returns a session already past LOGIN.
func loggedIn(t *testing.T, reg *Registry, name string) (*Client, *pipe) {
	t.Helper()
	cli, p := connect(reg)
	cli.handleLogin(name)
	if data := p.expect(t, dentcp.LoginOk); data != name {
		t.Fatalf("Expected LOGIN_OK %q, got %q", name, data)
	}
	return cli, p
}

// startGame returns two sessions seated in an active room.  All
// setup frames are drained.
func startGame(t *testing.T, reg *Registry, room string) (cli1, cli2 *Client, p1, p2 *pipe) {
	t.Helper()
	cli1, p1 = loggedIn(t, reg, "john")
	cli2, p2 = loggedIn(t, reg, "ann")

	cli1.handleCreateRoom("john," + room)
	cli1.handleJoinRoom("john," + room)
	cli2.handleJoinRoom("ann," + room)
	p1.take()
	p2.take()

	if cli1.Phase() != dentcp.InGame || cli2.Phase() != dentcp.InGame {
		t.Fatal("Players not in game after second join")
	}
	return
}

func TestLogin(t *testing.T) {
	reg := testRegistry()

	cli, p := connect(reg)
	cli.handleLogin("john")
	if data := p.expect(t, dentcp.LoginOk); data != "john" {
		t.Errorf("Expected LOGIN_OK john, got %q", data)
	}
	if cli.Phase() != dentcp.InLobby {
		t.Errorf("Expected IN_LOBBY, got %s", cli.Phase())
	}

	dup, q := connect(reg)
	dup.handleLogin("john")
	if data := q.expect(t, dentcp.LoginFail); data != "Client ID already in use" {
		t.Errorf("Unexpected LOGIN_FAIL reason %q", data)
	}
	if dup.Phase() != dentcp.NotLoggedIn {
		t.Errorf("Failed login changed the phase to %s", dup.Phase())
	}
}

func TestLoginRejectsBadNames(t *testing.T) {
	reg := testRegistry()
	for _, name := range []string{"", "   ", strings.Repeat("x", 64), "a,b", "a|b"} {
		cli, p := connect(reg)
		cli.handleLogin(name)
		if msgs := p.frames(t); len(msgs) != 1 || msgs[0].Op != dentcp.LoginFail {
			t.Errorf("Login %q: expected LOGIN_FAIL, got %v", name, msgs)
		}
	}
}
