// Client Communication Management
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
	"io"
	"log"
	"net"

	"golang.org/x/sync/semaphore"

	"go-dentcp"
	"go-dentcp/cmd"
	"go-dentcp/conf"
	"go-dentcp/proto"
)

// Listener is the TCP manager.  Every accepted transport gets its own
// session goroutine; a semaphore enforces the server-wide client cap.
type Listener struct {
	reg  *Registry
	conn net.Listener
	sem  *semaphore.Weighted
}

func MakeListener(reg *Registry) *Listener {
	return &Listener{reg: reg}
}

func (lis *Listener) String() string {
	return "TCP Handler"
}

func (lis *Listener) Start(st *cmd.State, c *conf.Conf) (err error) {
	addr := fmt.Sprintf("%s:%d", c.Proto.Bind, c.Proto.Port)
	lis.conn, err = net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	lis.sem = semaphore.NewWeighted(c.Proto.MaxClients)
	log.Printf("Accepting connections on %s", addr)

	for {
		conn, err := lis.conn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-st.Context.Done():
				return nil
			default:
			}
			dentcp.Debug.Printf("Accept failed: %s", err)
			continue
		}

		if !lis.sem.TryAcquire(1) {
			// Over the cap.  One courtesy frame, then out.
			if frame, err := proto.Serialize(dentcp.Error, "Server full"); err == nil {
				io.WriteString(conn, frame)
			}
			conn.Close()
			continue
		}

		cli := MakeClient(conn, lis.reg)
		dentcp.Debug.Printf("New connection from %s", conn.RemoteAddr())
		go func() {
			cli.Handle()
			lis.sem.Release(1)
		}()
	}
}

func (lis *Listener) Shutdown() {
	if lis.conn != nil {
		lis.conn.Close()
	}
}
