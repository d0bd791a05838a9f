// Shared State and Manager Lifecycle
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

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"go-dentcp"
	"go-dentcp/conf"
)

// A Manager is a subsystem with its own lifecycle: the TCP listener,
// the heartbeat monitor, the web interface.  Start blocks until the
// manager stops or fails; Shutdown asks it to stop.
type Manager interface {
	fmt.Stringer
	Start(*State, *conf.Conf) error
	Shutdown()
}

type State struct {
	Context  context.Context
	Kill     context.CancelFunc
	Managers []Manager

	running bool
}

func MakeState() *State {
	ctx, kill := context.WithCancel(context.Background())
	return &State{Context: ctx, Kill: kill}
}

func (st *State) Register(m Manager) {
	if st.running {
		panic(fmt.Sprintf("Late register: %#v", m))
	}
	st.Managers = append(st.Managers, m)
}

// Start runs all registered managers and blocks until a signal
// arrives, the state is killed or a manager fails.  Managers are shut
// down in reverse registration order.
func (st *State) Start(c *conf.Conf) error {
	group, ctx := errgroup.WithContext(st.Context)
	for _, m := range st.Managers {
		m := m
		dentcp.Debug.Printf("Starting %s", m)
		group.Go(func() error { return m.Start(st, c) })
	}
	st.running = true

	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt, syscall.SIGTERM)
	select {
	case <-intr:
		log.Println("Caught signal, shutting down")
	case <-ctx.Done():
		log.Println("Requested shutdown")
	}

	for i := len(st.Managers) - 1; i >= 0; i-- {
		m := st.Managers[i]
		dentcp.Debug.Printf("Shutting %s down", m)
		m.Shutdown()
	}
	st.Kill()

	return group.Wait()
}
