// Websocket interface
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

package web

import (
	"io"
	"net/http"

	"go-dentcp"
	"go-dentcp/server"

	"github.com/gorilla/websocket"
)

// wsconn lets a websocket stand in for the byte stream the session
// layer reads frames from.  Each write becomes one text message; reads
// drain the incoming messages in order (the scheme follows
// gorilla/websocket issue 282).
type wsconn struct {
	*websocket.Conn
	r io.Reader
}

func (c *wsconn) Write(p []byte) (int, error) {
	if err := c.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsconn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			var err error
			if _, c.r, err = c.NextReader(); err != nil {
				return 0, err
			}
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			// The message is drained, move on to the next.
			c.r = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

// upgrader turns an HTTP request into a websocket session.
func upgrader(reg *server.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		}).Upgrade(w, r, nil)
		if err != nil {
			dentcp.Debug.Printf("Unable to upgrade connection: %s", err)
			w.WriteHeader(400)
			return
		}

		dentcp.Debug.Printf("New websocket connection from %s", conn.RemoteAddr())
		cli := server.MakeClient(&wsconn{Conn: conn}, reg)
		go cli.Handle()
	}
}
