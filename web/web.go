// Web interface generator
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
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"go-dentcp"
	"go-dentcp/cmd"
	"go-dentcp/conf"
	"go-dentcp/server"
)

//go:embed *.tmpl
var html embed.FS

var (
	tmpl *template.Template

	funcs = template.FuncMap{
		"now": func() string {
			return time.Now().Format(time.RFC3339)
		},
		"are": func(n int) string {
			if n == 1 {
				return "is"
			}
			return "are"
		},
	}
)

func init() {
	tmpl = template.Must(template.New("").Funcs(funcs).ParseFS(html, "*.tmpl"))
}

// Web serves the status page and, when enabled, the websocket
// endpoint that feeds browser transports into the same session
// handling as raw TCP.
type Web struct {
	reg *server.Registry
	srv *http.Server
}

func Make(reg *server.Registry) *Web {
	return &Web{reg: reg}
}

func (w *Web) String() string {
	return "Web Server"
}

type status struct {
	Rooms    []server.RoomInfo
	Sessions int
}

func (w *Web) index(wr http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(wr, r)
		return
	}
	err := tmpl.ExecuteTemplate(wr, "index.tmpl", status{
		Rooms:    w.reg.RoomsInfo(),
		Sessions: w.reg.SessionCount(),
	})
	if err != nil {
		dentcp.Debug.Printf("Failed to render status page: %s", err)
	}
}

func (w *Web) Start(st *cmd.State, c *conf.Conf) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.index)
	if c.Web.WebSocket {
		mux.HandleFunc("/socket", upgrader(w.reg))
	}

	w.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Web.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Web interface on %s", w.srv.Addr)
	err := w.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (w *Web) Shutdown() {
	if w.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.srv.Shutdown(ctx)
	}
}
