// Configuration Specification and Management
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

package conf

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Conf is the server configuration.  Durations are stored as whole
// seconds so a configuration file stays readable.
type Conf struct {
	Debug bool `toml:"debug"`

	Proto struct {
		Port       uint   `toml:"port"`
		Bind       string `toml:"bind"`
		MaxClients int64  `toml:"max_clients"`
		MaxFrame   int    `toml:"max_frame"`
		ConnectSec uint   `toml:"connect_timeout"`
	} `toml:"proto"`

	Heart struct {
		PingSec    uint `toml:"ping_interval_s"`
		PongSec    uint `toml:"pong_timeout_s"`
		MissedMax  int  `toml:"missed_pong_threshold"`
		ShortSec   uint `toml:"short_disconnect_s"`
		LongSec    uint `toml:"long_disconnect_s"`
		SilenceSec uint `toml:"connection_timeout_s"`
	} `toml:"heartbeat"`

	Rooms struct {
		Max int `toml:"max_rooms"`
	} `toml:"rooms"`

	Violations struct {
		Codec    int  `toml:"codec_limit"`
		Phase    int  `toml:"phase_limit"`
		ResetSec uint `toml:"violation_reset_s"`
	} `toml:"violations"`

	Web struct {
		Enabled   bool `toml:"enabled"`
		Port      uint `toml:"port"`
		WebSocket bool `toml:"websocket"`
	} `toml:"web"`
}

// Configuration used by default
var defaultConfig = Conf{}

func init() {
	def := &defaultConfig

	def.Proto.Port = 12345
	def.Proto.MaxClients = 100
	def.Proto.MaxFrame = 8192
	def.Proto.ConnectSec = 5

	def.Heart.PingSec = 5
	def.Heart.PongSec = 3
	def.Heart.MissedMax = 3
	def.Heart.ShortSec = 40
	def.Heart.LongSec = 80
	def.Heart.SilenceSec = 100

	def.Rooms.Max = 50

	def.Violations.Codec = 1
	def.Violations.Phase = 3
	def.Violations.ResetSec = 60

	def.Web.Enabled = true
	def.Web.Port = 8080
	def.Web.WebSocket = true
}

// Default returns a copy of the compiled-in configuration.
func Default() *Conf {
	c := defaultConfig
	return &c
}

// Open loads a configuration file, falling back to the defaults for
// every field the file does not mention.
func Open(name string) (*Conf, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c := defaultConfig
	if _, err := toml.NewDecoder(file).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Dump serialises the configuration into a writer.
func (c *Conf) Dump(wr io.Writer) error {
	return toml.NewEncoder(wr).Encode(c)
}

func (c *Conf) PingInterval() time.Duration {
	return time.Duration(c.Heart.PingSec) * time.Second
}

func (c *Conf) PongTimeout() time.Duration {
	return time.Duration(c.Heart.PongSec) * time.Second
}

func (c *Conf) ShortDisconnect() time.Duration {
	return time.Duration(c.Heart.ShortSec) * time.Second
}

func (c *Conf) LongDisconnect() time.Duration {
	return time.Duration(c.Heart.LongSec) * time.Second
}

// Silence is the hard limit on the age of the last pong before a
// session is treated as gone even if no ping was outstanding.
func (c *Conf) Silence() time.Duration {
	return time.Duration(c.Heart.SilenceSec) * time.Second
}

func (c *Conf) ConnectTimeout() time.Duration {
	return time.Duration(c.Proto.ConnectSec) * time.Second
}

func (c *Conf) ViolationReset() time.Duration {
	return time.Duration(c.Violations.ResetSec) * time.Second
}
