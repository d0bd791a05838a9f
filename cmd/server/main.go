// Entry point for the game server
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go-dentcp"
	"go-dentcp/cmd"
	"go-dentcp/conf"
	"go-dentcp/server"
	"go-dentcp/web"
)

var (
	confFile = flag.String("conf", "dentcp.toml", "Name of the configuration file")
	dumpConf = flag.Bool("dump-config", false, "Dump the default configuration and exit")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [options] [port] [bind address]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dumpConf {
		if err := conf.Default().Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	c, err := conf.Open(*confFile)
	if err != nil {
		// The default configuration file is optional, anything
		// else named explicitly has to exist.
		if !os.IsNotExist(err) {
			log.Fatal(err)
		}
		c = conf.Default()
	}

	if *debug || c.Debug {
		dentcp.Debug.SetOutput(os.Stderr)
	}

	switch flag.NArg() {
	case 2:
		c.Proto.Bind = flag.Arg(1)
		fallthrough
	case 1:
		port, err := strconv.ParseUint(flag.Arg(0), 10, 16)
		if err != nil {
			log.Fatalf("Invalid port %q", flag.Arg(0))
		}
		c.Proto.Port = uint(port)
	case 0:
	default:
		flag.Usage()
		os.Exit(2)
	}

	st := cmd.MakeState()
	reg := server.MakeRegistry(c)
	st.Register(server.MakeListener(reg))
	st.Register(server.MakeMonitor(reg))
	if c.Web.Enabled {
		st.Register(web.Make(reg))
	}

	if err := st.Start(c); err != nil {
		log.Fatal(err)
	}
}
