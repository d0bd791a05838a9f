// Protocol Handling
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

package proto

import (
	"fmt"
	"strings"

	"go-dentcp"
)

const (
	// Prefix identifies the protocol on every frame.
	Prefix = "DENTCP"
	// MaxFrame is the hard limit on one encoded frame, terminator
	// included.  A reader that fills this much without seeing a
	// terminator must discard the buffer.
	MaxFrame = 8192
	// MaxData is the largest payload the codec accepts.
	MaxData = MaxFrame - 1
)

// Message is one decoded frame.
type Message struct {
	Op   dentcp.Op
	Data string
}

// Violation is a parse failure with its typed reason.  These reasons
// are the sole inputs to the per-session violation counter.
type Violation struct {
	Reason dentcp.Reason
}

func (v *Violation) Error() string {
	return v.Reason.String()
}

func fail(r dentcp.Reason) (Message, error) {
	return Message{}, &Violation{Reason: r}
}

// Parse destructs one logical line (terminator stripped) of the form
//
//	DENTCP|OP|LEN|DATA
//
// OP and LEN must be numeric-only, OP must decode to a known
// operation, LEN must be within bounds and equal to the byte length
// of DATA.
func Parse(line string) (Message, error) {
	if !strings.HasPrefix(line, Prefix) {
		return fail(dentcp.InvalidPrefix)
	}
	rest := line[len(Prefix):]
	if len(rest) == 0 || rest[0] != '|' {
		return fail(dentcp.InvalidFormat)
	}
	rest = rest[1:]

	sep := strings.IndexByte(rest, '|')
	if sep <= 0 {
		return fail(dentcp.InvalidFormat)
	}
	op, ok := number(rest[:sep])
	if !ok {
		return fail(dentcp.InvalidOpcode)
	}
	if !dentcp.KnownOp(dentcp.Op(op)) {
		return fail(dentcp.InvalidOpcode)
	}
	rest = rest[sep+1:]

	sep = strings.IndexByte(rest, '|')
	if sep <= 0 {
		return fail(dentcp.InvalidFormat)
	}
	length, ok := number(rest[:sep])
	if !ok || length > MaxData {
		return fail(dentcp.InvalidLength)
	}

	data := rest[sep+1:]
	if len(data) != length {
		return fail(dentcp.DataMismatch)
	}

	return Message{Op: dentcp.Op(op), Data: data}, nil
}

// Serialize produces the canonical frame for (OP, DATA) and appends
// the terminator.  It refuses oversized payloads.
func Serialize(op dentcp.Op, data string) (string, error) {
	if len(data) > MaxData {
		return "", fmt.Errorf("payload too long: %d bytes", len(data))
	}
	return fmt.Sprintf("%s|%02d|%04d|%s\n", Prefix, uint16(op), len(data), data), nil
}

// number parses an unsigned decimal with no sign, spaces or other
// adornments.  Anything else on the wire is a violation, not a
// number.
func number(s string) (int, bool) {
	if s == "" || len(s) > 6 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
