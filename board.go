// Checkers Board Implementation
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

package dentcp

import (
	"bytes"
	"errors"
	"fmt"
)

// Size of the board along both axes.
const Size = 8

// Cell is the content of one board square, using the wire encoding.
type Cell uint8

const (
	Empty     Cell = 0
	WhiteMan  Cell = 1
	WhiteKing Cell = 2
	BlackMan  Cell = 3
	BlackKing Cell = 4
)

// Color designates a side.  White belongs to the first joiner and
// moves towards row 0, black moves towards row 7.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	panic("Illegal color")
}

// King reports whether the cell holds a promoted piece.
func (c Cell) King() bool {
	return c == WhiteKing || c == BlackKing
}

// Color returns the owner of the cell, and false for an empty cell.
func (c Cell) Color() (Color, bool) {
	switch c {
	case WhiteMan, WhiteKing:
		return White, true
	case BlackMan, BlackKing:
		return Black, true
	default:
		return White, false
	}
}

// Pos is a board coordinate.  Rows grow downward from 0 at the top.
type Pos struct {
	Row, Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// In reports whether the position lies on the board.
func (p Pos) In() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Board represents a checkers game in row-major order.  The engine
// tolerates pieces on any square and never checks square parity.
type Board [Size][Size]Cell

// MakeBoard returns the initial position: black men on rows 0-2,
// white men on rows 5-7.
func MakeBoard() *Board {
	return &Board{
		{3, 0, 3, 0, 3, 0, 3, 0},
		{0, 3, 0, 3, 0, 3, 0, 3},
		{3, 0, 3, 0, 3, 0, 3, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 1, 0, 1, 0, 1},
		{1, 0, 1, 0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0, 1, 0, 1},
	}
}

// At returns the cell at P, which must be on the board.
func (b *Board) At(p Pos) Cell {
	if !p.In() {
		panic("Illegal access")
	}
	return b[p.Row][p.Col]
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	c := *b
	return &c
}

// Count returns the number of pieces belonging to SIDE.
func (b *Board) Count(side Color) (n int) {
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			if c, ok := b[i][j].Color(); ok && c == side {
				n++
			}
		}
	}
	return n
}

// MoveKind distinguishes the accepted move shapes.
type MoveKind uint8

const (
	Normal MoveKind = iota
	Capture
	MultiCapture
)

func (k MoveKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Capture:
		return "capture"
	case MultiCapture:
		return "multi_capture"
	}
	panic("Illegal move kind")
}

// MoveDesc describes a validated move: its endpoints, the cells it
// captures along the way, the intermediate landing cells of a
// multi-capture, and whether applying it produced a king.
type MoveDesc struct {
	From, To Pos
	Kind     MoveKind
	Captures []Pos
	Path     []Pos
	Promoted bool
}

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrOccupied     = errors.New("destination not empty")
	ErrNoPiece      = errors.New("no piece on source")
	ErrWrongColor   = errors.New("piece belongs to the opponent")
	ErrNotDiagonal  = errors.New("move is not diagonal")
	ErrBadDirection = errors.New("men may not move backwards")
	ErrBadDistance  = errors.New("illegal move distance")
	ErrNoCapture    = errors.New("no enemy piece to capture")
	ErrBlocked      = errors.New("path is blocked")
	ErrNotACapture  = errors.New("step in a chain must be a capture")
)

// Validate checks a single step from FROM to TO for MOVER without
// modifying the board.  On success it describes the move, including
// any captured cell.
func (b *Board) Validate(from, to Pos, mover Color) (*MoveDesc, error) {
	if !from.In() || !to.In() {
		return nil, ErrOutOfBounds
	}

	piece := b.At(from)
	if piece == Empty {
		return nil, ErrNoPiece
	}
	if side, _ := piece.Color(); side != mover {
		return nil, ErrWrongColor
	}

	rows, cols := to.Row-from.Row, to.Col-from.Col
	dist := abs(rows)
	if dist != abs(cols) {
		return nil, ErrNotDiagonal
	}
	if b.At(to) != Empty {
		return nil, ErrOccupied
	}

	move := &MoveDesc{From: from, To: to, Kind: Normal}

	if piece.King() {
		// A king slides any distance, capturing at most one
		// enemy piece; the rest of the diagonal must be empty.
		dr, dc := sign(rows), sign(cols)
		for step := 1; step < dist; step++ {
			p := Pos{from.Row + dr*step, from.Col + dc*step}
			c := b.At(p)
			if c == Empty {
				continue
			}
			if side, _ := c.Color(); side == mover {
				return nil, ErrBlocked
			}
			if len(move.Captures) > 0 {
				return nil, ErrBlocked
			}
			move.Captures = append(move.Captures, p)
			move.Kind = Capture
		}
		return move, nil
	}

	switch dist {
	case 1:
		// A man moves one square forward only.
		if mover == White && rows != -1 || mover == Black && rows != 1 {
			return nil, ErrBadDirection
		}
		return move, nil
	case 2:
		// A man captures over the midpoint, in any direction.
		mid := Pos{(from.Row + to.Row) / 2, (from.Col + to.Col) / 2}
		c := b.At(mid)
		if c == Empty {
			return nil, ErrNoCapture
		}
		if side, _ := c.Color(); side == mover {
			return nil, ErrNoCapture
		}
		move.Captures = []Pos{mid}
		move.Kind = Capture
		return move, nil
	default:
		return nil, ErrBadDistance
	}
}

// ValidatePath checks a multi-capture chain without modifying the
// board.  Every step must be a capture, each one legal against the
// board state produced by its predecessors.
func (b *Board) ValidatePath(path []Pos, mover Color) (*MoveDesc, error) {
	if len(path) < 2 {
		return nil, ErrBadDistance
	}

	var (
		scratch = b.Copy()
		move    = &MoveDesc{
			From: path[0],
			To:   path[len(path)-1],
			Kind: MultiCapture,
			Path: path,
		}
	)
	for i := 0; i < len(path)-1; i++ {
		step, err := scratch.Validate(path[i], path[i+1], mover)
		if err != nil {
			return nil, err
		}
		if step.Kind != Capture {
			return nil, ErrNotACapture
		}
		scratch.Apply(step)
		move.Captures = append(move.Captures, step.Captures...)
		move.Promoted = move.Promoted || step.Promoted
	}
	return move, nil
}

// Apply commits a validated move: the piece is relocated, every
// captured cell is cleared and a man reaching its opposing back rank
// is promoted.  The promotion is also recorded in M.
func (b *Board) Apply(m *MoveDesc) {
	piece := b.At(m.From)
	if piece == Empty {
		panic(fmt.Sprintf("Illegal move %s to %s in %s", m.From, m.To, b))
	}

	b[m.To.Row][m.To.Col] = piece
	b[m.From.Row][m.From.Col] = Empty
	for _, p := range m.Captures {
		b[p.Row][p.Col] = Empty
	}

	switch {
	case piece == WhiteMan && m.To.Row == 0:
		b[m.To.Row][m.To.Col] = WhiteKing
		m.Promoted = true
	case piece == BlackMan && m.To.Row == Size-1:
		b[m.To.Row][m.To.Col] = BlackKing
		m.Promoted = true
	}
}

// ApplyPath commits a validated multi-capture step by step.
func (b *Board) ApplyPath(m *MoveDesc) {
	for i := 0; i < len(m.Path)-1; i++ {
		step, err := b.Validate(m.Path[i], m.Path[i+1], mustColor(b.At(m.Path[i])))
		if err != nil {
			panic(fmt.Sprintf("Illegal chain step %s to %s: %s",
				m.Path[i], m.Path[i+1], err))
		}
		b.Apply(step)
		m.Promoted = m.Promoted || step.Promoted
	}
}

// Over reports whether one side has no pieces left, and who won.
func (b *Board) Over() (winner Color, over bool) {
	switch {
	case b.Count(White) == 0:
		return Black, true
	case b.Count(Black) == 0:
		return White, true
	default:
		return White, false
	}
}

// String renders the board for debug output.
func (b *Board) String() string {
	var buf bytes.Buffer
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			switch b[i][j] {
			case Empty:
				buf.WriteByte('.')
			case WhiteMan:
				buf.WriteByte('w')
			case WhiteKing:
				buf.WriteByte('W')
			case BlackMan:
				buf.WriteByte('b')
			case BlackKing:
				buf.WriteByte('B')
			default:
				buf.WriteByte('?')
			}
		}
		if i < Size-1 {
			buf.WriteByte('/')
		}
	}
	return buf.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func mustColor(c Cell) Color {
	side, ok := c.Color()
	if !ok {
		panic("Empty cell has no color")
	}
	return side
}
