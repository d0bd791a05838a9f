// Game Model
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

// Game holds the state of one match.  The first joiner plays white
// and moves first; the color assignment is stable for the life of
// the game.
type Game struct {
	Board   *Board
	Player1 string // white
	Player2 string // black
	Current string // name of the side to move
	Active  bool
}

// MakeGame starts a game between P1 (white, to move) and P2 (black).
func MakeGame(p1, p2 string) *Game {
	return &Game{
		Board:   MakeBoard(),
		Player1: p1,
		Player2: p2,
		Current: p1,
		Active:  true,
	}
}

// ColorOf returns the color PLAYER plays, and false for a stranger.
func (g *Game) ColorOf(player string) (Color, bool) {
	switch player {
	case g.Player1:
		return White, true
	case g.Player2:
		return Black, true
	default:
		return White, false
	}
}

// Player returns the name playing SIDE.
func (g *Game) Player(side Color) string {
	if side == White {
		return g.Player1
	}
	return g.Player2
}

// Opponent returns the other player's name.
func (g *Game) Opponent(player string) string {
	if player == g.Player1 {
		return g.Player2
	}
	return g.Player1
}

// FlipTurn hands the move to the other player.  A multi-capture
// flips the turn exactly once, after the whole chain is committed.
func (g *Game) FlipTurn() {
	g.Current = g.Opponent(g.Current)
}

// Over reports whether the game has ended and who won.
func (g *Game) Over() (winner string, over bool) {
	side, over := g.Board.Over()
	if !over {
		return "", false
	}
	return g.Player(side), true
}
