// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned for a block sequence with no blocks. Standard
// padding always yields at least one block, so an empty sequence means the
// input was never padded.
var ErrEmptyMessage = errors.New("sha256fhe: message must contain at least one block")

// Hasher evaluates the SHA-256 circuit over encrypted blocks.
type Hasher struct {
	engine *Engine
	k      [rounds]Word
}

// NewHasher returns a hasher driving the given engine. The round constants
// are public, so they are baked in as trivial words up front.
func NewHasher(engine *Engine) *Hasher {
	hs := &Hasher{engine: engine}
	for t, k := range kTable {
		hs.k[t] = TrivialWord(k)
	}
	return hs
}

// Engine returns the underlying gate engine.
func (hs *Hasher) Engine() *Engine {
	return hs.engine
}

// InitialState returns the standard SHA-256 initial hash values as trivial
// words.
func InitialState() State {
	var st State
	for i, v := range ivTable {
		st[i] = TrivialWord(v)
	}
	return st
}

// Sum hashes an already padded, already encrypted message and returns the
// encrypted 256-bit digest. Blocks are strictly sequential: each block's
// output state feeds the next.
func (hs *Hasher) Sum(blocks []Block) (State, error) {
	if len(blocks) == 0 {
		return State{}, ErrEmptyMessage
	}

	state := InitialState()
	for i, block := range blocks {
		var err error
		state, err = hs.Compress(state, block)
		if err != nil {
			return State{}, fmt.Errorf("block %d: %w", i, err)
		}
	}

	return state, nil
}
