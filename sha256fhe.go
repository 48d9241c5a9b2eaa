// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package sha256fhe computes SHA-256 digests over data that stays encrypted
// end to end under the FHE boolean scheme from github.com/luxfi/fhe.
//
// A client pads and encrypts its message bit by bit. The compute party holds
// only a gate-evaluation capability (no decryption key) and evaluates the
// full SHA-256 compression function as a circuit of homomorphic AND, XOR,
// OR and NOT gates. The client decrypts the resulting 256-bit digest.
//
// Every gate costs a bootstrapping operation, so the circuit is organized
// around two cost classes:
//   - embarrassingly parallel 32-lane batches (bitwise word operations,
//     the sigma, ch and maj round functions), fanned out across goroutines
//   - the strictly sequential carry chain of the modulo 2^32 adder, which
//     dominates latency
//
// Publicly known values (round constants, the initial hash state, shifted-in
// zero bits) are carried as trivial bits: plain constants in ciphertext
// clothing that cost no gates until they meet secret data.
package sha256fhe

import (
	"github.com/luxfi/fhe"
)

// Circuit dimensions.
const (
	// WordBits is the width of a hash word.
	WordBits = 32
	// BlockWords is the number of words in one padded message block.
	BlockWords = 16
	// BlockBits is the size of one padded message block in bits.
	BlockBits = WordBits * BlockWords
	// StateWords is the number of words in the running hash state.
	StateWords = 8
	// DigestBytes is the size of the final digest.
	DigestBytes = 32
)

// Bit is one encrypted boolean. It is either a genuine ciphertext produced
// by client encryption or gate evaluation, or a trivial encoding of a
// publicly known constant. Trivial bits carry no noise and cost no gates.
//
// A Bit is immutable once produced. The zero value is a trivial false.
type Bit struct {
	// ct is nil for trivial bits.
	ct *fhe.Ciphertext
	// value is the plaintext of a trivial bit; meaningless otherwise.
	value bool
}

// TrivialBit returns the trivial encoding of a publicly known constant.
func TrivialBit(v bool) Bit {
	return Bit{value: v}
}

// NewBit wraps a genuine ciphertext.
func NewBit(ct *fhe.Ciphertext) Bit {
	return Bit{ct: ct}
}

// IsTrivial reports whether the bit is a trivial constant.
func (b Bit) IsTrivial() bool {
	return b.ct == nil
}

// TrivialValue returns the plaintext of a trivial bit. The second return
// value is false for genuine ciphertexts, whose plaintext is unknown here.
func (b Bit) TrivialValue() (bool, bool) {
	if b.ct == nil {
		return b.value, true
	}
	return false, false
}

// Ciphertext returns the underlying ciphertext, or nil for trivial bits.
func (b Bit) Ciphertext() *fhe.Ciphertext {
	return b.ct
}

// Word is a 32-bit encrypted word. Index 0 is the most significant bit,
// matching SHA-256 big-endian bit order.
type Word [WordBits]Bit

// Block is one 512-bit padded message chunk.
type Block [BlockWords]Word

// State is the running 8-word hash state (a through h). After the final
// block it is the encrypted digest.
type State [StateWords]Word

// TrivialWord returns the trivial encoding of a public 32-bit constant.
func TrivialWord(v uint32) Word {
	var w Word
	for i := 0; i < WordBits; i++ {
		w[i] = TrivialBit(v>>(WordBits-1-i)&1 == 1)
	}
	return w
}

// TrivialValue returns the plaintext of a word composed entirely of trivial
// bits. The second return value is false if any bit is a genuine ciphertext.
func (w Word) TrivialValue() (uint32, bool) {
	var v uint32
	for i := 0; i < WordBits; i++ {
		bit, ok := w[i].TrivialValue()
		if !ok {
			return 0, false
		}
		if bit {
			v |= 1 << (WordBits - 1 - i)
		}
	}
	return v, true
}
