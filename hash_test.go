// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// trivialDigest reads a digest whose bits are all trivial constants.
func trivialDigest(t *testing.T, st State) [DigestBytes]byte {
	t.Helper()
	var digest [DigestBytes]byte
	for i := 0; i < StateWords; i++ {
		v, ok := st[i].TrivialValue()
		if !ok {
			t.Fatalf("digest word %d is not trivial", i)
		}
		digest[i*4] = byte(v >> 24)
		digest[i*4+1] = byte(v >> 16)
		digest[i*4+2] = byte(v >> 8)
		digest[i*4+3] = byte(v)
	}
	return digest
}

func TestSumKnownAnswers(t *testing.T) {
	hs := NewHasher(trivialEngine(0))

	cases := []struct {
		name string
		msg  string
		want string
	}{
		{"HelloWorld", "hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{"Empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"ABC", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := hs.Sum(trivialBlocks([]byte(tc.msg)))
			if err != nil {
				t.Fatalf("Sum: %v", err)
			}
			if got := DigestHex(trivialDigest(t, state)); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

// A 64-byte message pads into exactly two blocks, exercising the state
// handoff between compressions.
func TestSumTwoBlocks(t *testing.T) {
	hs := NewHasher(trivialEngine(0))

	msg := make([]byte, 64)
	for i := range msg {
		msg[i] = byte(i)
	}

	blocks := trivialBlocks(msg)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	state, err := hs.Sum(blocks)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}

	want := sha256.Sum256(msg)
	if got := trivialDigest(t, state); got != want {
		t.Errorf("got %x, want %x", got, want)
	}
}

// Sweep message lengths across the padding boundaries (55/56 bytes, block
// multiples) against the standard library.
func TestSumMatchesReference(t *testing.T) {
	hs := NewHasher(trivialEngine(0))
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{0, 1, 3, 31, 55, 56, 57, 63, 64, 65, 119, 120, 128, 130} {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			msg := make([]byte, n)
			rng.Read(msg)

			state, err := hs.Sum(trivialBlocks(msg))
			if err != nil {
				t.Fatalf("Sum: %v", err)
			}

			want := sha256.Sum256(msg)
			if got := trivialDigest(t, state); got != want {
				t.Errorf("got %x, want %x", got, want)
			}
		})
	}
}

func TestSumEmptyBlockSequence(t *testing.T) {
	hs := NewHasher(trivialEngine(0))
	if _, err := hs.Sum(nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

// Full pipeline over genuine ciphertexts: pad, encrypt, evaluate all 64
// rounds homomorphically, decrypt. Tens of thousands of bootstraps, so it
// only runs outside -short.
func TestSumEncrypted(t *testing.T) {
	if testing.Short() {
		t.Skip("full homomorphic hash is expensive; skipping in short mode")
	}
	ctx := testFHE(t)

	hs := NewHasher(ctx.engine)
	blocks := ctx.client.EncryptMessage(nil)

	state, err := hs.Sum(blocks)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}

	got := DigestHex(ctx.client.DecryptDigest(state))
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
