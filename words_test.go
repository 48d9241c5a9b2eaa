// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"math/bits"
	"math/rand"
	"testing"
)

// Plaintext models of the round functions, straight from FIPS 180-4.
func refSigma0(x uint32) uint32 {
	return bits.RotateLeft32(x, -7) ^ bits.RotateLeft32(x, -18) ^ x>>3
}

func refSigma1(x uint32) uint32 {
	return bits.RotateLeft32(x, -17) ^ bits.RotateLeft32(x, -19) ^ x>>10
}

func refBigSigma0(x uint32) uint32 {
	return bits.RotateLeft32(x, -2) ^ bits.RotateLeft32(x, -13) ^ bits.RotateLeft32(x, -22)
}

func refBigSigma1(x uint32) uint32 {
	return bits.RotateLeft32(x, -6) ^ bits.RotateLeft32(x, -11) ^ bits.RotateLeft32(x, -25)
}

func refCh(x, y, z uint32) uint32 {
	return (x & y) ^ (^x & z)
}

func refMaj(x, y, z uint32) uint32 {
	return (x & y) ^ (x & z) ^ (y & z)
}

func TestRotateAndShift(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		x := rng.Uint32()
		for _, n := range []int{1, 3, 7, 10, 17, 22, 25, 31} {
			if got, _ := RotateRight(TrivialWord(x), n).TrivialValue(); got != bits.RotateLeft32(x, -n) {
				t.Fatalf("RotateRight(%#x, %d) = %#x, want %#x", x, n, got, bits.RotateLeft32(x, -n))
			}
			if got, _ := ShiftRight(TrivialWord(x), n).TrivialValue(); got != x>>n {
				t.Fatalf("ShiftRight(%#x, %d) = %#x, want %#x", x, n, got, x>>n)
			}
		}
	}
}

func TestRoundFunctionsTrivial(t *testing.T) {
	e := trivialEngine(0)
	rng := rand.New(rand.NewSource(4))

	unary := []struct {
		name string
		fhe  func(Word) (Word, error)
		ref  func(uint32) uint32
	}{
		{"sigma0", e.Sigma0, refSigma0},
		{"sigma1", e.Sigma1, refSigma1},
		{"bigSigma0", e.BigSigma0, refBigSigma0},
		{"bigSigma1", e.BigSigma1, refBigSigma1},
	}

	for _, fn := range unary {
		t.Run(fn.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				x := rng.Uint32()
				out, err := fn.fhe(TrivialWord(x))
				if err != nil {
					t.Fatalf("%s(%#x): %v", fn.name, x, err)
				}
				if got, _ := out.TrivialValue(); got != fn.ref(x) {
					t.Fatalf("%s(%#x) = %#x, want %#x", fn.name, x, got, fn.ref(x))
				}
			}
		})
	}

	ternary := []struct {
		name string
		fhe  func(Word, Word, Word) (Word, error)
		ref  func(uint32, uint32, uint32) uint32
	}{
		{"ch", e.Ch, refCh},
		{"maj", e.Maj, refMaj},
	}

	for _, fn := range ternary {
		t.Run(fn.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				x, y, z := rng.Uint32(), rng.Uint32(), rng.Uint32()
				out, err := fn.fhe(TrivialWord(x), TrivialWord(y), TrivialWord(z))
				if err != nil {
					t.Fatalf("%s: %v", fn.name, err)
				}
				if got, _ := out.TrivialValue(); got != fn.ref(x, y, z) {
					t.Fatalf("%s(%#x, %#x, %#x) = %#x, want %#x", fn.name, x, y, z, got, fn.ref(x, y, z))
				}
			}
		})
	}
}

func TestSigma0Encrypted(t *testing.T) {
	ctx := testFHE(t)

	x := uint32(0x6f2077ef)
	out, err := ctx.engine.Sigma0(ctx.client.EncryptWord(x))
	if err != nil {
		t.Fatalf("Sigma0: %v", err)
	}
	if got := ctx.client.DecryptWord(out); got != refSigma0(x) {
		t.Errorf("got %#x, want %#x", got, refSigma0(x))
	}
}

func TestChEncrypted(t *testing.T) {
	ctx := testFHE(t)

	x, y, z := uint32(0x510e527f), uint32(0x9b05688c), uint32(0x1f83d9ab)
	out, err := ctx.engine.Ch(
		ctx.client.EncryptWord(x),
		ctx.client.EncryptWord(y),
		ctx.client.EncryptWord(z),
	)
	if err != nil {
		t.Fatalf("Ch: %v", err)
	}
	if got := ctx.client.DecryptWord(out); got != refCh(x, y, z) {
		t.Errorf("got %#x, want %#x", got, refCh(x, y, z))
	}
}

func TestMajEncrypted(t *testing.T) {
	ctx := testFHE(t)

	x, y, z := uint32(0x6a09e667), uint32(0xbb67ae85), uint32(0x3c6ef372)
	out, err := ctx.engine.Maj(
		ctx.client.EncryptWord(x),
		ctx.client.EncryptWord(y),
		ctx.client.EncryptWord(z),
	)
	if err != nil {
		t.Fatalf("Maj: %v", err)
	}
	if got := ctx.client.DecryptWord(out); got != refMaj(x, y, z) {
		t.Errorf("got %#x, want %#x", got, refMaj(x, y, z))
	}
}
