// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/luxfi/fhe"
)

// fheContext caches one key set and evaluator across FHE-backed tests;
// bootstrap key generation is by far the slowest part of the suite.
type fheContext struct {
	params fhe.Parameters
	sk     *fhe.SecretKey
	client *Client
	engine *Engine
}

var (
	fheOnce sync.Once
	fheCtx  *fheContext
	fheErr  error
)

func testFHE(t *testing.T) *fheContext {
	t.Helper()
	fheOnce.Do(func() {
		params, err := fhe.NewParametersFromLiteral(fhe.PN10QP27)
		if err != nil {
			fheErr = err
			return
		}
		kgen := fhe.NewKeyGenerator(params)
		sk := kgen.GenSecretKey()
		bsk := kgen.GenBootstrapKey(sk)
		fheCtx = &fheContext{
			params: params,
			sk:     sk,
			client: NewClient(params, sk),
			engine: NewEngine(fhe.NewEvaluator(params, bsk), 0),
		}
	})
	if fheErr != nil {
		t.Fatalf("failed to create parameters: %v", fheErr)
	}
	return fheCtx
}

// trivialEngine evaluates circuits whose inputs are all trivial bits; such
// circuits never touch the evaluator, so gate behavior can be checked
// exhaustively without paying for bootstrapping.
func trivialEngine(workers int) *Engine {
	return NewEngine(nil, workers)
}

func TestTrivialWordRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x6a09e667, 0x80000000, 0xffffffff} {
		w := TrivialWord(v)
		got, ok := w.TrivialValue()
		if !ok {
			t.Fatalf("TrivialWord(%#x) lost its trivial marking", v)
		}
		if got != v {
			t.Errorf("TrivialWord(%#x) round-tripped to %#x", v, got)
		}
	}
}

func TestGateBatchesTrivial(t *testing.T) {
	e := trivialEngine(0)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		x, y := rng.Uint32(), rng.Uint32()
		a, b := TrivialWord(x), TrivialWord(y)

		xor, err := e.Xor(a, b)
		if err != nil {
			t.Fatalf("Xor: %v", err)
		}
		if got, _ := xor.TrivialValue(); got != x^y {
			t.Fatalf("Xor(%#x, %#x) = %#x, want %#x", x, y, got, x^y)
		}

		and, err := e.And(a, b)
		if err != nil {
			t.Fatalf("And: %v", err)
		}
		if got, _ := and.TrivialValue(); got != x&y {
			t.Fatalf("And(%#x, %#x) = %#x, want %#x", x, y, got, x&y)
		}

		not, err := e.Not(a)
		if err != nil {
			t.Fatalf("Not: %v", err)
		}
		if got, _ := not.TrivialValue(); got != ^x {
			t.Fatalf("Not(%#x) = %#x, want %#x", x, got, ^x)
		}
	}
}

// Batch output must not depend on how the lanes are partitioned or
// scheduled.
func TestBatchDeterministicAcrossWorkerCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x, y := rng.Uint32(), rng.Uint32()
	a, b := TrivialWord(x), TrivialWord(y)

	var want uint32
	for _, workers := range []int{1, 2, 3, 5, 8, 16, 32, 64} {
		e := trivialEngine(workers)
		out, err := e.Xor(a, b)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		got, ok := out.TrivialValue()
		if !ok {
			t.Fatalf("workers=%d: non-trivial output from trivial inputs", workers)
		}
		if workers == 1 {
			want = got
		} else if got != want {
			t.Fatalf("workers=%d: got %#x, want %#x", workers, got, want)
		}
	}
}

func TestNoEvaluator(t *testing.T) {
	ctx := testFHE(t)
	e := trivialEngine(0)

	secret := ctx.client.EncryptWord(0xdeadbeef)
	if _, err := e.Xor(secret, TrivialWord(1)); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if _, err := e.And(secret, secret); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if _, err := e.Not(secret); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestGateBatchesEncrypted(t *testing.T) {
	ctx := testFHE(t)

	x, y := uint32(0x5bef0c1d), uint32(0x35872723)
	a := ctx.client.EncryptWord(x)
	b := ctx.client.EncryptWord(y)

	t.Run("XOR", func(t *testing.T) {
		out, err := ctx.engine.Xor(a, b)
		if err != nil {
			t.Fatalf("Xor: %v", err)
		}
		if got := ctx.client.DecryptWord(out); got != x^y {
			t.Errorf("got %#x, want %#x", got, x^y)
		}
	})

	t.Run("AND", func(t *testing.T) {
		out, err := ctx.engine.And(a, b)
		if err != nil {
			t.Fatalf("And: %v", err)
		}
		if got := ctx.client.DecryptWord(out); got != x&y {
			t.Errorf("got %#x, want %#x", got, x&y)
		}
	})

	t.Run("NOT", func(t *testing.T) {
		out, err := ctx.engine.Not(a)
		if err != nil {
			t.Fatalf("Not: %v", err)
		}
		if got := ctx.client.DecryptWord(out); got != ^x {
			t.Errorf("got %#x, want %#x", got, ^x)
		}
	})

	// Trivial operands fold without reaching the evaluator, but the
	// result must still line up with the genuine gates.
	t.Run("MixedTrivial", func(t *testing.T) {
		out, err := ctx.engine.Xor(a, TrivialWord(0xffffffff))
		if err != nil {
			t.Fatalf("Xor: %v", err)
		}
		if got := ctx.client.DecryptWord(out); got != ^x {
			t.Errorf("x XOR ^0 = %#x, want %#x", got, ^x)
		}

		out, err = ctx.engine.And(a, TrivialWord(0x0000ffff))
		if err != nil {
			t.Fatalf("And: %v", err)
		}
		if got := ctx.client.DecryptWord(out); got != x&0x0000ffff {
			t.Errorf("x AND mask = %#x, want %#x", got, x&0x0000ffff)
		}
	})
}
