// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/fhe"
)

// DefaultWorkers is the default fan-out degree for gate batches.
// Gate cost dwarfs goroutine dispatch, so a small fixed pool per batch
// is enough; the value is a performance knob, not a correctness one.
const DefaultWorkers = 8

// ErrNoEvaluator is returned when a genuine gate evaluation is requested
// from an engine constructed without an evaluation capability. Trivial-only
// circuits never trip this.
var ErrNoEvaluator = errors.New("sha256fhe: engine has no gate evaluator")

// Engine evaluates homomorphic boolean gates over 32-bit encrypted words.
// The 32 bit positions of a word are independent, so each batch is
// partitioned into contiguous chunks across fresh goroutines and joined
// before returning. Results land in fixed indexed slots, so output order
// does not depend on scheduling.
//
// The evaluator is read-only and safely shared by all lanes. An Engine
// constructed with a nil evaluator can still operate on trivial bits,
// which never reach the evaluator.
type Engine struct {
	eval    *fhe.Evaluator
	workers int
}

// NewEngine returns an engine backed by the given gate evaluator.
// workers <= 0 selects DefaultWorkers; values above WordBits are clamped.
func NewEngine(eval *fhe.Evaluator, workers int) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > WordBits {
		workers = WordBits
	}
	return &Engine{eval: eval, workers: workers}
}

// Workers returns the fan-out degree used for gate batches.
func (e *Engine) Workers() int {
	return e.workers
}

// forEachLane runs f over n independent lanes, chunked across fresh
// goroutines, and joins before returning. f must write its result to a
// slot owned exclusively by its lane. The first gate error aborts the
// batch; no partial results are returned to callers.
func (e *Engine) forEachLane(n int, f func(lane int) error) error {
	workers := e.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if err := f(i); err != nil {
					errCh <- err
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// Xor computes the bitwise XOR of two words, all 32 lanes in parallel.
func (e *Engine) Xor(a, b Word) (Word, error) {
	var out Word
	err := e.forEachLane(WordBits, func(i int) error {
		bit, err := e.xorBit(a[i], b[i])
		if err != nil {
			return err
		}
		out[i] = bit
		return nil
	})
	if err != nil {
		return Word{}, fmt.Errorf("xor batch: %w", err)
	}
	return out, nil
}

// And computes the bitwise AND of two words, all 32 lanes in parallel.
func (e *Engine) And(a, b Word) (Word, error) {
	var out Word
	err := e.forEachLane(WordBits, func(i int) error {
		bit, err := e.andBit(a[i], b[i])
		if err != nil {
			return err
		}
		out[i] = bit
		return nil
	})
	if err != nil {
		return Word{}, fmt.Errorf("and batch: %w", err)
	}
	return out, nil
}

// Not computes the bitwise complement of a word. Negation is noise-free in
// the underlying scheme, but the lanes are fanned out the same way as the
// other batches for uniformity.
func (e *Engine) Not(a Word) (Word, error) {
	var out Word
	err := e.forEachLane(WordBits, func(i int) error {
		bit, err := e.notBit(a[i])
		if err != nil {
			return err
		}
		out[i] = bit
		return nil
	})
	if err != nil {
		return Word{}, fmt.Errorf("not batch: %w", err)
	}
	return out, nil
}

// xorBit evaluates one XOR gate. Trivial operands fold for free:
// x XOR 0 = x, x XOR 1 = NOT x.
func (e *Engine) xorBit(a, b Bit) (Bit, error) {
	if a.IsTrivial() && b.IsTrivial() {
		return TrivialBit(a.value != b.value), nil
	}
	if e.eval == nil {
		return Bit{}, ErrNoEvaluator
	}
	if a.IsTrivial() {
		a, b = b, a
	}
	if b.IsTrivial() {
		if b.value {
			return Bit{ct: e.eval.NOT(a.ct)}, nil
		}
		return Bit{ct: e.eval.Copy(a.ct)}, nil
	}
	ct, err := e.eval.XOR(a.ct, b.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("xor gate: %w", err)
	}
	return Bit{ct: ct}, nil
}

// andBit evaluates one AND gate. Trivial operands fold for free:
// x AND 0 = 0, x AND 1 = x.
func (e *Engine) andBit(a, b Bit) (Bit, error) {
	if a.IsTrivial() && b.IsTrivial() {
		return TrivialBit(a.value && b.value), nil
	}
	if a.IsTrivial() {
		a, b = b, a
	}
	if b.IsTrivial() && !b.value {
		return TrivialBit(false), nil
	}
	if e.eval == nil {
		return Bit{}, ErrNoEvaluator
	}
	if b.IsTrivial() {
		return Bit{ct: e.eval.Copy(a.ct)}, nil
	}
	ct, err := e.eval.AND(a.ct, b.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("and gate: %w", err)
	}
	return Bit{ct: ct}, nil
}

// orBit evaluates one OR gate. Used by the carry chain.
func (e *Engine) orBit(a, b Bit) (Bit, error) {
	if a.IsTrivial() && b.IsTrivial() {
		return TrivialBit(a.value || b.value), nil
	}
	if a.IsTrivial() {
		a, b = b, a
	}
	if b.IsTrivial() && b.value {
		return TrivialBit(true), nil
	}
	if e.eval == nil {
		return Bit{}, ErrNoEvaluator
	}
	if b.IsTrivial() {
		return Bit{ct: e.eval.Copy(a.ct)}, nil
	}
	ct, err := e.eval.OR(a.ct, b.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("or gate: %w", err)
	}
	return Bit{ct: ct}, nil
}

// notBit negates one bit. Negation never bootstraps.
func (e *Engine) notBit(a Bit) (Bit, error) {
	if a.IsTrivial() {
		return TrivialBit(!a.value), nil
	}
	if e.eval == nil {
		return Bit{}, ErrNoEvaluator
	}
	return Bit{ct: e.eval.NOT(a.ct)}, nil
}
