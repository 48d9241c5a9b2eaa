// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// SHA-256 round functions as boolean-gate compositions. Rotations and
// shifts are pure bit relabeling and cost no gates; everything else routes
// through the engine's parallel batches.

package sha256fhe

// RotateRight rotates a word right by n positions: the bit at index i
// moves to index (i+n) mod 32. No gates are evaluated.
func RotateRight(x Word, n int) Word {
	var out Word
	for i := 0; i < WordBits; i++ {
		out[(i+n)%WordBits] = x[i]
	}
	return out
}

// ShiftRight shifts a word right by n positions, introducing n trivial
// zero bits at the most significant end. No gates are evaluated.
func ShiftRight(x Word, n int) Word {
	var out Word // unassigned lanes are trivial zeros
	for i := 0; i < WordBits-n; i++ {
		out[i+n] = x[i]
	}
	return out
}

// Sigma0 computes rotr(x,7) XOR rotr(x,18) XOR shr(x,3).
// Two batches of 32 parallel gates.
func (e *Engine) Sigma0(x Word) (Word, error) {
	t, err := e.Xor(RotateRight(x, 7), RotateRight(x, 18))
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t, ShiftRight(x, 3))
}

// Sigma1 computes rotr(x,17) XOR rotr(x,19) XOR shr(x,10).
func (e *Engine) Sigma1(x Word) (Word, error) {
	t, err := e.Xor(RotateRight(x, 17), RotateRight(x, 19))
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t, ShiftRight(x, 10))
}

// BigSigma0 computes rotr(x,2) XOR rotr(x,13) XOR rotr(x,22).
func (e *Engine) BigSigma0(x Word) (Word, error) {
	t, err := e.Xor(RotateRight(x, 2), RotateRight(x, 13))
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t, RotateRight(x, 22))
}

// BigSigma1 computes rotr(x,6) XOR rotr(x,11) XOR rotr(x,25).
func (e *Engine) BigSigma1(x Word) (Word, error) {
	t, err := e.Xor(RotateRight(x, 6), RotateRight(x, 11))
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t, RotateRight(x, 25))
}

// Ch computes the choose function (x AND y) XOR ((NOT x) AND z).
// Four batches of 32 parallel gates.
func (e *Engine) Ch(x, y, z Word) (Word, error) {
	t1, err := e.And(x, y)
	if err != nil {
		return Word{}, err
	}
	nx, err := e.Not(x)
	if err != nil {
		return Word{}, err
	}
	t2, err := e.And(nx, z)
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t1, t2)
}

// Maj computes the majority function (x AND y) XOR (x AND z) XOR (y AND z).
// Five batches of 32 parallel gates.
func (e *Engine) Maj(x, y, z Word) (Word, error) {
	t1, err := e.And(x, y)
	if err != nil {
		return Word{}, err
	}
	t2, err := e.And(x, z)
	if err != nil {
		return Word{}, err
	}
	t3, err := e.And(y, z)
	if err != nil {
		return Word{}, err
	}
	t, err := e.Xor(t1, t2)
	if err != nil {
		return Word{}, err
	}
	return e.Xor(t, t3)
}
