// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

// Add computes a + b modulo 2^32 as a carry-lookahead circuit: two parallel
// 32-lane batches (propagate, generate), a strictly sequential carry chain,
// and a final parallel XOR. The carry chain is the critical path of the
// whole hash; sigma, ch and maj are wide and shallow by comparison.
func (e *Engine) Add(a, b Word) (Word, error) {
	propagate, err := e.Xor(a, b)
	if err != nil {
		return Word{}, err
	}
	generate, err := e.And(a, b)
	if err != nil {
		return Word{}, err
	}
	carry, err := e.resolveCarry(propagate, generate)
	if err != nil {
		return Word{}, err
	}
	return e.Xor(propagate, carry)
}

// resolveCarry computes the carry into each bit position with the recurrence
//
//	carry[i] = generate[i+1] OR (propagate[i+1] AND carry[i+1])
//
// walking from the least significant bit (index 31) upward. There is no
// carry into index 31. Each step depends on the previous, so this is 31
// sequential AND/OR pairs.
//
// TODO: a parallel-prefix (Kogge-Stone style) network would cut the depth
// to O(log n) at the cost of more total gates.
func (e *Engine) resolveCarry(propagate, generate Word) (Word, error) {
	var carry Word
	carry[WordBits-1] = TrivialBit(false)

	for i := WordBits - 2; i >= 0; i-- {
		pc, err := e.andBit(propagate[i+1], carry[i+1])
		if err != nil {
			return Word{}, err
		}
		c, err := e.orBit(generate[i+1], pc)
		if err != nil {
			return Word{}, err
		}
		carry[i] = c
	}

	return carry, nil
}
