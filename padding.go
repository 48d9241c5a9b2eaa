// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

// PadMessage applies standard SHA-256 padding to a message and returns its
// bits most-significant-first: the message bits, a single 1 bit, zero bits,
// and the 64-bit big-endian message bit length, for a total that is a
// multiple of 512. Padding happens client-side in plaintext, before
// encryption.
func PadMessage(msg []byte) []bool {
	msgBits := len(msg) * 8

	// One block beyond the message usually suffices; the append below
	// grows it when the length field does not fit.
	bits := make([]bool, 0, msgBits+BlockBits)

	for _, b := range msg {
		for i := 7; i >= 0; i-- {
			bits = append(bits, b>>i&1 == 1)
		}
	}

	bits = append(bits, true)
	for len(bits)%BlockBits != BlockBits-64 {
		bits = append(bits, false)
	}

	length := uint64(msgBits)
	for i := 63; i >= 0; i-- {
		bits = append(bits, length>>i&1 == 1)
	}

	return bits
}
