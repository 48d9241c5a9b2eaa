// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

// rounds is the number of compression rounds per block.
const rounds = 64

// kTable holds the standard SHA-256 round constants.
var kTable = [rounds]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// ivTable holds the standard SHA-256 initial hash values.
var ivTable = [StateWords]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a, 0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// messageSchedule expands the 16 block words into the 64-word schedule:
// W[t] = sigma1(W[t-2]) + W[t-7] + sigma0(W[t-15]) + W[t-16]. The three
// chained adds each pay the sequential carry cost.
func (hs *Hasher) messageSchedule(block Block) ([rounds]Word, error) {
	var w [rounds]Word
	copy(w[:BlockWords], block[:])

	for t := BlockWords; t < rounds; t++ {
		s1, err := hs.engine.Sigma1(w[t-2])
		if err != nil {
			return w, err
		}
		sum, err := hs.engine.Add(s1, w[t-7])
		if err != nil {
			return w, err
		}
		s0, err := hs.engine.Sigma0(w[t-15])
		if err != nil {
			return w, err
		}
		sum, err = hs.engine.Add(sum, s0)
		if err != nil {
			return w, err
		}
		w[t], err = hs.engine.Add(sum, w[t-16])
		if err != nil {
			return w, err
		}
	}

	return w, nil
}

// Compress runs the 64-round compression function over one 512-bit block
// and applies the Davies-Meyer feed-forward, producing the next hash state.
// Rounds are strictly sequential: each round's registers feed the next.
func (hs *Hasher) Compress(state State, block Block) (State, error) {
	w, err := hs.messageSchedule(block)
	if err != nil {
		return State{}, err
	}

	a, b, c, d := state[0], state[1], state[2], state[3]
	e, f, g, h := state[4], state[5], state[6], state[7]

	for t := 0; t < rounds; t++ {
		// T1 = h + Sigma1(e) + ch(e,f,g) + K[t] + W[t]
		s1, err := hs.engine.BigSigma1(e)
		if err != nil {
			return State{}, err
		}
		t1, err := hs.engine.Add(h, s1)
		if err != nil {
			return State{}, err
		}
		ch, err := hs.engine.Ch(e, f, g)
		if err != nil {
			return State{}, err
		}
		t1, err = hs.engine.Add(t1, ch)
		if err != nil {
			return State{}, err
		}
		t1, err = hs.engine.Add(t1, hs.k[t])
		if err != nil {
			return State{}, err
		}
		t1, err = hs.engine.Add(t1, w[t])
		if err != nil {
			return State{}, err
		}

		// T2 = Sigma0(a) + maj(a,b,c)
		s0, err := hs.engine.BigSigma0(a)
		if err != nil {
			return State{}, err
		}
		maj, err := hs.engine.Maj(a, b, c)
		if err != nil {
			return State{}, err
		}
		t2, err := hs.engine.Add(s0, maj)
		if err != nil {
			return State{}, err
		}

		dt1, err := hs.engine.Add(d, t1)
		if err != nil {
			return State{}, err
		}
		at, err := hs.engine.Add(t1, t2)
		if err != nil {
			return State{}, err
		}

		h, g, f, e = g, f, e, dt1
		d, c, b, a = c, b, a, at
	}

	// Davies-Meyer feed-forward: add the pre-round state back in.
	post := State{a, b, c, d, e, f, g, h}
	var next State
	for i := 0; i < StateWords; i++ {
		next[i], err = hs.engine.Add(state[i], post[i])
		if err != nil {
			return State{}, err
		}
	}

	return next, nil
}
