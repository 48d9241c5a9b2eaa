// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"encoding/hex"
	"fmt"

	"github.com/luxfi/fhe"
)

// Client pads, encrypts and decrypts on the client side of the protocol.
// It holds the secret key material; the compute party never sees it.
type Client struct {
	enc *fhe.Encryptor
	dec *fhe.Decryptor
}

// NewClient returns a client for the given parameter set and secret key.
func NewClient(params fhe.Parameters, sk *fhe.SecretKey) *Client {
	return &Client{
		enc: fhe.NewEncryptor(params, sk),
		dec: fhe.NewDecryptor(params, sk),
	}
}

// EncryptMessage pads a message to a multiple of 512 bits and encrypts
// every bit, producing the block sequence sent to the compute party.
func (c *Client) EncryptMessage(msg []byte) []Block {
	return c.encryptPadded(PadMessage(msg))
}

// EncryptBits encrypts an already padded bit sequence. The length must be
// a multiple of 512.
func (c *Client) EncryptBits(bits []bool) ([]Block, error) {
	if len(bits)%BlockBits != 0 {
		return nil, fmt.Errorf("sha256fhe: padded length must be a multiple of %d bits, got %d", BlockBits, len(bits))
	}
	return c.encryptPadded(bits), nil
}

func (c *Client) encryptPadded(bits []bool) []Block {
	blocks := make([]Block, len(bits)/BlockBits)
	for i := range bits {
		block := i / BlockBits
		word := i % BlockBits / WordBits
		bit := i % WordBits
		blocks[block][word][bit] = NewBit(c.enc.Encrypt(bits[i]))
	}
	return blocks
}

// EncryptWord encrypts a 32-bit value, most significant bit first.
func (c *Client) EncryptWord(v uint32) Word {
	var w Word
	for i := 0; i < WordBits; i++ {
		w[i] = NewBit(c.enc.Encrypt(v>>(WordBits-1-i)&1 == 1))
	}
	return w
}

// DecryptBit decrypts one bit. Trivial bits are public and decode directly.
func (c *Client) DecryptBit(b Bit) bool {
	if v, ok := b.TrivialValue(); ok {
		return v
	}
	return c.dec.Decrypt(b.ct)
}

// DecryptWord decrypts a 32-bit word.
func (c *Client) DecryptWord(w Word) uint32 {
	var v uint32
	for i := 0; i < WordBits; i++ {
		if c.DecryptBit(w[i]) {
			v |= 1 << (WordBits - 1 - i)
		}
	}
	return v
}

// DecryptDigest decrypts the final hash state into the 32-byte digest.
func (c *Client) DecryptDigest(st State) [DigestBytes]byte {
	var digest [DigestBytes]byte
	for i := 0; i < StateWords; i++ {
		v := c.DecryptWord(st[i])
		digest[i*4] = byte(v >> 24)
		digest[i*4+1] = byte(v >> 16)
		digest[i*4+2] = byte(v >> 8)
		digest[i*4+3] = byte(v)
	}
	return digest
}

// DigestHex renders a digest as the standard 64-character lowercase hex
// string.
func DigestHex(digest [DigestBytes]byte) string {
	return hex.EncodeToString(digest[:])
}
