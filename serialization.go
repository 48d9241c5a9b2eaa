// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Wire format for the compute boundary. Ciphertext bits are gob-encoded
// with a length prefix; trivial bits travel as a single tag byte since
// their value is public anyway. Decoding validates the fixed 32-bit word
// and 16-word block shapes before any gate ever runs.

package sha256fhe

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/fhe"
	"github.com/luxfi/lattice/v7/core/rlwe"
)

// Bit wire tags.
const (
	tagTrivialFalse uint8 = 0
	tagTrivialTrue  uint8 = 1
	tagCiphertext   uint8 = 2
)

// Shape errors.
var (
	ErrMalformedWord  = errors.New("sha256fhe: malformed encrypted word")
	ErrMalformedBlock = errors.New("sha256fhe: malformed encrypted block")
	ErrTrailingData   = errors.New("sha256fhe: trailing data after payload")
)

func encodeBit(w io.Writer, b Bit) error {
	if v, ok := b.TrivialValue(); ok {
		tag := tagTrivialFalse
		if v {
			tag = tagTrivialTrue
		}
		return binary.Write(w, binary.LittleEndian, tag)
	}

	if err := binary.Write(w, binary.LittleEndian, tagCiphertext); err != nil {
		return err
	}

	var ctBuf bytes.Buffer
	if err := gob.NewEncoder(&ctBuf).Encode(b.ct.Ciphertext); err != nil {
		return fmt.Errorf("encode ciphertext: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(ctBuf.Len())); err != nil {
		return err
	}
	_, err := w.Write(ctBuf.Bytes())
	return err
}

func decodeBit(r *bytes.Reader) (Bit, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return Bit{}, err
	}

	switch tag {
	case tagTrivialFalse:
		return TrivialBit(false), nil
	case tagTrivialTrue:
		return TrivialBit(true), nil
	case tagCiphertext:
		var ctLen uint32
		if err := binary.Read(r, binary.LittleEndian, &ctLen); err != nil {
			return Bit{}, err
		}
		ctData := make([]byte, ctLen)
		if _, err := io.ReadFull(r, ctData); err != nil {
			return Bit{}, err
		}
		ct := new(rlwe.Ciphertext)
		if err := gob.NewDecoder(bytes.NewReader(ctData)).Decode(ct); err != nil {
			return Bit{}, fmt.Errorf("decode ciphertext: %w", err)
		}
		return NewBit(&fhe.Ciphertext{Ciphertext: ct}), nil
	default:
		return Bit{}, fmt.Errorf("sha256fhe: unknown bit tag %d", tag)
	}
}

func encodeWord(w io.Writer, word Word) error {
	for i, b := range word {
		if err := encodeBit(w, b); err != nil {
			return fmt.Errorf("bit %d: %w", i, err)
		}
	}
	return nil
}

func decodeWord(r *bytes.Reader) (Word, error) {
	var word Word
	for i := 0; i < WordBits; i++ {
		b, err := decodeBit(r)
		if err != nil {
			return Word{}, fmt.Errorf("%w: bit %d: %v", ErrMalformedWord, i, err)
		}
		word[i] = b
	}
	return word, nil
}

// MarshalBinary serializes a word to binary format.
func (w Word) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeWord(&buf, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes a word, insisting on exactly 32 bits.
func (w *Word) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	word, err := decodeWord(r)
	if err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrTrailingData
	}
	*w = word
	return nil
}

// MarshalBinary serializes a block to binary format.
func (b Block) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for i, word := range b {
		if err := encodeWord(&buf, word); err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes a block, insisting on exactly 16 words.
func (b *Block) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	block, err := decodeBlock(r)
	if err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrTrailingData
	}
	*b = block
	return nil
}

func decodeBlock(r *bytes.Reader) (Block, error) {
	var block Block
	for i := 0; i < BlockWords; i++ {
		word, err := decodeWord(r)
		if err != nil {
			return Block{}, fmt.Errorf("%w: word %d: %v", ErrMalformedBlock, i, err)
		}
		block[i] = word
	}
	return block, nil
}

// MarshalBinary serializes a hash state (or digest) to binary format.
func (st State) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for i, word := range st {
		if err := encodeWord(&buf, word); err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes a hash state, insisting on exactly 8 words.
func (st *State) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var state State
	for i := 0; i < StateWords; i++ {
		word, err := decodeWord(r)
		if err != nil {
			return err
		}
		state[i] = word
	}
	if r.Len() != 0 {
		return ErrTrailingData
	}
	*st = state
	return nil
}

// EncodeBlocks serializes a padded encrypted message for transmission to
// the compute party.
func EncodeBlocks(blocks []Block) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(blocks))); err != nil {
		return nil, err
	}
	for i, block := range blocks {
		for j, word := range block {
			if err := encodeWord(&buf, word); err != nil {
				return nil, fmt.Errorf("block %d word %d: %w", i, j, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// DecodeBlocks deserializes a padded encrypted message, validating the
// block count and shape before returning.
func DecodeBlocks(data []byte) ([]Block, error) {
	r := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read block count: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyMessage
	}

	blocks := make([]Block, count)
	for i := range blocks {
		block, err := decodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks[i] = block
	}
	if r.Len() != 0 {
		return nil, ErrTrailingData
	}

	return blocks, nil
}
