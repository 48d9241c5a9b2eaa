// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sha256fhe

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/luxfi/fhe"
	"github.com/luxfi/lattice/v7/core/rlwe"
)

// WriteSecretKey serializes a secret key to a file readable only by the
// owner. Key distribution beyond a shared filesystem is out of scope.
func WriteSecretKey(path string, sk *fhe.SecretKey) error {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(sk.SKLWE); err != nil {
		return fmt.Errorf("encode SKLWE: %w", err)
	}
	if err := enc.Encode(sk.SKBR); err != nil {
		return fmt.Errorf("encode SKBR: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// ReadSecretKey deserializes a secret key written by WriteSecretKey.
func ReadSecretKey(path string) (*fhe.SecretKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	dec := gob.NewDecoder(bytes.NewReader(data))
	sklwe := new(rlwe.SecretKey)
	if err := dec.Decode(sklwe); err != nil {
		return nil, fmt.Errorf("decode SKLWE: %w", err)
	}
	skbr := new(rlwe.SecretKey)
	if err := dec.Decode(skbr); err != nil {
		return nil, fmt.Errorf("decode SKBR: %w", err)
	}

	return &fhe.SecretKey{SKLWE: sklwe, SKBR: skbr}, nil
}
