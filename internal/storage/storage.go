// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package storage holds the encrypted payloads of hash jobs: serialized
// message block sequences going in, serialized digests coming out. Payloads
// are content-addressed, so resubmitting the same ciphertext bytes is free.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Common errors.
var (
	ErrNotFound    = errors.New("payload not found")
	ErrStorageFull = errors.New("storage capacity exceeded")
)

// Handle uniquely identifies a stored payload.
type Handle string

// ComputeHandle derives the handle for a payload. Plain SHA-256 over the
// ciphertext bytes; nothing homomorphic about it.
func ComputeHandle(data []byte) Handle {
	sum := sha256.Sum256(data)
	return Handle(hex.EncodeToString(sum[:]))
}

// Store is the interface both the submitting client and the compute worker
// use to exchange payloads.
type Store interface {
	// Put saves a payload and returns its handle.
	Put(ctx context.Context, data []byte) (Handle, error)
	// Get retrieves a payload by handle.
	Get(ctx context.Context, handle Handle) ([]byte, error)
	// Delete removes a payload.
	Delete(ctx context.Context, handle Handle) error
	// Has reports whether a payload exists.
	Has(ctx context.Context, handle Handle) (bool, error)
	// Close releases the store.
	Close() error
}

// MemoryStore keeps payloads in memory, bounded by a byte capacity.
type MemoryStore struct {
	mu       sync.RWMutex
	payloads map[Handle][]byte
	capacity int64
	size     int64
}

// NewMemoryStore creates an in-memory store with the given capacity.
func NewMemoryStore(capacityMB int64) *MemoryStore {
	return &MemoryStore{
		payloads: make(map[Handle][]byte),
		capacity: capacityMB * 1024 * 1024,
	}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := ComputeHandle(data)
	if _, ok := s.payloads[handle]; ok {
		return handle, nil
	}

	if s.size+int64(len(data)) > s.capacity {
		return "", ErrStorageFull
	}

	s.payloads[handle] = append([]byte(nil), data...)
	s.size += int64(len(data))
	return handle, nil
}

func (s *MemoryStore) Get(ctx context.Context, handle Handle) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.payloads[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.payloads[handle]
	if !ok {
		return ErrNotFound
	}
	s.size -= int64(len(data))
	delete(s.payloads, handle)
	return nil
}

func (s *MemoryStore) Has(ctx context.Context, handle Handle) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.payloads[handle]
	return ok, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads = nil
	s.size = 0
	return nil
}

// FileStore keeps payloads on disk, sharded by handle prefix. Serialized
// block sequences run to hundreds of megabytes, so this is the backend the
// worker and submitter actually share.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(handle Handle) string {
	h := string(handle)
	if len(h) < 4 {
		return filepath.Join(s.baseDir, h)
	}
	// Shard by the first two hex chars to keep directories small.
	return filepath.Join(s.baseDir, h[:2], h)
}

func (s *FileStore) Put(ctx context.Context, data []byte) (Handle, error) {
	handle := ComputeHandle(data)
	path := s.path(handle)

	if _, err := os.Stat(path); err == nil {
		return handle, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit payload: %w", err)
	}

	return handle, nil
}

func (s *FileStore) Get(ctx context.Context, handle Handle) ([]byte, error) {
	data, err := os.ReadFile(s.path(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func (s *FileStore) Delete(ctx context.Context, handle Handle) error {
	err := os.Remove(s.path(handle))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (s *FileStore) Has(ctx context.Context, handle Handle) (bool, error) {
	_, err := os.Stat(s.path(handle))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *FileStore) Close() error {
	return nil
}
