// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command sha256fhe hashes a message under homomorphic encryption.
//
// By default it runs the whole pipeline in one process: generate keys, pad
// and encrypt the message, evaluate the SHA-256 circuit over the
// ciphertexts, decrypt, and print the hex digest. With -redis it instead
// plays the client role against a sha256fhe-worker fleet: it stores the
// encrypted message, submits a hash job, and polls for the encrypted
// digest.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/luxfi/fhe"
	"github.com/luxfi/sha256fhe"
	"github.com/luxfi/sha256fhe/internal/queue"
	"github.com/luxfi/sha256fhe/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		message     = flag.String("message", "hello world", "message to hash")
		gateWorkers = flag.Int("gate-workers", sha256fhe.DefaultWorkers, "goroutines per gate batch")
		redisAddr   = flag.String("redis", "", "Redis address; empty runs the whole pipeline locally")
		redisDB     = flag.Int("redis-db", 0, "Redis database number")
		queueName   = flag.String("queue", "default", "queue name")
		storagePath = flag.String("storage", "/tmp/sha256fhe-storage", "payload storage path (shared with workers)")
		keyPath     = flag.String("key", "/tmp/sha256fhe.key", "secret key file (shared with workers)")
		timeout     = flag.Duration("timeout", 2*time.Hour, "time to wait for a remote digest")
	)
	flag.Parse()

	params, err := fhe.NewParametersFromLiteral(fhe.PN10QP27)
	if err != nil {
		return fmt.Errorf("create FHE parameters: %w", err)
	}

	if *redisAddr == "" {
		return runLocal(params, *message, *gateWorkers)
	}
	return submit(params, *message, *redisAddr, *redisDB, *queueName, *storagePath, *keyPath, *timeout)
}

// runLocal mirrors the plain protocol on a single machine: the client pads,
// encrypts and later decrypts; the evaluator side sees ciphertexts only.
func runLocal(params fhe.Parameters, message string, gateWorkers int) error {
	log.Printf("Generating keys...")
	kgen := fhe.NewKeyGenerator(params)
	sk := kgen.GenSecretKey()
	bsk := kgen.GenBootstrapKey(sk)

	// Client pads and encrypts.
	client := sha256fhe.NewClient(params, sk)
	start := time.Now()
	blocks := client.EncryptMessage([]byte(message))
	log.Printf("Encrypted %d block(s) in %s", len(blocks), time.Since(start))

	// Server computes over the encrypted blocks.
	eval := fhe.NewEvaluator(params, bsk)
	hasher := sha256fhe.NewHasher(sha256fhe.NewEngine(eval, gateWorkers))

	start = time.Now()
	digest, err := hasher.Sum(blocks)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	log.Printf("Evaluated SHA-256 circuit in %s", time.Since(start))

	// Client decrypts the digest.
	fmt.Println(sha256fhe.DigestHex(client.DecryptDigest(digest)))
	return nil
}

// submit plays the client against a worker fleet reachable through Redis
// and a shared payload store.
func submit(params fhe.Parameters, message, redisAddr string, redisDB int, queueName, storagePath, keyPath string, timeout time.Duration) error {
	sk, err := loadOrCreateKey(params, keyPath)
	if err != nil {
		return err
	}
	client := sha256fhe.NewClient(params, sk)

	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	q, err := queue.NewRedisQueue(queue.RedisConfig{
		Addr: redisAddr,
		DB:   redisDB,
	}, queueName)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Printf("Encrypting message...")
	blocks := client.EncryptMessage([]byte(message))
	payload, err := sha256fhe.EncodeBlocks(blocks)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	handle, err := store.Put(ctx, payload)
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	job := &queue.Job{
		ID:            newJobID(),
		MessageHandle: string(handle),
		BlockCount:    len(blocks),
	}
	if err := q.Push(ctx, job); err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	log.Printf("Submitted job %s (%d blocks)", job.ID, len(blocks))

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for job %s: %w", job.ID, ctx.Err())
		case <-ticker.C:
		}

		current, err := q.Get(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("poll job: %w", err)
		}

		switch current.Status {
		case queue.StatusCompleted:
			return printDigest(ctx, client, store, current)
		case queue.StatusFailed:
			return fmt.Errorf("job %s failed: %s", job.ID, current.Error)
		}
	}
}

func printDigest(ctx context.Context, client *sha256fhe.Client, store storage.Store, job *queue.Job) error {
	data, err := store.Get(ctx, storage.Handle(job.DigestHandle))
	if err != nil {
		return fmt.Errorf("load digest: %w", err)
	}

	var digest sha256fhe.State
	if err := digest.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decode digest: %w", err)
	}

	fmt.Println(sha256fhe.DigestHex(client.DecryptDigest(digest)))
	return nil
}

func loadOrCreateKey(params fhe.Parameters, path string) (*fhe.SecretKey, error) {
	sk, err := sha256fhe.ReadSecretKey(path)
	if err == nil {
		log.Printf("Loaded secret key from %s", path)
		return sk, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read secret key: %w", err)
	}

	kgen := fhe.NewKeyGenerator(params)
	sk = kgen.GenSecretKey()
	if err := sha256fhe.WriteSecretKey(path, sk); err != nil {
		return nil, fmt.Errorf("write secret key: %w", err)
	}
	log.Printf("Wrote new secret key to %s", path)
	return sk, nil
}

func newJobID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
