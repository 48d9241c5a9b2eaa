// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command sha256fhe-worker runs compute-party workers that hash encrypted
// messages. Workers hold the evaluation capability only; plaintext never
// appears on this side of the boundary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
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
		numWorkers  = flag.Int("workers", 2, "number of concurrent hash jobs")
		gateWorkers = flag.Int("gate-workers", sha256fhe.DefaultWorkers, "goroutines per gate batch")
		redisAddr   = flag.String("redis", "localhost:6379", "Redis address")
		redisDB     = flag.Int("redis-db", 0, "Redis database number")
		queueName   = flag.String("queue", "default", "queue name")
		storagePath = flag.String("storage", "/tmp/sha256fhe-storage", "payload storage path")
		keyPath     = flag.String("key", "", "secret key file (bootstrap key is derived from it)")
		metricsAddr = flag.String("metrics", ":9090", "metrics server address")
	)
	flag.Parse()

	if *keyPath == "" {
		return errors.New("-key is required")
	}

	log.Printf("sha256fhe worker starting...")
	log.Printf("  Workers: %d (x%d gate goroutines)", *numWorkers, *gateWorkers)
	log.Printf("  Redis: %s", *redisAddr)
	log.Printf("  Storage: %s", *storagePath)
	log.Printf("  Metrics: %s", *metricsAddr)

	q, err := queue.NewRedisQueue(queue.RedisConfig{
		Addr: *redisAddr,
		DB:   *redisDB,
	}, *queueName)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	defer q.Close()

	store, err := storage.NewFileStore(*storagePath)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	params, err := fhe.NewParametersFromLiteral(fhe.PN10QP27)
	if err != nil {
		return fmt.Errorf("create FHE parameters: %w", err)
	}

	// The bootstrap key is regenerated from the client's secret key; any
	// fresh bootstrap key for the same secret key evaluates the same
	// ciphertexts. Shipping a standalone evaluation key instead would
	// drop the secret key from this process; key distribution is out of
	// scope here.
	sk, err := sha256fhe.ReadSecretKey(*keyPath)
	if err != nil {
		return fmt.Errorf("read secret key: %w", err)
	}

	log.Printf("Generating bootstrap key...")
	kgen := fhe.NewKeyGenerator(params)
	bsk := kgen.GenBootstrapKey(sk)

	eval := fhe.NewEvaluator(params, bsk)
	hasher := sha256fhe.NewHasher(sha256fhe.NewEngine(eval, *gateWorkers))

	pool := &WorkerPool{
		numWorkers: *numWorkers,
		queue:      q,
		store:      store,
		hasher:     hasher,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "# HELP sha256fhe_jobs_total Total hash jobs\n")
		fmt.Fprintf(w, "# TYPE sha256fhe_jobs_total counter\n")
		fmt.Fprintf(w, "sha256fhe_jobs_total{status=\"success\"} %d\n", pool.successCount.Load())
		fmt.Fprintf(w, "sha256fhe_jobs_total{status=\"failure\"} %d\n", pool.failureCount.Load())
	})

	server := &http.Server{
		Addr:    *metricsAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("Metrics server starting on %s", *metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal: %s", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown error: %v", err)
	}

	if err := pool.Stop(); err != nil {
		log.Printf("Worker pool shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

// WorkerPool manages concurrent hash jobs. The hasher and its evaluation
// capability are read-only and shared by all workers.
type WorkerPool struct {
	numWorkers   int
	queue        queue.Queue
	store        storage.Store
	hasher       *sha256fhe.Hasher
	wg           sync.WaitGroup
	cancel       context.CancelFunc
	running      atomic.Bool
	successCount atomic.Int64
	failureCount atomic.Int64
}

// Start starts the worker pool.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.running.Load() {
		return errors.New("pool already running")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.running.Store(true)

	log.Printf("Starting %d workers", p.numWorkers)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	return nil
}

// Stop gracefully stops the worker pool.
func (p *WorkerPool) Stop() error {
	if !p.running.Load() {
		return nil
	}

	log.Println("Stopping worker pool...")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool stopped")
	case <-time.After(30 * time.Second):
		log.Println("Shutdown timeout exceeded")
		return errors.New("shutdown timeout")
	}

	p.running.Store(false)
	return nil
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log.Printf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
		}

		job, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Worker %d: failed to pop job: %v", id, err)
			time.Sleep(time.Second)
			continue
		}

		p.processJob(ctx, id, job)
	}
}

func (p *WorkerPool) processJob(ctx context.Context, workerID int, job *queue.Job) {
	log.Printf("Worker %d: hashing job %s (%d blocks)", workerID, job.ID, job.BlockCount)
	start := time.Now()

	job.Status = queue.StatusProcessing
	if err := p.queue.Update(ctx, job); err != nil {
		log.Printf("Worker %d: failed to update job status: %v", workerID, err)
	}

	if err := p.hashJob(ctx, job); err != nil {
		if uerr := queue.Fail(ctx, p.queue, job, err); uerr != nil {
			log.Printf("Worker %d: failed to record failure: %v", workerID, uerr)
		}
		p.failureCount.Add(1)
		log.Printf("Worker %d: job %s failed: %v", workerID, job.ID, err)
		return
	}

	job.Status = queue.StatusCompleted
	if err := p.queue.Update(ctx, job); err != nil {
		log.Printf("Worker %d: failed to update job result: %v", workerID, err)
	}

	p.successCount.Add(1)
	log.Printf("Worker %d: job %s completed in %s", workerID, job.ID, time.Since(start))
}

func (p *WorkerPool) hashJob(ctx context.Context, job *queue.Job) error {
	data, err := p.store.Get(ctx, storage.Handle(job.MessageHandle))
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	blocks, err := sha256fhe.DecodeBlocks(data)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if job.BlockCount != 0 && len(blocks) != job.BlockCount {
		return fmt.Errorf("block count mismatch: job says %d, payload has %d", job.BlockCount, len(blocks))
	}

	digest, err := p.hasher.Sum(blocks)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	digestData, err := digest.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	handle, err := p.store.Put(ctx, digestData)
	if err != nil {
		return fmt.Errorf("store digest: %w", err)
	}

	job.DigestHandle = string(handle)
	return nil
}
