package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"chirp/client"

	"github.com/brianvoe/gofakeit/v7"
)

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	RateLimited     int64
	TotalDuration   int64
}

type Config struct {
	BaseURL        string
	Workers        int
	Duration       int
	RequestsPerSec int
	WriteRatio     float64
}

var (
	stats Stats
)

func main() {
	config := parseFlags()

	log.Printf("Starting load generator with config: %+v", config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	requestsPerWorker := config.RequestsPerSec / config.Workers
	if requestsPerWorker == 0 {
		requestsPerWorker = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		api, err := signUp(ctx, config.BaseURL, i)
		if err != nil {
			log.Fatalf("Worker %d failed to sign up: %v", i, err)
		}
		wg.Add(1)
		go worker(ctx, i, api, config, requestsPerWorker, &wg)
	}

	go printStats(ctx)

	if config.Duration > 0 {
		go func() {
			select {
			case <-time.After(time.Duration(config.Duration) * time.Second):
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		select {
		case <-sigChan:
			log.Println("Received interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	wg.Wait()
	printFinalStats()
}

func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.BaseURL, "url", "http://localhost:8080", "Chirp server URL")
	flag.IntVar(&config.Workers, "workers", 10, "Number of concurrent workers, one account each")
	flag.IntVar(&config.Duration, "duration", 60, "Test duration in seconds (0 for infinite)")
	flag.IntVar(&config.RequestsPerSec, "rps", 100, "Requests per second target")
	flag.Float64Var(&config.WriteRatio, "write-ratio", 0.1, "Share of requests that create posts")

	flag.Parse()
	if config.Workers < 1 {
		config.Workers = 1
	}
	return config
}

func signUp(ctx context.Context, baseURL string, worker int) (*client.HTTP, error) {
	api := client.NewHTTP(baseURL, nil)
	username := fmt.Sprintf("loadgen_%d_%s", worker, gofakeit.LetterN(8))
	token, err := api.Register(ctx, username, gofakeit.Password(true, true, true, false, false, 12))
	if err != nil {
		return nil, err
	}
	return api.WithToken(token), nil
}

func worker(ctx context.Context, id int, api *client.HTTP, config Config, requestsPerSec int, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(requestsPerSec))
	defer ticker.Stop()

	posted := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping, created %d posts", id, posted)
			return
		case <-ticker.C:
			start := time.Now()
			var err error
			if rand.Float64() < config.WriteRatio {
				err = api.Create(ctx, gofakeit.Emoji())
				if err == nil {
					posted++
				}
			} else {
				_, err = api.GetAll(ctx)
			}
			record(time.Since(start), err)
		}
	}
}

func record(duration time.Duration, err error) {
	atomic.AddInt64(&stats.TotalRequests, 1)
	atomic.AddInt64(&stats.TotalDuration, duration.Milliseconds())

	var cerr *client.Error
	switch {
	case err == nil:
		atomic.AddInt64(&stats.SuccessRequests, 1)
	case errors.As(err, &cerr) && cerr.HTTPStatus == http.StatusTooManyRequests:
		atomic.AddInt64(&stats.RateLimited, 1)
	default:
		atomic.AddInt64(&stats.FailedRequests, 1)
	}
}

func printStats(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total, success, failed, limited, avgLatency, successRate := snapshot()
			log.Printf("[STATS] Total: %d | Success: %d | Failed: %d | Rate limited: %d | Success Rate: %.2f%% | Avg Latency: %dms",
				total, success, failed, limited, successRate, avgLatency)
		}
	}
}

func snapshot() (total, success, failed, limited, avgLatency int64, successRate float64) {
	total = atomic.LoadInt64(&stats.TotalRequests)
	success = atomic.LoadInt64(&stats.SuccessRequests)
	failed = atomic.LoadInt64(&stats.FailedRequests)
	limited = atomic.LoadInt64(&stats.RateLimited)
	totalDuration := atomic.LoadInt64(&stats.TotalDuration)
	if total > 0 {
		avgLatency = totalDuration / total
		successRate = float64(success) / float64(total) * 100
	}
	return
}

func printFinalStats() {
	total, success, failed, limited, avgLatency, successRate := snapshot()

	log.Println("========== FINAL STATISTICS ==========")
	log.Printf("Total Requests:     %d", total)
	log.Printf("Successful:         %d", success)
	log.Printf("Failed:             %d", failed)
	log.Printf("Rate limited:       %d", limited)
	log.Printf("Success Rate:       %.2f%%", successRate)
	log.Printf("Average Latency:    %dms", avgLatency)
	log.Println("======================================")
}
