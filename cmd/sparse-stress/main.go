// Command sparse-stress hammers a single sparse.Map from concurrent
// reader and writer goroutines and prints a throughput/memory report.
// Readers verify every value they observe against the payload derived
// from its key, so a torn read or a broken sparse/dense invariant shows
// up as a hard failure rather than a silent corruption.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/plus3/sparsekit/sparse"
	"golang.org/x/sync/errgroup"
)

// payload derives a verifiable value from its key.
func payload(k uint64) uint64 {
	return k*2654435761 + 1
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "How long the stress run lasts.")
	keySpace := flag.Int("keys", 4096, "Size of the key space the workers pick from.")
	readers := flag.Int("readers", runtime.GOMAXPROCS(0), "Number of reader goroutines.")
	writers := flag.Int("writers", 2, "Number of writer goroutines.")
	flag.Parse()

	log.Printf("Starting sparse-stress: %d keys, %d readers, %d writers, %s",
		*keySpace, *readers, *writers, *duration)

	m := sparse.New[uint64, uint64](*keySpace)
	for k := uint64(0); k < uint64(*keySpace); k++ {
		m.Insert(k, payload(k))
	}

	report := &Report{
		Duration: *duration,
		Keys:     *keySpace,
		Readers:  *readers,
		Writers:  *writers,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var readOps, readMisses, writeOps, cellStores, corrupt atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()

	for r := 0; r < *readers; r++ {
		seed := int64(r + 1)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				k := uint64(rng.Intn(*keySpace))
				v, err := m.Value(k)
				readOps.Add(1)
				if err != nil {
					readMisses.Add(1) // erased by a writer, expected
					continue
				}
				if v != payload(k) {
					corrupt.Add(1)
					return fmt.Errorf("key %d: read %d, want %d", k, v, payload(k))
				}
			}
			return nil
		})
	}

	for w := 0; w < *writers; w++ {
		seed := int64(1000 + w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				k := uint64(rng.Intn(*keySpace))
				switch rng.Intn(3) {
				case 0:
					m.Erase(k)
					m.Insert(k, payload(k))
					writeOps.Add(2)
				case 1:
					m.Insert(k, payload(k))
					writeOps.Add(1)
				case 2:
					// Payload refresh through the cell, bypassing the
					// container lock.
					if cell, err := m.Get(k); err == nil {
						cell.Store(payload(k))
						cellStores.Add(1)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("stress run failed: %v", err)
	}

	report.TotalTime = time.Since(start)
	report.ReadOps = readOps.Load()
	report.ReadMisses = readMisses.Load()
	report.WriteOps = writeOps.Load()
	report.CellStores = cellStores.Load()
	report.Corruptions = corrupt.Load()
	report.FinalLen = m.Len()
	report.FinalCap = m.Cap()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Stress run finished.")

	fmt.Println("\n--- Sparse Map Stress Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}
