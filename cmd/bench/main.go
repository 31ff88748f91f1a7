// Command bench drives a Kernel with a synthetic workload of sequential
// key inserts followed by random point lookups, reporting throughput and
// pool statistics. Run: go run ./cmd/bench -keys 100000 -pool 256
//
// Grounded on cmd/seed's "build a small pipeline, run it, print a summary"
// shape, stripped of the SQL/heap-file/WAL layers this module doesn't have.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"dbkernel"
	"dbkernel/pkg/disk"
	"dbkernel/pkg/logging"
	"dbkernel/pkg/page"
)

func main() {
	var (
		dbFile    = flag.String("db", "bench.db", "backing file for page storage")
		numKeys   = flag.Int("keys", 100_000, "number of keys to insert")
		poolSize  = flag.Int("pool", 256, "buffer pool frame count")
		replacerK = flag.Int("k", 2, "LRU-K replacer K")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	if err := logging.Init(logging.Config{Level: level, Format: "text"}); err != nil {
		log.Fatalf("bench: init logging: %v", err)
	}
	defer logging.Close()
	logger := logging.Get()

	if err := os.Remove(*dbFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("bench: clear previous db file: %v", err)
	}

	k, err := dbkernel.Open(dbkernel.Config{
		DBFile:    *dbFile,
		PoolSize:  *poolSize,
		ReplacerK: *replacerK,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("bench: open kernel: %v", err)
	}
	defer k.Close()

	tree := dbkernel.OpenTree[int64](k, "bench", page.Int64Codec[int64]{})

	fmt.Printf("inserting %s keys into pool of %s frames...\n", humanize.Comma(int64(*numKeys)), humanize.Comma(int64(*poolSize)))
	start := time.Now()
	for i := 0; i < *numKeys; i++ {
		if !tree.Insert(int64(i), page.RID{PageID: int32(i), SlotID: 0}) {
			log.Fatalf("bench: insert %d failed (pool exhausted or duplicate)", i)
		}
	}
	insertElapsed := time.Since(start)
	fmt.Printf("inserted %s keys in %s (%s keys/sec)\n",
		humanize.Comma(int64(*numKeys)), insertElapsed, humanize.Comma(int64(float64(*numKeys)/insertElapsed.Seconds())))

	fmt.Println("running random point lookups...")
	start = time.Now()
	hits := 0
	for i := 0; i < *numKeys; i++ {
		key := int64(rand.Intn(*numKeys))
		if _, ok := tree.GetValue(key); ok {
			hits++
		}
	}
	lookupElapsed := time.Since(start)
	fmt.Printf("%s lookups in %s (%s hits, %s lookups/sec)\n",
		humanize.Comma(int64(*numKeys)), lookupElapsed, humanize.Comma(int64(hits)),
		humanize.Comma(int64(float64(*numKeys)/lookupElapsed.Seconds())))

	fmt.Printf("pool size: %s frames (%s)\n", humanize.Comma(int64(k.Pool.Size())), humanize.Bytes(uint64(k.Pool.Size())*disk.PageSize))
}
