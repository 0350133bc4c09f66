package jxr

import (
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/pkg/errors"
)

// BatchResult is the outcome of one payload of a batch.
type BatchResult struct {
	Raster *Raster
	Err    error
}

// DecodeBatch decodes every payload with DecodeBytes on a pool of workers
// goroutines. Workers <= 0 uses GOMAXPROCS. Results are in input order and
// one failure does not stop the others.
func DecodeBatch(payloads [][]byte, workers int, opts *Options) []BatchResult {
	results := make([]BatchResult, len(payloads))
	if len(payloads) == 0 {
		return results
	}

	pool := workerpool.New(min(workers, len(payloads)))
	defer pool.Close()

	pool.ParallelForAtomic(len(payloads), func(i int) {
		r, err := DecodeBytes(payloads[i], opts)
		results[i] = BatchResult{Raster: r, Err: errors.Wrapf(err, "payload %d", i)}
	})
	return results
}
