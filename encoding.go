package ptui

import (
	"encoding/base64"
	"sync"
)

// KittyChunkSize is the raw payload size carried by one Kitty chunk before
// base64 expansion.
const KittyChunkSize = 4096

// Payloads larger than this many chunks are encoded by a worker pool.
const (
	parallelChunkThreshold = 64
	encodeWorkers          = 4
)

var chunkBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, base64.StdEncoding.EncodedLen(KittyChunkSize))
		return &buf
	},
}

// encodeChunk base64-encodes src through a pooled scratch buffer.
func encodeChunk(src []byte) string {
	bufPtr := chunkBufPool.Get().(*[]byte)
	defer chunkBufPool.Put(bufPtr)

	n := base64.StdEncoding.EncodedLen(len(src))
	if cap(*bufPtr) < n {
		*bufPtr = make([]byte, n)
	}
	*bufPtr = (*bufPtr)[:n]
	base64.StdEncoding.Encode(*bufPtr, src)
	return string(*bufPtr)
}

// EncodeChunks splits data into size-byte pieces and base64-encodes each one
// separately, preserving order. Empty data gives no chunks.
func EncodeChunks(data []byte, size int) []string {
	if size <= 0 {
		size = KittyChunkSize
	}
	n := (len(data) + size - 1) / size
	if n > parallelChunkThreshold {
		return encodeChunksParallel(data, size, n)
	}

	out := make([]string, 0, n)
	for i := 0; i < len(data); i += size {
		out = append(out, encodeChunk(data[i:min(i+size, len(data))]))
	}
	return out
}

func encodeChunksParallel(data []byte, size, n int) []string {
	out := make([]string, n)
	jobs := make(chan int, n)
	for i := range n {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(n, encodeWorkers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := i * size
				out[i] = encodeChunk(data[start:min(start+size, len(data))])
			}
		}()
	}
	wg.Wait()
	return out
}
