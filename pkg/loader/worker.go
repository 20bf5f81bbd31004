package loader

import (
	"context"
	"runtime"
	"time"

	"texturestream/pkg/decode"
)

const (
	idleYieldThreshold = 10
	idleSleepThreshold = 1000
	idleSleepDuration  = time.Millisecond
)

// runWorker is the body of one worker goroutine. It owns workers[index]'s
// request queue exclusively as consumer.
func (p *Pool) runWorker(index int) {
	defer p.wg.Done()

	w := p.workers[index]
	idle := 0

	p.logger.WithField("worker", index).Info("loader: worker started")

	for !p.shutdown.Load() {
		var req LoadRequest
		if !w.requestQueue.Pop(&req) {
			idle++
			if idle > idleSleepThreshold {
				time.Sleep(idleSleepDuration)
				idle = 0
			} else if idle > idleYieldThreshold {
				runtime.Gosched()
			}
			continue
		}

		idle = 0
		w.busy.Store(true)

		result := p.processRequest(req)

		p.pushCompletion(result)

		w.busy.Store(false)
	}

	p.logger.WithField("worker", index).Info("loader: worker stopped")
}

// processRequest performs the archive read and, if requested and the read
// produced bytes, the decode. Decode failures are swallowed: the raw bytes
// are left intact for the caller to fall back on.
func (p *Pool) processRequest(req LoadRequest) LoadResult {
	result := LoadResult{
		Filename:  req.Filename,
		RequestID: req.RequestID,
	}

	result.FileBytes = p.archive.ReadFileWithPool(context.Background(), req.Filename, p.buffers)

	if req.DecodeImage && len(result.FileBytes) > 0 {
		var decoded decode.DecodedImage
		if decode.Decode(result.FileBytes, &decoded) {
			result.DecodedImage = decoded
			result.HasDecodedImage = true
			// The decoder copied what it needs; the raw buffer goes back
			// to the pool.
			p.buffers.Release(result.FileBytes)
			result.FileBytes = nil
		}
	}

	return result
}

// pushCompletion pushes result onto the shared completion queue, spinning
// with a yield between attempts if it's momentarily full. Worker pushes are
// serialized behind a lightweight mutex rather than requiring a true
// multi-producer ring. It abandons the result rather than spin forever if
// shutdown is observed mid-push.
func (p *Pool) pushCompletion(result LoadResult) {
	for {
		p.completedMu.Lock()
		ok := p.completed.Push(result)
		p.completedMu.Unlock()

		if ok {
			return
		}

		runtime.Gosched()

		if p.shutdown.Load() {
			return
		}
	}
}

func runtimeHalfNumCPU() int {
	n := runtime.NumCPU() / 2
	if n < minWorkers {
		return minWorkers
	}
	return n
}
