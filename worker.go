package ptui

import (
	"sync"
	"time"

	"github.com/apex/log"
)

// PreviewJob is a captured image preview computation.
type PreviewJob struct {
	Key        string
	Generation uint64
	compute    func() (PreviewContent, string)
}

// Run computes the preview on the calling goroutine.
func (j PreviewJob) Run() PreviewResult {
	start := time.Now()
	content, status := j.compute()
	return PreviewResult{
		Key:        j.Key,
		Generation: j.Generation,
		Content:    content,
		Status:     status,
		Duration:   time.Since(start),
	}
}

// PreviewResult is the outcome of a PreviewJob. Generation lets the owner
// discard results for selections it has already moved past.
type PreviewResult struct {
	Key        string
	Generation uint64
	Content    PreviewContent
	Status     string
	Duration   time.Duration
}

// PreviewWorker renders previews on a background goroutine. Both the job and
// result buffers hold one item; a newer entry replaces an older one so the
// latest selection always wins.
type PreviewWorker struct {
	jobs    chan PreviewJob
	results chan PreviewResult
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	once    sync.Once
}

// NewPreviewWorker starts the worker goroutine.
func NewPreviewWorker() *PreviewWorker {
	w := &PreviewWorker{
		jobs:    make(chan PreviewJob, 1),
		results: make(chan PreviewResult, 1),
		stop:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Schedule queues job, dropping any job still waiting.
func (w *PreviewWorker) Schedule(job PreviewJob) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case w.jobs <- job:
	default:
		select {
		case dropped := <-w.jobs:
			log.WithField("key", dropped.Key).Debug("superseded preview job")
		default:
		}
		w.jobs <- job
	}
}

// TryResult returns a finished preview if one is ready.
func (w *PreviewWorker) TryResult() (PreviewResult, bool) {
	select {
	case res := <-w.results:
		return res, true
	default:
		return PreviewResult{}, false
	}
}

// Close stops the worker and waits for it. Calling it again is a no-op.
func (w *PreviewWorker) Close() {
	w.once.Do(func() {
		close(w.stop)
		w.wg.Wait()
	})
}

func (w *PreviewWorker) loop() {
	defer w.wg.Done()

	for {
		select {
		case job := <-w.jobs:
			res := job.Run()
			w.publish(res)
		case <-w.stop:
			return
		}
	}
}

func (w *PreviewWorker) publish(res PreviewResult) {
	select {
	case w.results <- res:
	default:
		select {
		case <-w.results:
		default:
		}
		select {
		case w.results <- res:
		default:
		}
	}
}
