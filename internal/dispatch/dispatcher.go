// Package dispatch runs update handlers with per-user ordering: work for the
// same user runs one task at a time in arrival order, while different users
// proceed in parallel up to a global limit.
package dispatch

import (
	"context"
	"sync"
	"time"
)

type Task func(ctx context.Context)

type Options struct {
	MaxConcurrent int
	// Timeout bounds each task. Zero means no per-task deadline.
	Timeout time.Duration
}

type Dispatcher struct {
	mu      sync.Mutex
	sem     chan struct{}
	timeout time.Duration
	queues  map[int64]*pendingQueue
	wg      sync.WaitGroup
}

type pendingQueue struct {
	items []queued
}

type queued struct {
	ctx  context.Context
	task Task
}

func New(opts Options) *Dispatcher {
	limit := opts.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	return &Dispatcher{
		sem:     make(chan struct{}, limit),
		timeout: opts.Timeout,
		queues:  make(map[int64]*pendingQueue),
	}
}

// Submit enqueues task behind any pending work for key and returns
// immediately. Tasks whose ctx is done before they start are dropped.
func (d *Dispatcher) Submit(ctx context.Context, key int64, task Task) {
	if task == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if q, ok := d.queues[key]; ok {
		q.items = append(q.items, queued{ctx: ctx, task: task})
		return
	}

	d.queues[key] = &pendingQueue{items: []queued{{ctx: ctx, task: task}}}
	d.wg.Add(1)
	go d.drain(key)
}

// Wait blocks until every submitted task has finished or been dropped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Pending reports the number of keys with queued or running work.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *Dispatcher) drain(key int64) {
	defer d.wg.Done()

	for {
		item, ok := d.next(key)
		if !ok {
			return
		}
		d.run(item)
	}
}

func (d *Dispatcher) next(key int64) (queued, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[key]
	if !ok {
		return queued{}, false
	}
	if len(q.items) == 0 {
		delete(d.queues, key)
		return queued{}, false
	}

	item := q.items[0]
	q.items[0] = queued{}
	q.items = q.items[1:]
	return item, true
}

func (d *Dispatcher) run(item queued) {
	if item.ctx.Err() != nil {
		return
	}

	select {
	case d.sem <- struct{}{}:
	case <-item.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	ctx := item.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	item.task(ctx)
}
