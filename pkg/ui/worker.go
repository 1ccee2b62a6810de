package ui

import (
	"context"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"muddle/pkg/catalog"
)

// WorkerState represents the current state of the fetch worker.
type WorkerState int

const (
	// WorkerIdle means no refresh is running.
	WorkerIdle WorkerState = iota
	// WorkerRunning means a refresh walk is in flight.
	WorkerRunning
	// WorkerStopped means the worker has been shut down.
	WorkerStopped
)

// NodeLoadedMsg carries one discovered catalog event to the UI loop. The
// program's mailbox preserves send order, so the UI consumes events in the
// exact depth-first order the walk produced them.
type NodeLoadedMsg struct {
	Event catalog.Event
}

// FetchDoneMsg signals that a refresh walk finished. Err is non-nil only for
// fatal failures (identity resolution); partial listing failures are logged
// and do not surface here.
type FetchDoneMsg struct {
	Err error
}

// FetchWorker runs catalog walks on its own goroutine and forwards every
// discovered node to the UI through send. At most one walk runs at a time;
// Refresh during a walk is rejected rather than queued, matching what the
// refresh key should do while a refresh is already on screen.
type FetchWorker struct {
	fetcher *catalog.Fetcher
	send    func(tea.Msg)

	mu    sync.Mutex
	state WorkerState

	ctx    context.Context
	cancel context.CancelFunc
	idle   chan struct{} // closed and replaced per walk; signals walk end
}

// NewFetchWorker creates a worker that fetches through api and delivers
// messages via send (normally tea.Program.Send).
func NewFetchWorker(api catalog.API, send func(tea.Msg)) *FetchWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &FetchWorker{
		fetcher: catalog.NewFetcher(api),
		send:    send,
		state:   WorkerIdle,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current worker state.
func (w *FetchWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Refresh starts a walk unless one is already running or the worker is
// stopped. Returns whether a walk was started.
func (w *FetchWorker) Refresh() bool {
	w.mu.Lock()
	if w.state != WorkerIdle {
		running := w.state == WorkerRunning
		w.mu.Unlock()
		if running {
			log.Printf("refresh ignored: a refresh is already running")
		}
		return false
	}
	w.state = WorkerRunning
	done := make(chan struct{})
	w.idle = done
	w.mu.Unlock()

	go w.run(done)
	return true
}

// run performs one walk off the UI thread. Every emit is forwarded
// immediately; the builder on the UI side sees nodes in walk order.
func (w *FetchWorker) run(done chan struct{}) {
	defer close(done)

	err := w.fetcher.Fetch(w.ctx, func(ev catalog.Event) {
		w.send(NodeLoadedMsg{Event: ev})
	})

	w.mu.Lock()
	if w.state == WorkerRunning {
		w.state = WorkerIdle
	}
	w.mu.Unlock()

	w.send(FetchDoneMsg{Err: err})
}

// Stop cancels any in-flight walk and prevents future refreshes. Idempotent;
// blocks until the running walk, if any, has returned.
func (w *FetchWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	done := w.idle
	w.mu.Unlock()

	w.cancel()
	if done != nil {
		<-done
	}
}
