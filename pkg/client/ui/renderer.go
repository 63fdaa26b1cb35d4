package ui

import (
	"sync"

	"github.com/aeolun/yacs/pkg/client"
	tea "github.com/charmbracelet/bubbletea"
)

// DeltaMsg carries a session delta into the update loop
type DeltaMsg struct {
	Delta client.Delta
}

type sender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer forwards deltas to a tea.Program in the order they were
// applied. Apply never blocks; deltas queue until a program is attached.
type ProgramRenderer struct {
	mu      sync.Mutex
	queue   []client.Delta
	started bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewProgramRenderer() *ProgramRenderer {
	return &ProgramRenderer{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (r *ProgramRenderer) Apply(d client.Delta) {
	r.mu.Lock()
	r.queue = append(r.queue, d)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Attach starts delivering queued and future deltas to p. Only the first
// call has an effect.
func (r *ProgramRenderer) Attach(p sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.wg.Add(1)
	go r.pump(p)
}

func (r *ProgramRenderer) pump(p sender) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()

		for _, d := range batch {
			select {
			case <-r.done:
				return
			default:
			}
			p.Send(DeltaMsg{Delta: d})
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-r.wake:
		case <-r.done:
			return
		}
	}
}

// Close stops delivery. Deltas not yet sent are dropped.
func (r *ProgramRenderer) Close() {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
}

var _ client.Renderer = (*ProgramRenderer)(nil)
