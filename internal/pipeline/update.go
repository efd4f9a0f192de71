package pipeline

import (
	"sync"

	"photo-curator/internal/adaptive"
)

// Update is a published snapshot of pipeline progress.
type Update struct {
	Progress    float64       `json:"progress"`
	Mode        adaptive.Mode `json:"mode"`
	ModeDisplay string        `json:"modeDisplay"`
	Running     bool          `json:"running"`
	Completed   int           `json:"completed"`
	Total       int           `json:"total"`
	// Done is set on the final update of a run.
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// broadcaster fans updates out to subscribers. Each subscriber channel holds
// only the latest update; slow readers skip intermediate ones.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Update
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Update)}
}

func (b *broadcaster) subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Update, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

func (b *broadcaster) publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- u:
			continue
		default:
		}
		// Replace the stale update.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
