package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mzielinski/wspolnota-api/pkg/models"
	"github.com/mzielinski/wspolnota-api/pkg/upstream"
)

// FetchFunc returns the latest message timestamp (unix seconds) per chat
// channel. It is called fresh on every tick so it always observes the
// current auth/session state.
type FetchFunc func(ctx context.Context) (map[string]int64, error)

// Poller watches the chat channels on a fixed wall-clock interval,
// independent of any user action. A failed poll is ignored silently; the
// next tick is the retry policy. There is no backoff and no deduplication
// beyond tracking the latest timestamp per channel.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc

	mu       sync.RWMutex
	latest   map[string]int64
	lastSeen map[string]int64

	gen upstream.Generation
}

// New creates a poller. The interval must be positive.
func New(interval time.Duration, fetch FetchFunc) *Poller {
	return &Poller{
		interval: interval,
		fetch:    fetch,
		latest:   make(map[string]int64),
		lastSeen: make(map[string]int64),
	}
}

// Run polls until the context is cancelled. It is meant to be started as
// `go p.Run(ctx)` from main.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			// Cooperative teardown: in-flight completions after this
			// point fail the generation check and are discarded.
			p.gen.Bump()
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	token := p.gen.Current()

	latest, err := p.fetch(ctx)
	if err != nil {
		return
	}
	p.apply(token, latest)
}

// apply installs a poll result unless the poller was torn down (or reset)
// while the fetch was in flight.
func (p *Poller) apply(token uint64, latest map[string]int64) {
	if !p.gen.Still(token) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for channel, ts := range latest {
		p.latest[channel] = ts
	}
}

// Reset drops all tracked state, invalidating in-flight polls. Used when
// the auth state changes and the old channels no longer apply.
func (p *Poller) Reset() {
	p.gen.Bump()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = make(map[string]int64)
	p.lastSeen = make(map[string]int64)
}

// MarkSeen records that the user has seen the channel's current messages.
func (p *Poller) MarkSeen(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[channel] = p.latest[channel]
}

// Status returns the per-channel snapshot, ordered by channel name.
func (p *Poller) Status() []models.ChatStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	statuses := make([]models.ChatStatus, 0, len(p.latest))
	for channel, ts := range p.latest {
		statuses = append(statuses, models.ChatStatus{
			Channel:   channel,
			LatestAt:  ts,
			HasUnread: ts > p.lastSeen[channel],
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Channel < statuses[j].Channel
	})
	return statuses
}
