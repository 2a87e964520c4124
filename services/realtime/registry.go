// Package realtime tracks live client channels per principal and pushes
// payloads to them. Delivery is best effort.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"joservice/models"
	"joservice/utils"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shardCount = 32

// Channel is a live, transport-agnostic connection to one client.
type Channel interface {
	// Send delivers payload or returns an error. It must honour ctx.
	Send(ctx context.Context, payload []byte) error
	// Done is closed once the underlying connection is gone.
	Done() <-chan struct{}
	Close() error
}

type shard struct {
	mu       sync.RWMutex
	channels map[models.Principal]map[Channel]struct{}
}

// Registry maps principals to their live channels. One principal may hold many
// channels; the same ID under two roles is two principals.
type Registry struct {
	shards      [shardCount]*shard
	sendTimeout time.Duration
	logger      *zap.Logger
}

func NewRegistry(sendTimeout time.Duration, logger *zap.Logger) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{sendTimeout: sendTimeout, logger: logger}
	for i := range r.shards {
		r.shards[i] = &shard{channels: make(map[models.Principal]map[Channel]struct{})}
	}
	return r
}

func (r *Registry) shardFor(p models.Principal) *shard {
	return r.shards[xxhash.Sum64String(p.String())%shardCount]
}

// Register adds ch for p and unregisters it automatically once ch is done.
func (r *Registry) Register(p models.Principal, ch Channel) {
	s := r.shardFor(p)
	s.mu.Lock()
	set, ok := s.channels[p]
	if !ok {
		set = make(map[Channel]struct{})
		s.channels[p] = set
	}
	_, dup := set[ch]
	set[ch] = struct{}{}
	s.mu.Unlock()

	if dup {
		return
	}
	r.logger.Debug("channel registered", zap.String("principal", p.String()))
	go func() {
		<-ch.Done()
		r.Unregister(p, ch)
	}()
}

// Unregister removes ch for p. Unknown channels are ignored.
func (r *Registry) Unregister(p models.Principal, ch Channel) {
	s := r.shardFor(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.channels[p]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(s.channels, p)
	}
	r.logger.Debug("channel unregistered", zap.String("principal", p.String()))
}

// Count returns how many channels p currently holds.
func (r *Registry) Count(p models.Principal) int {
	s := r.shardFor(p)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels[p])
}

func (r *Registry) snapshot(p models.Principal) []Channel {
	s := r.shardFor(p)
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.channels[p]
	out := make([]Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// Send pushes payload to every channel of p concurrently and returns how many
// accepted it. Each channel gets its own timeout; a channel that fails or times
// out is unregistered and closed. Zero is a normal result.
func (r *Registry) Send(ctx context.Context, p models.Principal, payload []byte) int {
	channels := r.snapshot(p)
	if len(channels) == 0 {
		return 0
	}

	var delivered atomic.Int64
	var g errgroup.Group
	for _, ch := range channels {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
			defer cancel()
			if err := ch.Send(sendCtx, payload); err != nil {
				err = utils.WrapError(err, utils.CodeDelivery, "send to %s", p)
				r.logger.Warn("realtime send failed, dropping channel",
					zap.String("principal", p.String()), zap.Error(err))
				r.Unregister(p, ch)
				_ = ch.Close()
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load())
}
