package transport

import (
	"math/rand"
	"sync"
	"time"
)

// LeakyLink is a packet-loss and latency injector for exercising the
// engine's tolerance for an unreliable channel (spec.md §8 scenarios 2
// and 5) without a real network. It is grounded directly on
// original_source/src/net_client/leaky_net_client.rs: packets are
// dropped with a fixed probability, and surviving packets are queued
// and only handed to the underlying sender once their artificial delay
// has elapsed.
type LeakyLink struct {
	send func(data []byte) error
	rng  *rand.Rand

	mu         sync.Mutex
	packetLoss float64
	delay      time.Duration
	pending    []pendingPacket
}

type pendingPacket struct {
	data      []byte
	releaseAt time.Time
}

// NewLeakyLink returns a link that hands surviving, ready packets to
// send.
func NewLeakyLink(send func(data []byte) error) *LeakyLink {
	return &LeakyLink{
		send: send,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetPacketLoss sets the probability, in [0,1], that an outgoing packet
// is silently dropped.
func (l *LeakyLink) SetPacketLoss(p float64) {
	l.mu.Lock()
	l.packetLoss = p
	l.mu.Unlock()
}

// SetDelay sets the artificial one-way delay applied to packets that
// survive the loss roll.
func (l *LeakyLink) SetDelay(d time.Duration) {
	l.mu.Lock()
	l.delay = d
	l.mu.Unlock()
}

// Send rolls for packet loss and, for surviving packets, either hands
// them to the underlying sender immediately (zero delay) or queues them
// for release once the configured delay elapses.
func (l *LeakyLink) Send(data []byte) error {
	l.mu.Lock()
	loss := l.packetLoss
	delay := l.delay
	l.mu.Unlock()

	if loss > 0 && l.rng.Float64() < loss {
		return nil
	}

	if delay <= 0 {
		return l.send(data)
	}

	l.mu.Lock()
	l.pending = append(l.pending, pendingPacket{data: data, releaseAt: time.Now().Add(delay)})
	l.mu.Unlock()

	return nil
}

// Flush releases every queued packet whose delay has elapsed. The host
// must call this periodically (e.g. once per simulation tick), the way
// leaky_net_client.rs's send_queued is driven from send.
func (l *LeakyLink) Flush() error {
	now := time.Now()

	l.mu.Lock()
	var ready, keep []pendingPacket

	for _, p := range l.pending {
		if !p.releaseAt.After(now) {
			ready = append(ready, p)
		} else {
			keep = append(keep, p)
		}
	}

	l.pending = keep
	l.mu.Unlock()

	for _, p := range ready {
		if err := l.send(p.data); err != nil {
			return err
		}
	}

	return nil
}
