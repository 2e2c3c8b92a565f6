package transport

import (
	"testing"
	"time"
)

func TestLeakyLinkNoLossNoDelaySendsImmediately(t *testing.T) {
	var sent [][]byte

	l := NewLeakyLink(func(data []byte) error {
		sent = append(sent, data)
		return nil
	})

	if err := l.Send([]byte("a")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(sent) != 1 {
		t.Fatalf("sent %d packets, want 1", len(sent))
	}
}

func TestLeakyLinkFullLossDropsEverything(t *testing.T) {
	var sent int

	l := NewLeakyLink(func(data []byte) error {
		sent++
		return nil
	})
	l.SetPacketLoss(1.0)

	for i := 0; i < 20; i++ {
		if err := l.Send([]byte("x")); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	if sent != 0 {
		t.Fatalf("sent %d packets with 100%% loss configured, want 0", sent)
	}
}

func TestLeakyLinkDelaysUntilFlush(t *testing.T) {
	var sent int

	l := NewLeakyLink(func(data []byte) error {
		sent++
		return nil
	})
	l.SetDelay(50 * time.Millisecond)

	if err := l.Send([]byte("a")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if sent != 0 {
		t.Fatal("expected the packet to be queued, not sent immediately")
	}

	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if sent != 0 {
		t.Fatal("expected Flush to be a no-op before the delay elapses")
	}

	time.Sleep(60 * time.Millisecond)

	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if sent != 1 {
		t.Fatalf("sent = %d after the delay elapsed, want 1", sent)
	}
}
