package stats

import (
	"testing"
	"time"
)

func TestChannelCollectorDelivers(t *testing.T) {
	c := NewChannelCollector(4)
	defer c.Close()

	sent := ClickEvent{
		Code:      "abc",
		ClickedAt: time.Now(),
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
		Referer:   "https://example.com/deals",
		Family:    "amazon",
		Region:    "US",
	}
	c.Collect(sent)

	select {
	case got := <-c.Events():
		if got != sent {
			t.Errorf("got %+v, want %+v", got, sent)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannelCollectorDropsWhenFull(t *testing.T) {
	c := NewChannelCollector(1)
	defer c.Close()

	c.Collect(ClickEvent{Code: "first"})
	// 通道已满，第二条应该被丢弃而不是阻塞
	done := make(chan struct{})
	go func() {
		c.Collect(ClickEvent{Code: "second"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Collect blocked on full channel")
	}

	got := <-c.Events()
	if got.Code != "first" {
		t.Errorf("got %q, want first", got.Code)
	}
}

func TestChannelCollectorAfterClose(t *testing.T) {
	c := NewChannelCollector(1)
	c.Close()
	// 关闭后 Collect 不应 panic
	c.Collect(ClickEvent{Code: "late"})
}
