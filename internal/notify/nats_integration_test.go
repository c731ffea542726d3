//go:build integration

package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mgpai22/xls2ass/internal/logging"
)

func TestIntegration_Publish(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}

	sub, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("failed to connect subscriber: %v", err)
	}
	defer sub.Close()

	received := make(chan ConversionCompleted, 1)
	if _, err := sub.Subscribe("xls2ass.test", func(msg *nats.Msg) {
		var ev ConversionCompleted
		if json.Unmarshal(msg.Data, &ev) == nil {
			received <- ev
		}
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	_ = sub.Flush()

	pub, err := NewNATSPublisher(url, os.Getenv("NATS_TOKEN"), "xls2ass.test", logging.NewNop())
	if err != nil {
		t.Fatalf("failed to connect publisher: %v", err)
	}
	defer pub.Close()

	if err := pub.Publish(context.Background(), ConversionCompleted{ID: "abc", Events: 2}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.ID != "abc" || ev.Events != 2 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
