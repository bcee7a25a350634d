//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"
)

// Requires feed-api running with events.enable=true.
func TestPostEvents_OncePerPost(t *testing.T) {
	c := LoadCfg()
	if getenv("IT_EVENTS", "") == "" {
		t.Skip("IT_EVENTS not set")
	}
	WaitTCP(t, "kafka", c.KafkaBootstrap, 60*time.Second)
	WaitHealthz(t, c.BaseURL+"/healthz", 60*time.Second)

	id := RandMessageID()
	date := time.Now().Unix()
	for i := 0; i < 3; i++ {
		if code := PostUpdate(t, c, c.Secret, c.Channel, id, date); code != http.StatusOK {
			t.Fatalf("delivery %d: got %d", i, code)
		}
	}

	evs := ReadEvents(t, c, id, 20*time.Second)
	if len(evs) != 1 {
		t.Fatalf("events for %d: got %d want 1", id, len(evs))
	}
	ev := evs[0]
	if ev.Channel != c.Channel || ev.EventID == "" || ev.PostedAt.Unix() != date {
		t.Fatalf("bad event: %+v", ev)
	}
}
