package sse

import (
	"encoding/json"
	"testing"
)

func TestPublishFiltersByTask(t *testing.T) {
	h := NewHub(nil)
	all := &Client{ID: "c-all", Events: make(chan Event, 4)}
	watcher := &Client{ID: "c-1", TaskID: "task-1", Events: make(chan Event, 4)}
	other := &Client{ID: "c-2", TaskID: "task-2", Events: make(chan Event, 4)}
	h.Register(all)
	h.Register(watcher)
	h.Register(other)

	h.PublishItemUpdate("task-1", "itm-1", "judge_ok")

	if len(all.Events) != 1 || len(watcher.Events) != 1 {
		t.Fatalf("expected event on matching clients, got all=%d watcher=%d", len(all.Events), len(watcher.Events))
	}
	if len(other.Events) != 0 {
		t.Fatalf("expected no event for other task, got %d", len(other.Events))
	}

	ev := <-watcher.Events
	var upd ItemUpdate
	if err := json.Unmarshal([]byte(ev.Data), &upd); err != nil {
		t.Fatalf("bad event payload: %v", err)
	}
	if ev.EventType != "item_update" || upd.ItemID != "itm-1" || upd.Action != "judge_ok" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	c := &Client{ID: "c", Events: make(chan Event, 1)}
	h.Register(c)

	h.PublishTaskUpdate("task-1", "submit")
	h.PublishTaskUpdate("task-1", "submit")

	if len(c.Events) != 1 {
		t.Fatalf("expected 1 buffered event, got %d", len(c.Events))
	}
	h.Unregister("c")
	if _, ok := <-c.Events; !ok {
		t.Fatal("expected buffered event before close")
	}
	if _, ok := <-c.Events; ok {
		t.Fatal("expected channel closed after unregister")
	}
}
