package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

// nextEvent reads lines until a complete event block and returns its name and data.
func nextEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestStreamDeliversTaskEvents(t *testing.T) {
	router, _ := setupInspectionTest(t)
	token := testutil.DefaultTestToken()

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		srv.URL+"/api/v1/mes/sse/events?task_id=task-fqc-0001&token="+token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Expected event stream, got %q", ct)
	}

	stream := bufio.NewReader(resp.Body)
	name, data := nextEvent(t, stream)
	if name != "connected" || !strings.Contains(data, "task-fqc-0001") {
		t.Fatalf("Expected connected event, got %s %s", name, data)
	}

	// 其他任务的事件不推送
	w := testutil.DoRequest(router, "PUT", "/api/v1/mes/tasks/task-fqc-0002/items/itm-coating/result", map[string]interface{}{"result": "OK"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "PUT", taskPath+"/items/itm-surface/result", map[string]interface{}{"result": "OK"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	name, data = nextEvent(t, stream)
	if name != "item_update" {
		t.Fatalf("Expected item_update, got %s", name)
	}
	if !strings.Contains(data, "itm-surface") {
		t.Errorf("Expected update for itm-surface, got %s", data)
	}
}
