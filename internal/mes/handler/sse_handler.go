package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/gin-gonic/gin"
)

// SSEHandler 检验实时推送
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: 30 * time.Second}
}

// subscribe registers a client for the caller. With task_id set, only that
// task's item and task updates are delivered.
func (h *SSEHandler) subscribe(c *gin.Context) *sse.Client {
	userID := GetUserID(c)
	client := &sse.Client{
		ID:     fmt.Sprintf("%s_%d", userID, time.Now().UnixNano()),
		UserID: userID,
		TaskID: c.Query("task_id"),
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)
	return client
}

// Stream 订阅检验事件
// GET /api/v1/mes/sse/events?token=xxx&task_id=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	client := h.subscribe(c)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"client_id": client.ID, "task_id": client.TaskID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(event.EventType, event.Data)
			return true
		case <-heartbeat.C:
			// 注释行保活
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
}
