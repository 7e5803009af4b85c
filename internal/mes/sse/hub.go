package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client, optionally watching one task
type Client struct {
	ID     string
	UserID string
	TaskID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("SSE client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("SSE client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Publish sends an event to clients watching taskID and to clients watching everything.
func (h *Hub) Publish(taskID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.TaskID != "" && client.TaskID != taskID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("SSE client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// ItemUpdate 检验项变更事件内容
type ItemUpdate struct {
	TaskID string `json:"task_id"`
	ItemID string `json:"item_id,omitempty"`
	Action string `json:"action"`
}

// PublishItemUpdate 推送检验项变更（判定、测量、照片、缺陷）
func (h *Hub) PublishItemUpdate(taskID, itemID, action string) {
	data, _ := json.Marshal(ItemUpdate{TaskID: taskID, ItemID: itemID, Action: action})
	h.Publish(taskID, Event{EventType: "item_update", Data: string(data)})
}

// PublishTaskUpdate 推送任务级变更（提交等）
func (h *Hub) PublishTaskUpdate(taskID, action string) {
	data, _ := json.Marshal(ItemUpdate{TaskID: taskID, Action: action})
	h.Publish(taskID, Event{EventType: "task_update", Data: string(data)})
}
