package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-moderation/internal/goroutine"
	"github.com/ignatzorin/market-moderation/internal/logger"
)

// Hub управляет всеми WebSocket клиентами: продавцы получают события о своих объявлениях,
// модераторы - события очереди.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	ctx        context.Context
}

type message struct {
	userID     uuid.UUID
	moderators bool
	payload    []byte
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба и завершается вместе с контекстом.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			if msg.moderators {
				h.sendToModerators(msg.payload)
			} else {
				h.send(msg.userID, msg.payload)
			}
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastToUser отправляет событие всем подключениям пользователя.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := encode(event, data)
	if err != nil {
		return err
	}
	return h.enqueue(message{userID: userID, payload: raw})
}

// BroadcastToModerators отправляет событие всем подключённым модераторам и администраторам.
func (h *Hub) BroadcastToModerators(event string, data any) error {
	raw, err := encode(event, data)
	if err != nil {
		return err
	}
	return h.enqueue(message{moderators: true, payload: raw})
}

// ClientCount возвращает число активных подключений.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func encode(event string, data any) ([]byte, error) {
	// Сообщение для клиента: поле "type" содержит имя события, "data" - полезную нагрузку.
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}
	return raw, nil
}

func (h *Hub) enqueue(msg message) error {
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	default:
		return fmt.Errorf("ws: очередь рассылки переполнена")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.actor.ID]; !ok {
		h.clients[client.actor.ID] = make(map[*Client]struct{})
	}
	h.clients[client.actor.ID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.actor.ID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.closeSend()
		}
		if len(clients) == 0 {
			delete(h.clients, client.actor.ID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.deliver(client, payload)
	}
}

func (h *Hub) sendToModerators(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			if client.actor.IsModerator() {
				h.deliver(client, payload)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		logger.Log.WithFields(logrus.Fields{
			"user_id": client.actor.ID,
			"role":    client.actor.Role,
		}).Warn("ws: клиент не успевает читать, отключаем")
		// Отключаем асинхронно: removeClient берёт эксклюзивную блокировку.
		goroutine.SafeGo(func() { client.Close() })
	}
}
