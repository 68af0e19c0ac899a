package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const WS_WRITE_TIMEOUT = 5 * time.Second

// WSConn serialises writes; gorilla connections allow one writer at a time.
type WSConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *WSConn) Write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(WS_WRITE_TIMEOUT))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// WSConnManager tracks open feed sockets, keyed by viewer (0 for anonymous).
type WSConnManager struct {
	mu    sync.RWMutex
	users map[int64][]*WSConn
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]*WSConn),
	}
}

// Add registers conn; writes to it must go through the returned WSConn.
func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) *WSConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	wc := &WSConn{conn: conn}
	m.users[userID] = append(m.users[userID], wc)
	return wc
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns := m.users[userID]
	for i, c := range conns {
		if c.conn == conn {
			m.users[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Count returns the number of open connections.
func (m *WSConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, conns := range m.users {
		n += len(conns)
	}
	return n
}

func (m *WSConnManager) Send(userID int64, message []byte) {
	m.mu.RLock()
	conns := append([]*WSConn(nil), m.users[userID]...)
	m.mu.RUnlock()
	for _, c := range conns {
		_ = c.Write(message)
	}
}

func (m *WSConnManager) Broadcast(message []byte) {
	m.mu.RLock()
	var conns []*WSConn
	for _, userConns := range m.users {
		conns = append(conns, userConns...)
	}
	m.mu.RUnlock()
	for _, c := range conns {
		if err := c.Write(message); err != nil {
			log.Printf("DEBUG: websocket write failed: %v", err)
		}
	}
}

// FeedPostedMessage - push-сообщение клиенту о новом посте в ленте
type FeedPostedMessage struct {
	Event     string    `json:"event"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// BroadcastPostCreated pushes a feed_posted message to every open socket.
func (m *WSConnManager) BroadcastPostCreated(event PostCreatedEvent) {
	pushData, err := json.Marshal(FeedPostedMessage{
		Event:     "feed_posted",
		PostID:    event.PostID,
		AuthorID:  event.AuthorID,
		Content:   event.Content,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		log.Printf("ERROR: Failed to marshal push message: %v", err)
		return
	}
	m.Broadcast(pushData)
}
