package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"asset-registry-api/internal/models"
	"asset-registry-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// wsClient implements realtime.Client by wrapping a websocket connection.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(message []byte) bool {
	if c == nil || c.conn == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message) == nil
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
}

func (c *wsClient) Close() {
	if c != nil && c.conn != nil {
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler subscribes the caller to refresh events of one network.
// GET /api/ws?network=liquid
// It requires JWT middleware to have set "user_id" in context.
func WebSocketHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_id") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
			return
		}
		network, err := models.ParseNetwork(c.DefaultQuery("network", string(models.NetworkLiquid)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}

		topic := string(network)
		client := &wsClient{conn: conn}
		hub.Register(topic, client)
		slog.Debug("websocket subscribed", "network", network, "user", c.GetString("username"))

		pingTicker := time.NewTicker(pingPeriod)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-pingTicker.C:
					if err := client.ping(); err != nil {
						return
					}
				}
			}
		}()
		defer func() {
			close(done)
			pingTicker.Stop()
			hub.Unregister(topic, client)
			client.Close()
		}()

		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
