package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/agglayer/agglayer-go/clock"
	"github.com/agglayer/agglayer-go/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// epochNotification is pushed to every websocket client on each epoch change.
type epochNotification struct {
	Method string `json:"method"`
	Result struct {
		Epoch uint64 `json:"epoch"`
	} `json:"result"`
}

// Hub manages websocket client registration and epoch broadcasting.
type Hub struct {
	clients      map[*wsClient]bool
	register     chan *wsClient
	unregister   chan *wsClient
	broadcast    chan []byte
	pingInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
}

func newHub(ctx context.Context, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:      make(map[*wsClient]bool),
		register:     make(chan *wsClient),
		unregister:   make(chan *wsClient),
		broadcast:    make(chan []byte),
		pingInterval: pingInterval,
		ctx:          cctx,
		cancel:       cancel,
	}
}

func (h *Hub) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// relayEpochs forwards clock events to all connected clients until the
// subscription or the hub shuts down.
func (h *Hub) relayEpochs(sub *clock.Subscription, wg *sync.WaitGroup) {
	defer wg.Done()
	defer sub.Unsubscribe()

	for {
		select {
		case <-h.ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			var note epochNotification
			note.Method = "subscribeEpochChange"
			note.Result.Epoch = ev.Epoch
			data, err := json.Marshal(note)
			if err != nil {
				continue
			}
			select {
			case h.broadcast <- data:
			case <-h.ctx.Done():
				return
			}
		}
	}
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) readPump(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		// The hub stops receiving once its context is cancelled; selecting
		// on Done keeps this defer from blocking shutdown.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err) {
					log.Trace(log.RpcMonitoring, "WebSocket close error", "err", err)
				}
				return
			}
		}
	}
}

func (c *wsClient) writePump(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request, wg *sync.WaitGroup) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(log.RpcMonitoring, "serveWs Upgrade error", "err", err)
		return
	}
	client := &wsClient{hub: hub, conn: conn, send: make(chan []byte, 256)}
	hub.register <- client

	wg.Add(2)
	go client.writePump(hub.ctx, wg)
	go client.readPump(hub.ctx, wg)
}
