package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Connection struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Serve upgrades the request and pumps messages until either side hangs up.
// Incoming payloads go to onMessage on the read goroutine.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, onMessage func(data []byte, reply func([]byte))) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("ws upgrade fail, err = %v", err)
		return
	}

	conn := &Connection{ws: ws, send: make(chan []byte, 64)}
	hub.register <- conn

	go conn.writePump()
	conn.readPump(hub, onMessage)
}

func (c *Connection) readPump(hub *Hub, onMessage func(data []byte, reply func([]byte))) {
	defer func() {
		hub.unregister <- c
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	reply := func(data []byte) {
		select {
		case c.send <- data:
		default:
		}
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Warnf("ws read fail, err = %v", err)
			}
			return
		}
		if onMessage != nil {
			onMessage(data, reply)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
