package ws

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	UserID int64
	GameID string
	Conn   *websocket.Conn
	Send   chan []byte

	Hub   *Hub
	Table *Table
	Seat  int
	Done  chan struct{}
}

func NewClient(userID int64, gameID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		GameID: gameID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		Seat:   -1,
		Done:   make(chan struct{}),
	}
}

func (c *Client) Run() {
	// writer first so table registration can push state immediately
	go c.writePump()

	// Table must be assigned before the reader starts: readPump reads it
	// without a lock. Nothing is lost by reading late; frames wait in the
	// connection buffer.
	c.Table = c.Hub.AssignClient(c)
	if c.Table == nil {
		log.Printf("Client.Run: no table for user=%d game=%s", c.UserID, c.GameID)
		c.Conn.Close()
		return
	}

	go c.readPump()
	<-c.Done
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		c.Table.HandleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) disconnect() {
	if c.Table != nil {
		c.Hub.OnDisconnect(c)
	}
	_ = c.Conn.Close()
}
