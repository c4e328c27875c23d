package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a connection as an observer of a thread.
func ServeWs(hub *Hub, c *websocket.Conn, threadID string) {
	client := &Client{Hub: hub, Conn: c, ThreadID: threadID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
