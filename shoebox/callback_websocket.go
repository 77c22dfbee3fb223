/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package shoebox

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

func writeDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}

// lifecycleEvent is broadcast to every connected dashboard when an
// archive is opened or closed.
type lifecycleEvent struct {
	Kind string `json:"kind"` // "open" or "close"
	Path string `json:"path"`
}

// WebSocketNotifyCallback broadcasts on_open/on_close lifecycle
// events to connected operator dashboards. Each client write has a
// five-second deadline, so a slow client can delay rollover by up to
// that long; a client whose write fails or times out is dropped.
type WebSocketNotifyCallback struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewWebSocketNotifyCallback() *WebSocketNotifyCallback {
	return &WebSocketNotifyCallback{clients: make(map[*websocket.Conn]struct{})}
}

// Register adds conn to the broadcast set. The caller owns accepting
// the HTTP upgrade; this type only owns fan-out.
func (c *WebSocketNotifyCallback) Register(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[conn] = struct{}{}
}

// Unregister removes conn, e.g. once its read loop observes a close.
func (c *WebSocketNotifyCallback) Unregister(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, conn)
}

func (c *WebSocketNotifyCallback) OnOpen(path string) {
	c.broadcast(lifecycleEvent{Kind: "open", Path: path})
}

func (c *WebSocketNotifyCallback) OnClose(path string) (newPath string) {
	c.broadcast(lifecycleEvent{Kind: "close", Path: path})
	return ""
}

func (c *WebSocketNotifyCallback) broadcast(event lifecycleEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for conn := range c.clients {
		conn.SetWriteDeadline(writeDeadline())
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// best-effort: drop the dead client, don't block the caller
			delete(c.clients, conn)
			conn.Close()
		}
	}
}
