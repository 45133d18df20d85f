package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/screenshare/internal/transport"
)

// Client is one registered viewer connection.
type Client struct {
	// ID is assigned from a per-server counter starting at 1 and is never
	// reused.
	ID uint64
	// Session is a random token that identifies the connection in logs and
	// the status API.
	Session     uuid.UUID
	Conn        *transport.Conn
	ConnectedAt time.Time

	packetsSent     atomic.Int64
	bytesSent       atomic.Int64
	actionsReceived atomic.Int64
}

// NewClient wraps conn as a client with the given id.
func NewClient(id uint64, conn *transport.Conn) *Client {
	return &Client{
		ID:          id,
		Session:     uuid.New(),
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
}

// ClientStats is a point-in-time view of a client's delivery counters.
type ClientStats struct {
	ID              uint64 `json:"id"`
	Session         string `json:"session"`
	Remote          string `json:"remote"`
	Transport       string `json:"transport"`
	ConnectedAt     string `json:"connectedAt"`
	UptimeMs        int64  `json:"uptimeMs"`
	PacketsSent     int64  `json:"packetsSent"`
	BytesSent       int64  `json:"bytesSent"`
	ActionsReceived int64  `json:"actionsReceived"`
}

// Stats returns the client's counters.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		ID:              c.ID,
		Session:         c.Session.String(),
		Remote:          c.Conn.RemoteAddr(),
		Transport:       c.Conn.Scheme(),
		ConnectedAt:     c.ConnectedAt.UTC().Format(time.RFC3339),
		UptimeMs:        time.Since(c.ConnectedAt).Milliseconds(),
		PacketsSent:     c.packetsSent.Load(),
		BytesSent:       c.bytesSent.Load(),
		ActionsReceived: c.actionsReceived.Load(),
	}
}
