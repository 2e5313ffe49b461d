// Package rest is the administrative HTTP facade over a running udp.Server:
// roster inspection, a broadcast endpoint for embedders without direct
// access to the Server value, and the Prometheus scrape endpoint.
package rest

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haldorgrim/netgram"
	"github.com/haldorgrim/netgram/internal/udp"
)

// Handlers provides the HTTP handlers registered against a gin.Engine.
type Handlers struct {
	server *udp.Server
	log    *zerolog.Logger
}

// NewHandlers constructs Handlers bound to server. logger is used for
// request-scoped diagnostics; a nil logger falls back to zerolog's global
// log.Logger at call time.
func NewHandlers(server *udp.Server, logger *zerolog.Logger) *Handlers {
	return &Handlers{server: server, log: logger}
}

// Register attaches every route this package serves to engine: GET
// /roster, POST /broadcast, and GET /metrics.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/roster", h.Roster)
	engine.POST("/broadcast", h.Broadcast)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// rosterEntry is the JSON projection of a netgram.ClientRef.
type rosterEntry struct {
	ID       int16  `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Alive    bool   `json:"alive"`
}

// Roster handles GET /roster: a point-in-time snapshot of every connected
// client.
func (h *Handlers) Roster(c *gin.Context) {
	refs := h.server.Roster()
	out := make([]rosterEntry, 0, len(refs))
	for _, r := range refs {
		out = append(out, rosterEntry{ID: r.ID(), Name: r.Name(), Endpoint: r.Endpoint(), Alive: r.Alive()})
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}

// BroadcastRequest is the JSON body POST /broadcast expects. PayloadHex is
// the hex encoding of the raw payload bytes to write after the tag.
type BroadcastRequest struct {
	Tag        uint16 `json:"tag" binding:"required"`
	PayloadHex string `json:"payloadHex"`
}

// Broadcast handles POST /broadcast: frames a message carrying the given
// tag and hex-decoded payload bytes, then fans it out via SendAll.
func (h *Handlers) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if netgram.IsReserved(netgram.Tag(req.Tag)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag is reserved for protocol use"})
		return
	}
	payload, err := hex.DecodeString(req.PayloadHex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payloadHex is not valid hex"})
		return
	}

	// +1 of headroom: the codec's write bounds check is strict ("<", not
	// "<="), so a buffer sized to fit exactly would reject the final byte.
	msg := netgram.NewOutgoingMessage(netgram.Tag(req.Tag), netgram.WireHeaderSize+len(payload)+1)
	msg.Writer().WriteBytes(payload)

	if err := h.server.SendAll(msg); err != nil {
		logger := h.logger()
		logger.Warn().Err(err).Msg("rest: broadcast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "broadcast failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) logger() zerolog.Logger {
	if h.log != nil {
		return *h.log
	}
	return log.Logger
}
