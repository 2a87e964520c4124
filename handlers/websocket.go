package handlers

import (
	"net/http"

	"joservice/models"
	"joservice/services/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChannelRegistrar is the part of the realtime registry the upgrade handler needs.
type ChannelRegistrar interface {
	Register(p models.Principal, ch realtime.Channel)
}

type WebSocketHandler struct {
	Registry ChannelRegistrar
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts any origin when allowedOrigins is empty.
func NewWebSocketHandler(registry ChannelRegistrar, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WebSocketHandler{
		Registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// ServeWS upgrades an authenticated request and registers the connection for
// the caller's principal until it closes.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	logger := getLogger(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.String("principal", p.String()), zap.Error(err))
		return
	}
	h.Registry.Register(p, realtime.NewWSChannel(conn, logger))
	logger.Info("websocket connected", zap.String("principal", p.String()))
}
