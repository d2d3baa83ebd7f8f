package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"modulyn/internal/database"
	"modulyn/pkg/config"
	"modulyn/pkg/jwt"
	"modulyn/pkg/logger"
	"modulyn/pkg/queue"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler 实时变更推送处理器
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	queue      *queue.RedisQueue
	log        *logrus.Logger
	jwtManager *jwt.JWTManager
}

// subscribableTables 允许订阅的表
var subscribableTables = map[string]bool{
	"contacts":            true,
	"leads":               true,
	"deals":               true,
	"properties":          true,
	"tasks":               true,
	"members":             true,
	"events":              true,
	"event_registrations": true,
	"email_campaigns":     true,
	"notifications":       true,
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler() *WebSocketHandler {
	cfg := config.GetConfig()
	allowedOrigins := cfg.CORS.AllowOrigins

	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				for _, allowed := range allowedOrigins {
					if allowed == "*" {
						return true
					}
				}

				// Origin为空视为同源请求
				if origin == "" {
					return true
				}

				for _, allowed := range allowedOrigins {
					if matchOrigin(origin, allowed) {
						return true
					}
				}

				logger.GetLogger().Warnf("WebSocket连接被拒绝，非法Origin: %s", origin)
				return false
			},
			ReadBufferSize:  1024 * 32,
			WriteBufferSize: 1024 * 32,
		},
		queue:      database.GetRedisQueue(),
		log:        logger.GetLogger(),
		jwtManager: jwt.GetJWTManager(),
	}
}

// Subscribe 订阅指定表的行级变更。
// WebSocket不支持自定义header，token从查询参数传入
func (h *WebSocketHandler) Subscribe(c *gin.Context) {
	table := c.Param("table")
	if !subscribableTables[table] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持订阅该表"})
		return
	}

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证令牌"})
		return
	}

	claims, err := h.jwtManager.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的令牌"})
		return
	}

	// 订阅只覆盖当前组织的数据，无组织上下文直接拒绝
	if claims.CurrentOrgID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "尚未加入任何组织"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.WithFields(logrus.Fields{
		"user_id": claims.UserID,
		"org_id":  claims.CurrentOrgID,
		"table":   table,
	}).Info("WebSocket connection established")

	h.relayChanges(conn, claims.CurrentOrgID, table)
}

// relayChanges 订阅Redis变更频道并转发给客户端
func (h *WebSocketHandler) relayChanges(conn *websocket.Conn, orgID uint, table string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.queue.SubscribeChanges(ctx, orgID, table)
	defer pubsub.Close()

	// 等待订阅成功
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.WithError(err).Error("Failed to subscribe to Redis channel")
		return
	}

	go h.readPump(conn, cancel)

	ch := pubsub.Channel()
	const writeTimeout = 10 * time.Second

	pingTicker := time.NewTicker(60 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.WithError(err).Error("Failed to send ping")
				return
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event queue.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.WithError(err).Error("Failed to parse change event")
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.log.WithError(err).Error("Failed to send change event to client")
				return
			}
		}
	}
}

// readPump 处理客户端消息（主要是ping/pong）
func (h *WebSocketHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 300 * time.Second
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Error("WebSocket unexpected close")
			}
			break
		}
	}
}

// matchOrigin 检查origin是否匹配allowed模式
// 支持精确匹配和通配符匹配（如 *.example.com）
func matchOrigin(origin, allowed string) bool {
	if origin == allowed {
		return true
	}

	if strings.HasPrefix(allowed, "*.") {
		domain := allowed[2:]

		originHost := origin
		if idx := strings.Index(origin, "://"); idx != -1 {
			originHost = origin[idx+3:]
		}
		if idx := strings.Index(originHost, ":"); idx != -1 {
			originHost = originHost[:idx]
		}

		if originHost == domain {
			return true
		}
		if strings.HasSuffix(originHost, "."+domain) {
			return true
		}
	}

	return false
}
