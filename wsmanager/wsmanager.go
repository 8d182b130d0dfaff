package wsmanager

import (
	"github.com/go-gotop/feedkit/websocket"
)

type WebsocketConfig struct {
	PingHandler func(appData string, conn websocket.WebSocketConn) error
	PongHandler func(appData string, conn websocket.WebSocketConn) error
}

// WebsocketManager 是 websocket 管理接口
type WebsocketManager interface {
	// AddWebsocket 创建并异步建立连接，req.ID 作为连接的唯一标识
	AddWebsocket(req *websocket.WebsocketRequest, conf *WebsocketConfig) (websocket.Websocket, error)
	CloseWebsocket(uniq string) error
	GetWebsocket(uniq string) websocket.Websocket
	GetWebsockets() map[string]websocket.Websocket
	IsConnected(uniq string) bool
	Shutdown() error
}
