package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrAlreadyClosed 连接已经在关闭中或已关闭
	ErrAlreadyClosed = errors.New("websocket already closing or closed")
	// ErrNotConnected 连接尚未建立
	ErrNotConnected = errors.New("websocket not connected")
)

//go:generate mockgen -destination=mock/websocket.go -package=mock_websocket . WebSocketConn,Websocket
type WebSocketConn interface {
	Dial(endpoint string, requestHeader http.Header) error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// WebsocketConfig 结构体定义了WebSocket实例的配置选项
type WebsocketConfig struct {
	PingHandler func(appData string) error
	PongHandler func(appData string) error
	// NewBackOff 断线重连的退避策略，为 nil 时使用指数退避
	NewBackOff func() backoff.BackOff
}

type WebsocketRequest struct {
	// Endpoint 是Websocket服务器的地址
	Endpoint string

	// ID 是Websocket连接的唯一标识符
	ID string

	// 生命周期回调，均在连接自己的协程或调用 Disconnect 的协程中执行
	ConnectingHandler   func(id string)
	ConnectedHandler    func(id string, conn WebSocketConn)
	DisconnectedHandler func(id string)
	ClosingHandler      func(id string)
	ClosedHandler       func(id string)

	// MessageHandler 是Websocket消息处理函数
	MessageHandler func(message []byte)

	// ErrorHandler 是Websocket错误处理函数
	ErrorHandler func(id string, err error)
}

// Websocket 接口定义了基本的连接管理操作
type Websocket interface {
	// Connect 方法异步建立Websocket连接，断线后自动重连直到 Disconnect
	// req 参数是连接请求的相关信息
	Connect(req *WebsocketRequest) error

	// Disconnect 方法用于关闭Websocket连接，返回时连接已完全关闭
	// 重复调用返回 ErrAlreadyClosed
	Disconnect() error

	// IsConnected 方法用于检查Websocket连接是否处于活跃状态
	// 返回 true 表示连接是活跃的，false 表示连接已经关闭或尚未建立
	IsConnected() bool

	WriteMessage(messageType int, data []byte) error

	// GetCurrentRate 方法用于获取当前的通讯速率
	// 返回值是每秒接收的消息数
	GetCurrentRate() int

	// ConnectionDuration 方法用于获取当前连接的持续时间
	ConnectionDuration() time.Duration
}
