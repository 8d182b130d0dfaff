package gorilla

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-gotop/feedkit/websocket"
	gwebsocket "github.com/gorilla/websocket"
)

var _ websocket.WebSocketConn = (*GorillaWebSocketConn)(nil)

const (
	handshakeTimeout = 10 * time.Second
	readLimit        = 655350
)

func NewGorillaWebSocketConn() *GorillaWebSocketConn {
	return &GorillaWebSocketConn{}
}

// GorillaWebSocketConn 每次 Dial 替换底层连接，Close 可与 Dial/ReadMessage 并发调用
type GorillaWebSocketConn struct {
	mux  sync.Mutex
	conn *gwebsocket.Conn
}

func (g *GorillaWebSocketConn) Dial(endpoint string, requestHeader http.Header) error {
	dialer := gwebsocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.Dial(endpoint, requestHeader)
	if err != nil {
		return err
	}
	conn.SetReadLimit(readLimit)

	g.mux.Lock()
	g.conn = conn
	g.mux.Unlock()
	return nil
}

func (g *GorillaWebSocketConn) current() *gwebsocket.Conn {
	g.mux.Lock()
	defer g.mux.Unlock()
	return g.conn
}

func (g *GorillaWebSocketConn) ReadMessage() (int, []byte, error) {
	conn := g.current()
	if conn == nil {
		return 0, nil, websocket.ErrNotConnected
	}
	return conn.ReadMessage()
}

func (g *GorillaWebSocketConn) WriteMessage(messageType int, data []byte) error {
	conn := g.current()
	if conn == nil {
		return websocket.ErrNotConnected
	}
	return conn.WriteMessage(messageType, data)
}

func (g *GorillaWebSocketConn) SetPingHandler(h func(appData string) error) {
	if conn := g.current(); conn != nil {
		conn.SetPingHandler(h)
	}
}

func (g *GorillaWebSocketConn) SetPongHandler(h func(appData string) error) {
	if conn := g.current(); conn != nil {
		conn.SetPongHandler(h)
	}
}

// Close 关闭当前底层连接，尚未建立或已关闭时返回 nil
func (g *GorillaWebSocketConn) Close() error {
	g.mux.Lock()
	conn := g.conn
	g.conn = nil
	g.mux.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
