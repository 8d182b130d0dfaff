package gorilla

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-gotop/feedkit/websocket"
)

var _ websocket.Websocket = (*GorillaWebsocket)(nil)

const (
	stateIdle int32 = iota
	stateConnecting
	stateConnected
	stateDisconnected
	stateClosing
	stateClosed
)

func NewGorillaWebsocket(conn websocket.WebSocketConn, config *websocket.WebsocketConfig) *GorillaWebsocket {
	if config == nil {
		config = &websocket.WebsocketConfig{}
	}
	g := &GorillaWebsocket{
		conn:    conn,
		config:  config,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	return g
}

// GorillaWebsocket 是 Websocket 接口的实现
// 连接在独立协程中建立和读取，断开后按退避策略重连，直到调用 Disconnect
type GorillaWebsocket struct {
	messageCount uint64
	state        int32
	dispatching  int32 // 读协程正在执行的回调数
	conn         websocket.WebSocketConn
	config       *websocket.WebsocketConfig
	req          *websocket.WebsocketRequest
	closeCh      chan struct{}
	doneCh       chan struct{}
	closeOnce    sync.Once
	startOnce    sync.Once
	mux          sync.Mutex
	started      bool
	connectTime  time.Time
}

func (w *GorillaWebsocket) Connect(req *websocket.WebsocketRequest) error {
	if w.isClosing() {
		return websocket.ErrAlreadyClosed
	}
	w.startOnce.Do(func() {
		w.mux.Lock()
		w.req = req
		w.started = true
		w.mux.Unlock()
		go w.run(req)
	})
	return nil
}

func (w *GorillaWebsocket) newBackOff() backoff.BackOff {
	if w.config.NewBackOff != nil {
		return w.config.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	// 不设置总时长上限，一直重试直到被关闭
	b.MaxElapsedTime = 0
	return b
}

func (w *GorillaWebsocket) run(req *websocket.WebsocketRequest) {
	defer close(w.doneCh) // 确保此方法退出时标记doneCh为已完成

	bo := w.newBackOff()
	for {
		if w.isClosing() {
			return
		}
		w.setState(stateConnecting)
		if req.ConnectingHandler != nil {
			w.dispatch(func() { req.ConnectingHandler(req.ID) })
		}

		if err := w.conn.Dial(req.Endpoint, nil); err != nil {
			if w.isClosing() {
				return
			}
			w.setState(stateDisconnected)
			if req.ErrorHandler != nil {
				w.dispatch(func() { req.ErrorHandler(req.ID, err) })
			}
			if !w.wait(bo.NextBackOff()) {
				return
			}
			continue
		}
		if w.isClosing() {
			// Dial 期间被关闭，释放刚建立的连接
			w.conn.Close()
			return
		}

		bo.Reset()
		w.configure()
		w.mux.Lock()
		w.connectTime = time.Now()
		w.mux.Unlock()
		atomic.StoreUint64(&w.messageCount, 0)
		w.setState(stateConnected)
		if req.ConnectedHandler != nil {
			w.dispatch(func() { req.ConnectedHandler(req.ID, w.conn) })
		}

		err := w.readMessages(req)
		if w.isClosing() {
			return
		}

		// 读取消息时发生错误，标识连接已断开
		w.setState(stateDisconnected)
		w.conn.Close()
		if req.ErrorHandler != nil {
			w.dispatch(func() { req.ErrorHandler(req.ID, err) })
		}
		if req.DisconnectedHandler != nil {
			w.dispatch(func() { req.DisconnectedHandler(req.ID) })
		}
		if !w.wait(bo.NextBackOff()) {
			return
		}
	}
}

// wait 等待下一次重连，被关闭或退避策略停止时返回 false
func (w *GorillaWebsocket) wait(d time.Duration) bool {
	if d == backoff.Stop {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.closeCh:
		return false
	case <-t.C:
		return true
	}
}

func (w *GorillaWebsocket) configure() {
	if w.config.PingHandler != nil {
		w.conn.SetPingHandler(w.config.PingHandler)
	}
	if w.config.PongHandler != nil {
		w.conn.SetPongHandler(w.config.PongHandler)
	}
}

func (w *GorillaWebsocket) readMessages(req *websocket.WebsocketRequest) error {
	for {
		select {
		case <-w.closeCh: // 如果收到关闭信号，则立即退出循环
			return nil
		default:
			_, message, err := w.conn.ReadMessage()
			if err != nil {
				return err
			}
			atomic.AddUint64(&w.messageCount, 1)
			if req.MessageHandler != nil {
				w.dispatch(func() { req.MessageHandler(message) }) // 处理接收到的消息
			}
		}
	}
}

// dispatch 在读协程中执行回调，回调内可以调用 Disconnect
func (w *GorillaWebsocket) dispatch(fn func()) {
	atomic.AddInt32(&w.dispatching, 1)
	defer atomic.AddInt32(&w.dispatching, -1)
	fn()
}

func (w *GorillaWebsocket) ID() string {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.req == nil {
		return ""
	}
	return w.req.ID
}

func (w *GorillaWebsocket) Disconnect() error {
	first := false
	w.closeOnce.Do(func() {
		first = true
	})
	if !first {
		return websocket.ErrAlreadyClosed
	}

	w.mux.Lock()
	req := w.req
	started := w.started
	w.mux.Unlock()

	w.setState(stateClosing)
	if req != nil && req.ClosingHandler != nil {
		req.ClosingHandler(req.ID)
	}

	close(w.closeCh) // 通知读协程退出
	err := w.conn.Close()
	// 读协程正在执行回调时不等待，调用方可能就是这个回调
	// 连接已关闭，回调返回后读协程看到 closeCh 即退出
	if started && atomic.LoadInt32(&w.dispatching) == 0 {
		<-w.doneCh // 确保读协程已经结束
	}

	w.setState(stateClosed)
	if req != nil && req.ClosedHandler != nil {
		req.ClosedHandler(req.ID)
	}
	return err
}

func (w *GorillaWebsocket) IsConnected() bool {
	return atomic.LoadInt32(&w.state) == stateConnected
}

func (w *GorillaWebsocket) WriteMessage(messageType int, data []byte) error {
	if !w.IsConnected() {
		return websocket.ErrNotConnected
	}
	return w.conn.WriteMessage(messageType, data)
}

func (w *GorillaWebsocket) GetCurrentRate() int {
	elapsed := w.ConnectionDuration().Seconds()
	if elapsed == 0 {
		return 0
	}
	// 使用atomic.LoadUint64确保读取的原子性
	count := atomic.LoadUint64(&w.messageCount)
	rate := float64(count) / elapsed
	return int(rate) // 返回每秒消息数
}

func (w *GorillaWebsocket) ConnectionDuration() time.Duration {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.connectTime.IsZero() {
		return 0
	}
	return time.Since(w.connectTime)
}

func (w *GorillaWebsocket) setState(s int32) {
	atomic.StoreInt32(&w.state, s)
}

func (w *GorillaWebsocket) isClosing() bool {
	select {
	case <-w.closeCh:
		return true
	default:
		return false
	}
}
