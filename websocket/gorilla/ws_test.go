package gorilla

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/go-gotop/feedkit/websocket"
	mock_websocket "github.com/go-gotop/feedkit/websocket/mock"
)

var errDrop = errors.New("connection reset by peer")

func TestSuite(t *testing.T) {
	suite.Run(t, new(websocketTestSuite))
}

type websocketTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	mws  *mock_websocket.MockWebSocketConn

	release     chan struct{}
	releaseOnce sync.Once
	closeCalls  int32

	mux       sync.Mutex
	signals   []string
	errs      []error
	messages  chan []byte
	connected chan struct{}
}

func (w *websocketTestSuite) SetupTest() {
	w.ctrl = gomock.NewController(w.T())
	w.mws = mock_websocket.NewMockWebSocketConn(w.ctrl)
	w.release = make(chan struct{})
	w.releaseOnce = sync.Once{}
	w.closeCalls = 0
	w.signals = nil
	w.errs = nil
	w.messages = make(chan []byte, 10)
	w.connected = make(chan struct{}, 10)
}

func (w *websocketTestSuite) record(s string) {
	w.mux.Lock()
	defer w.mux.Unlock()
	w.signals = append(w.signals, s)
}

func (w *websocketTestSuite) recorded() []string {
	w.mux.Lock()
	defer w.mux.Unlock()
	return append([]string(nil), w.signals...)
}

func (w *websocketTestSuite) count(s string) int {
	n := 0
	for _, v := range w.recorded() {
		if v == s {
			n++
		}
	}
	return n
}

func (w *websocketTestSuite) request() *websocket.WebsocketRequest {
	return &websocket.WebsocketRequest{
		Endpoint:          "wss://test",
		ID:                "test",
		ConnectingHandler: func(id string) { w.record("connecting") },
		ConnectedHandler: func(id string, conn websocket.WebSocketConn) {
			w.record("connected")
			w.connected <- struct{}{}
		},
		DisconnectedHandler: func(id string) { w.record("disconnected") },
		ClosingHandler:      func(id string) { w.record("closing") },
		ClosedHandler:       func(id string) { w.record("closed") },
		MessageHandler: func(message []byte) {
			w.messages <- message
		},
		ErrorHandler: func(id string, err error) {
			w.mux.Lock()
			w.errs = append(w.errs, err)
			w.mux.Unlock()
		},
	}
}

// blockingRead 阻塞直到连接被关闭
func (w *websocketTestSuite) blockingRead() (int, []byte, error) {
	<-w.release
	return 0, nil, errors.New("use of closed network connection")
}

// releaseAfter 第 n 次调用 Close 时解除阻塞的读取
func (w *websocketTestSuite) releaseAfter(n int32) func() error {
	return func() error {
		if atomic.AddInt32(&w.closeCalls, 1) >= n {
			w.releaseOnce.Do(func() { close(w.release) })
		}
		return nil
	}
}

func constantBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func (w *websocketTestSuite) TestConnect() {
	ws := NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{})

	w.mws.EXPECT().Dial("wss://test", gomock.Any()).Return(nil)
	first := true
	w.mws.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
		if first {
			first = false
			return 1, []byte("message 1"), nil
		}
		return w.blockingRead()
	}).AnyTimes()
	w.mws.EXPECT().Close().DoAndReturn(w.releaseAfter(1)).AnyTimes()

	w.Require().NoError(ws.Connect(w.request()))

	select {
	case msg := <-w.messages:
		w.Equal("message 1", string(msg))
	case <-time.After(time.Second):
		w.FailNow("message not delivered")
	}
	w.True(ws.IsConnected())
	w.Equal("test", ws.ID())

	w.NoError(ws.Disconnect())
	w.False(ws.IsConnected())
	w.Equal([]string{"connecting", "connected", "closing", "closed"}, w.recorded())

	w.ErrorIs(ws.Disconnect(), websocket.ErrAlreadyClosed)
	w.Equal(1, w.count("closed"))
}

func (w *websocketTestSuite) TestRedialAfterDrop() {
	ws := NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{NewBackOff: constantBackOff})

	w.mws.EXPECT().Dial("wss://test", gomock.Any()).Return(nil).Times(2)
	var reads int32
	w.mws.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
		if atomic.AddInt32(&reads, 1) == 1 {
			return 0, nil, errDrop
		}
		return w.blockingRead()
	}).AnyTimes()
	// 第一次 Close 来自断线后的清理，第二次来自 Disconnect
	w.mws.EXPECT().Close().DoAndReturn(w.releaseAfter(2)).AnyTimes()

	w.Require().NoError(ws.Connect(w.request()))
	for i := 0; i < 2; i++ {
		select {
		case <-w.connected:
		case <-time.After(time.Second):
			w.FailNow("connection not re-established")
		}
	}

	w.NoError(ws.Disconnect())
	w.Equal(2, w.count("connected"))
	w.Equal(1, w.count("disconnected"))
	w.mux.Lock()
	w.Equal([]error{errDrop}, w.errs)
	w.mux.Unlock()
}

func (w *websocketTestSuite) TestDialFailureRetries() {
	ws := NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{NewBackOff: constantBackOff})

	dialErr := errors.New("dial tcp: connection refused")
	gomock.InOrder(
		w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(dialErr),
		w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil),
	)
	w.mws.EXPECT().ReadMessage().DoAndReturn(w.blockingRead).AnyTimes()
	w.mws.EXPECT().Close().DoAndReturn(w.releaseAfter(1)).AnyTimes()

	w.Require().NoError(ws.Connect(w.request()))
	select {
	case <-w.connected:
	case <-time.After(time.Second):
		w.FailNow("connection not established after dial failure")
	}
	w.NoError(ws.Disconnect())

	w.Equal(2, w.count("connecting"))
	w.mux.Lock()
	w.Equal([]error{dialErr}, w.errs)
	w.mux.Unlock()
}

func (w *websocketTestSuite) TestDisconnectBeforeConnect() {
	ws := NewGorillaWebsocket(w.mws, nil)
	w.mws.EXPECT().Close().Return(nil)

	w.NoError(ws.Disconnect())
	w.ErrorIs(ws.Disconnect(), websocket.ErrAlreadyClosed)
	w.ErrorIs(ws.Connect(w.request()), websocket.ErrAlreadyClosed)
	w.Zero(ws.ConnectionDuration())
	w.Zero(ws.GetCurrentRate())
}

func (w *websocketTestSuite) TestConfigurePingHandler() {
	ws := NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{
		PingHandler: func(appData string) error { return nil },
	})

	w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil)
	w.mws.EXPECT().SetPingHandler(gomock.Any())
	w.mws.EXPECT().ReadMessage().DoAndReturn(w.blockingRead).AnyTimes()
	w.mws.EXPECT().Close().DoAndReturn(w.releaseAfter(1)).AnyTimes()

	w.Require().NoError(ws.Connect(w.request()))
	select {
	case <-w.connected:
	case <-time.After(time.Second):
		w.FailNow("connection not established")
	}
	w.NoError(ws.Disconnect())
}

func (w *websocketTestSuite) TestWriteMessageNotConnected() {
	ws := NewGorillaWebsocket(w.mws, nil)
	w.ErrorIs(ws.WriteMessage(1, []byte("ping")), websocket.ErrNotConnected)
}

func (w *websocketTestSuite) TestDisconnectFromMessageHandler() {
	ws := NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{})

	w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil)
	var reads int32
	w.mws.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
		if atomic.AddInt32(&reads, 1) == 1 {
			return 1, []byte("bye"), nil
		}
		return w.blockingRead()
	}).AnyTimes()
	w.mws.EXPECT().Close().DoAndReturn(w.releaseAfter(1)).AnyTimes()

	done := make(chan error, 1)
	req := w.request()
	req.MessageHandler = func(message []byte) {
		done <- ws.Disconnect()
	}
	w.Require().NoError(ws.Connect(req))

	select {
	case err := <-done:
		w.NoError(err)
	case <-time.After(time.Second):
		w.FailNow("Disconnect inside MessageHandler did not return")
	}

	// 读协程在回调返回后退出
	select {
	case <-ws.doneCh:
	case <-time.After(time.Second):
		w.FailNow("read loop did not exit")
	}
	w.False(ws.IsConnected())
	w.Equal(1, w.count("closed"))
	w.Equal(0, w.count("disconnected"))
	w.Equal(int32(1), atomic.LoadInt32(&reads))
}
