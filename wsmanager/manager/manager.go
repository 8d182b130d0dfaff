package manager

import (
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-gotop/feedkit/limiter"
	"github.com/go-gotop/feedkit/websocket"
	"github.com/go-gotop/feedkit/websocket/gorilla"
	"github.com/go-gotop/feedkit/wsmanager"
	"github.com/go-kratos/kratos/v2/log"
)

var _ wsmanager.WebsocketManager = (*Manager)(nil)

var (
	// 错误定义
	ErrMaxConnReached = errors.New("max connection reached")
	ErrWSNotFound     = errors.New("websocket not found")
	ErrWSExists       = errors.New("websocket already exists")
	ErrLimitExceed    = errors.New("websocket request too frequent, please try again later")
)

type Manager struct {
	config *connConfig                    // 连接配置
	mux    sync.Mutex                     // 互斥锁
	wsSets map[string]websocket.Websocket // websocket 集合
}

func NewManager(opts ...ConnConfig) *Manager {
	config := &connConfig{
		logger:      log.NewHelper(log.DefaultLogger),
		maxConn:     100,
		connLimiter: limiter.Unlimited{},
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.factory == nil {
		config.factory = gorillaFactory(config.newBackOff)
	}

	return &Manager{
		config: config,
		wsSets: make(map[string]websocket.Websocket),
	}
}

func gorillaFactory(newBackOff func() backoff.BackOff) WebsocketFactory {
	return func(conf *wsmanager.WebsocketConfig) websocket.Websocket {
		conn := gorilla.NewGorillaWebSocketConn()
		wc := &websocket.WebsocketConfig{
			NewBackOff: newBackOff,
		}

		// ping pong 处理函数，未设置时使用 gorilla 默认处理
		if conf != nil && conf.PingHandler != nil {
			wc.PingHandler = func(appData string) error {
				return conf.PingHandler(appData, conn)
			}
		}
		if conf != nil && conf.PongHandler != nil {
			wc.PongHandler = func(appData string) error {
				return conf.PongHandler(appData, conn)
			}
		}

		return gorilla.NewGorillaWebsocket(conn, wc)
	}
}

func (b *Manager) AddWebsocket(req *websocket.WebsocketRequest, conf *wsmanager.WebsocketConfig) (websocket.Websocket, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	if _, ok := b.wsSets[req.ID]; ok {
		return nil, ErrWSExists
	}

	// 最大连接数限制
	if len(b.wsSets) >= b.config.maxConn {
		return nil, ErrMaxConnReached
	}

	// websocket连接频率限制
	if !b.config.connLimiter.WsAllow() {
		return nil, ErrLimitExceed
	}

	ws := b.config.factory(conf)
	if err := ws.Connect(req); err != nil {
		return nil, err
	}

	b.wsSets[req.ID] = ws
	return ws, nil
}

// CloseWebsocket 从集合中移除并关闭连接，关闭过程在锁外完成
func (b *Manager) CloseWebsocket(uniq string) error {
	b.mux.Lock()
	ws := b.wsSets[uniq]
	if ws == nil {
		b.mux.Unlock()
		return ErrWSNotFound
	}
	delete(b.wsSets, uniq)
	b.mux.Unlock()

	return ws.Disconnect()
}

func (b *Manager) GetWebsocket(uniq string) websocket.Websocket {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.wsSets[uniq]
}

func (b *Manager) GetWebsockets() map[string]websocket.Websocket {
	b.mux.Lock()
	defer b.mux.Unlock()

	sets := make(map[string]websocket.Websocket, len(b.wsSets))
	for k, v := range b.wsSets {
		sets[k] = v
	}
	return sets
}

func (b *Manager) IsConnected(uniq string) bool {
	ws := b.GetWebsocket(uniq)
	if ws == nil {
		return false
	}
	return ws.IsConnected()
}

// Shutdown 关闭全部连接，已关闭的连接不视为错误
func (b *Manager) Shutdown() error {
	b.mux.Lock()
	sets := b.wsSets
	b.wsSets = make(map[string]websocket.Websocket)
	b.mux.Unlock()

	var errs []error
	for uniq, ws := range sets {
		if err := ws.Disconnect(); err != nil && !errors.Is(err, websocket.ErrAlreadyClosed) {
			b.config.logger.Errorf("close websocket %s error: %v", uniq, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
