package dfgemini

import (
	"errors"
	"net/url"

	"github.com/google/uuid"

	"github.com/go-gotop/feedkit/websocket"
	"github.com/go-gotop/feedkit/wsmanager"
	"github.com/go-gotop/feedkit/wsmanager/manager"
)

// endpoint 交易所地址只使用小写 market id，top-of-book 通过查询参数指定
func (d *df) endpoint(sub *subscription) string {
	q := url.Values{}
	q.Set("heartbeat", "true")
	query := q.Encode()
	if sub.topOfBook {
		query += "&top_of_book=true"
	}
	return d.opts.wsEndpoint + "/" + url.PathEscape(channelKey(sub.market, false)) + "?" + query
}

// openLocked 为订阅建立新连接，调用方持有 d.mux
// Connect 是异步的，连接回调会在锁释放后才能拿到锁
func (d *df) openLocked(sub *subscription) error {
	id := uuid.NewString()
	key := sub.key

	ws, err := d.wsm.AddWebsocket(&websocket.WebsocketRequest{
		ID:                  id,
		Endpoint:            d.endpoint(sub),
		ConnectingHandler:   d.connectingHandler(key),
		ConnectedHandler:    d.connectedHandler(key),
		DisconnectedHandler: d.disconnectedHandler(key),
		ClosingHandler:      d.closingHandler(key),
		ClosedHandler:       d.closedHandler(key),
		MessageHandler:      d.messageHandler(key, id),
		ErrorHandler:        d.errorHandler(key),
	}, &wsmanager.WebsocketConfig{})
	if err != nil {
		return err
	}

	sub.connID = id
	sub.ws = ws
	return nil
}

// detachLocked 解除订阅与当前连接的关联，返回旧连接 id
func (d *df) detachLocked(sub *subscription) string {
	id := sub.connID
	sub.connID = ""
	sub.ws = nil
	return id
}

// currentLocked 判断 id 是否仍是 key 对应订阅的当前连接，调用方持有 d.mux
func (d *df) currentLocked(key, id string) (*subscription, bool) {
	sub, ok := d.subs[key]
	if !ok || sub.connID != id {
		return nil, false
	}
	return sub, true
}

// closeConn 关闭连接并阻塞到关闭完成，不能在持有 d.mux 时调用
func (d *df) closeConn(key, id string) {
	err := d.wsm.CloseWebsocket(id)
	if err == nil || errors.Is(err, websocket.ErrAlreadyClosed) || errors.Is(err, manager.ErrWSNotFound) {
		return
	}
	d.opts.logger.Errorf("gemini close %s error: %v", key, err)
	d.handler.OnError(err, key)
}

func (d *df) connectingHandler(key string) func(id string) {
	return func(id string) {
		d.handler.OnConnecting(key)
	}
}

func (d *df) connectedHandler(key string) func(id string, conn websocket.WebSocketConn) {
	return func(id string, conn websocket.WebSocketConn) {
		d.mux.Lock()
		if sub, ok := d.currentLocked(key, id); ok {
			d.startWatchdogLocked(sub)
		}
		d.mux.Unlock()

		d.opts.logger.Infof("gemini %s connected", key)
		d.handler.OnConnected(key)
	}
}

func (d *df) disconnectedHandler(key string) func(id string) {
	return func(id string) {
		d.mux.Lock()
		if sub, ok := d.currentLocked(key, id); ok {
			d.stopWatchdogLocked(sub)
		}
		d.mux.Unlock()

		d.opts.logger.Warnf("gemini %s disconnected", key)
		d.handler.OnDisconnected(key)
	}
}

func (d *df) closingHandler(key string) func(id string) {
	return func(id string) {
		d.mux.Lock()
		if sub, ok := d.currentLocked(key, id); ok {
			d.stopWatchdogLocked(sub)
		}
		d.mux.Unlock()

		d.handler.OnClosing(key)
	}
}

func (d *df) closedHandler(key string) func(id string) {
	return func(id string) {
		d.handler.OnClosed(key)
	}
}

func (d *df) errorHandler(key string) func(id string, err error) {
	return func(id string, err error) {
		d.opts.logger.Errorf("gemini %s websocket error: %v", key, err)
		d.handler.OnError(err, key)
	}
}

func (d *df) messageHandler(key, id string) func(message []byte) {
	return func(message []byte) {
		d.mux.Lock()
		sub, ok := d.currentLocked(key, id)
		if !ok {
			d.mux.Unlock()
			d.opts.logger.Debugf("gemini drop message from stale connection %s", key)
			return
		}
		sub.lastMessage = d.now()
		view := subscriptionView{
			market:        sub.market,
			trades:        sub.trades,
			level2Updates: sub.level2Updates,
			tickers:       sub.tickers,
		}
		d.mux.Unlock()

		if err := d.handleMessage(view, message); err != nil {
			d.opts.logger.Errorf("gemini %s normalize error: %v", key, err)
			d.handler.OnError(err, key)
		}
	}
}
