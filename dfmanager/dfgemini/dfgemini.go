package dfgemini

import (
	"strings"
	"sync"
	"time"

	"github.com/go-gotop/feedkit/dfmanager"
	"github.com/go-gotop/feedkit/exchange"
	"github.com/go-gotop/feedkit/websocket"
	"github.com/go-gotop/feedkit/wsmanager"
	"github.com/go-gotop/feedkit/wsmanager/manager"
	"github.com/go-kratos/kratos/v2/log"
)

var _ dfmanager.MarketDataFeed = (*df)(nil)

// top-of-book 频道 key 的本地后缀，不会发送给交易所
const topOfBookSuffix = "-tob"

type mode int

const (
	modeTrades mode = iota
	modeLevel2Updates
	modeTickers
)

func (m mode) String() string {
	switch m {
	case modeTrades:
		return "trades"
	case modeLevel2Updates:
		return "level2updates"
	case modeTickers:
		return "tickers"
	}
	return "unknown"
}

// subscription 一个频道 key 的订阅状态，所有字段受 df.mux 保护
type subscription struct {
	market    exchange.Market
	key       string
	topOfBook bool

	trades        bool
	level2Updates bool
	tickers       bool

	// 当前连接，拆除或重连期间为空
	connID string
	ws     websocket.Websocket

	lastMessage  time.Time // 零值表示从未收到消息
	watchdog     *time.Timer
	watchdogSeq  uint64 // 每次停止看门狗递增，过期的定时回调据此失效
	reconnecting bool
}

func (s *subscription) enabled(m mode) bool {
	switch m {
	case modeTrades:
		return s.trades
	case modeLevel2Updates:
		return s.level2Updates
	case modeTickers:
		return s.tickers
	}
	return false
}

func (s *subscription) set(m mode, v bool) {
	switch m {
	case modeTrades:
		s.trades = v
	case modeLevel2Updates:
		s.level2Updates = v
	case modeTickers:
		s.tickers = v
	}
}

func channelKey(market exchange.Market, topOfBook bool) string {
	key := strings.ToLower(market.ID)
	if topOfBook {
		key += topOfBookSuffix
	}
	return key
}

func NewGeminiDataFeed(handler *dfmanager.FeedHandler, opts ...Option) dfmanager.MarketDataFeed {
	// 默认配置
	o := &options{
		wsEndpoint:       defaultEndpoint,
		logger:           log.NewHelper(log.DefaultLogger),
		watchdogInterval: defaultWatchdogInterval,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.wsm == nil {
		o.wsm = manager.NewManager(manager.WithLogger(o.logger))
	}
	if handler == nil {
		handler = &dfmanager.FeedHandler{}
	}

	return &df{
		name:    exchange.GeminiExchange,
		opts:    o,
		wsm:     o.wsm,
		handler: handler,
		subs:    make(map[string]*subscription),
		tickers: make(map[string]*tickerState),
		now:     time.Now,
	}
}

type df struct {
	name    string
	opts    *options
	wsm     wsmanager.WebsocketManager
	handler *dfmanager.FeedHandler

	mux     sync.Mutex
	subs    map[string]*subscription
	tickers map[string]*tickerState // 按 market.ID 缓存

	now func() time.Time
}

func (d *df) Name() string {
	return d.name
}

func (d *df) SubscribeTrades(market exchange.Market) error {
	return d.subscribe(market, modeTrades)
}

func (d *df) UnsubscribeTrades(market exchange.Market) error {
	return d.unsubscribe(market, modeTrades)
}

func (d *df) SubscribeLevel2Updates(market exchange.Market) error {
	return d.subscribe(market, modeLevel2Updates)
}

func (d *df) UnsubscribeLevel2Updates(market exchange.Market) error {
	return d.unsubscribe(market, modeLevel2Updates)
}

func (d *df) SubscribeTicker(market exchange.Market) error {
	return d.subscribe(market, modeTickers)
}

func (d *df) UnsubscribeTicker(market exchange.Market) error {
	return d.unsubscribe(market, modeTickers)
}

func (d *df) subscribe(market exchange.Market, m mode) error {
	if err := market.Validate(); err != nil {
		return err
	}
	topOfBook := m == modeTickers
	key := channelKey(market, topOfBook)

	d.mux.Lock()
	defer d.mux.Unlock()

	if sub, ok := d.subs[key]; ok {
		sub.set(m, true)
		return nil
	}

	sub := &subscription{
		market:    market,
		key:       key,
		topOfBook: topOfBook,
	}
	sub.set(m, true)
	d.subs[key] = sub

	if err := d.openLocked(sub); err != nil {
		delete(d.subs, key)
		return err
	}
	d.startWatchdogLocked(sub)
	d.opts.logger.Debugf("gemini subscribe %s on %s", m, key)
	return nil
}

// unsubscribe 总是按普通频道 key 查找订阅，top-of-book 频道只在 Close 时关闭
// 是否拆除只看 trades 和 level2Updates，tickers 不参与判断
func (d *df) unsubscribe(market exchange.Market, m mode) error {
	if err := market.Validate(); err != nil {
		return err
	}
	key := channelKey(market, false)

	d.mux.Lock()
	// ticker 缓存按 market 而不是频道 key 存放，不依赖下面是否找到订阅
	if m == modeTickers {
		delete(d.tickers, market.ID)
	}
	sub, ok := d.subs[key]
	if !ok {
		d.mux.Unlock()
		return nil
	}
	sub.set(m, false)
	if sub.trades || sub.level2Updates {
		d.mux.Unlock()
		return nil
	}

	d.stopWatchdogLocked(sub)
	id := d.detachLocked(sub)
	delete(d.subs, key)
	d.mux.Unlock()

	d.opts.logger.Debugf("gemini unsubscribe %s, close %s", m, key)
	if id != "" {
		d.closeConn(key, id)
	}
	return nil
}

func (d *df) Reconnect() {
	d.mux.Lock()
	subs := make([]*subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		subs = append(subs, sub)
	}
	d.mux.Unlock()

	for _, sub := range subs {
		d.reconnectSub(sub)
	}
}

func (d *df) Close() {
	d.mux.Lock()
	conns := make(map[string]string, len(d.subs))
	for key, sub := range d.subs {
		d.stopWatchdogLocked(sub)
		if id := d.detachLocked(sub); id != "" {
			conns[key] = id
		}
	}
	d.subs = make(map[string]*subscription)
	d.tickers = make(map[string]*tickerState)
	d.mux.Unlock()

	for key, id := range conns {
		d.closeConn(key, id)
	}
}

func (d *df) Streams() []dfmanager.Stream {
	d.mux.Lock()
	defer d.mux.Unlock()

	list := make([]dfmanager.Stream, 0, len(d.subs))
	for _, sub := range d.subs {
		s := dfmanager.Stream{
			ChannelKey:    sub.key,
			Market:        sub.market,
			TopOfBook:     sub.topOfBook,
			Trades:        sub.trades,
			Level2Updates: sub.level2Updates,
			Tickers:       sub.tickers,
		}
		if sub.ws != nil {
			s.IsConnected = sub.ws.IsConnected()
			s.Rate = sub.ws.GetCurrentRate()
			s.Duration = sub.ws.ConnectionDuration()
		}
		list = append(list, s)
	}
	return list
}
