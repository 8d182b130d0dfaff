package dfgemini

import "time"

// startWatchdogLocked 重新开始计时，调用方持有 d.mux
func (d *df) startWatchdogLocked(sub *subscription) {
	d.stopWatchdogLocked(sub)
	seq := sub.watchdogSeq
	sub.watchdog = time.AfterFunc(d.opts.watchdogInterval, func() {
		d.checkWatchdog(sub, seq)
	})
}

// stopWatchdogLocked 停止计时并使已触发但未执行的回调失效
func (d *df) stopWatchdogLocked(sub *subscription) {
	sub.watchdogSeq++
	if sub.watchdog != nil {
		sub.watchdog.Stop()
		sub.watchdog = nil
	}
}

func (d *df) checkWatchdog(sub *subscription, seq uint64) {
	d.mux.Lock()
	if d.subs[sub.key] != sub || sub.watchdogSeq != seq {
		d.mux.Unlock()
		return
	}
	sub.watchdog = nil

	if !sub.lastMessage.IsZero() && d.now().Sub(sub.lastMessage) <= d.opts.watchdogInterval {
		d.startWatchdogLocked(sub)
		d.mux.Unlock()
		return
	}
	d.mux.Unlock()

	d.opts.logger.Warnf("gemini %s no message for %s, reconnect", sub.key, d.opts.watchdogInterval)
	d.reconnectSub(sub)
}

// reconnectSub 关闭当前连接，关闭完成后为同一订阅建立新连接
func (d *df) reconnectSub(sub *subscription) {
	d.mux.Lock()
	if d.subs[sub.key] != sub || sub.reconnecting {
		d.mux.Unlock()
		return
	}
	sub.reconnecting = true
	d.stopWatchdogLocked(sub)
	id := d.detachLocked(sub)
	d.mux.Unlock()

	d.handler.OnReconnecting(sub.key)
	if id != "" {
		d.closeConn(sub.key, id)
	}

	d.mux.Lock()
	sub.reconnecting = false
	if d.subs[sub.key] != sub {
		d.mux.Unlock()
		return
	}
	err := d.openLocked(sub)
	// 建立失败时看门狗下次触发会再次重连
	d.startWatchdogLocked(sub)
	d.mux.Unlock()

	if err != nil {
		d.opts.logger.Errorf("gemini %s reconnect error: %v", sub.key, err)
		d.handler.OnError(err, sub.key)
	}
}
