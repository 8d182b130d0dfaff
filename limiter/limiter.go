package limiter

type Limiter interface {
	// WsAllow 是否允许新建一次 websocket 连接
	WsAllow() bool
}

// Unlimited 不做任何限制
type Unlimited struct{}

func (Unlimited) WsAllow() bool {
	return true
}
