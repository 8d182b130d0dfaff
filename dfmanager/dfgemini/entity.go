package dfgemini

import (
	"encoding/json"
)

const (
	messageTypeUpdate    = "update"
	messageTypeHeartbeat = "heartbeat"

	eventTypeChange = "change"
	eventTypeTrade  = "trade"

	sideAsk = "ask"
	sideBid = "bid"
)

type geminiUpdate struct {
	Type           string        `json:"type"`
	EventID        int64         `json:"eventId"`
	SocketSequence int64         `json:"socket_sequence"`
	Timestamp      int64         `json:"timestamp"`
	TimestampMs    int64         `json:"timestampms"`
	Events         []geminiEvent `json:"events"`
}

// geminiEvent change 与 trade 共用的字段集合
type geminiEvent struct {
	Type string `json:"type"`

	// change
	Side      string `json:"side"`
	Price     string `json:"price"`
	Remaining string `json:"remaining"`
	Delta     string `json:"delta"`
	Reason    string `json:"reason"`

	// trade
	TID       json.Number `json:"tid"`
	Amount    string      `json:"amount"`
	MakerSide string      `json:"makerSide"`
}
