package exchange

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SideType buy, sell
type SideType string

// MarketType spot, futures
type MarketType string

// Global enums
const (
	GeminiExchange = "GEMINI"

	MarketTypeSpot    MarketType = "spot"
	MarketTypeFutures MarketType = "futures"

	SideTypeBuy  SideType = "buy"
	SideTypeSell SideType = "sell"

	// Level2 变更原因
	ReasonInitial = "initial"
	ReasonPlace   = "place"
	ReasonTrade   = "trade"
	ReasonCancel  = "cancel"
	ReasonTop     = "top-of-book"
)

var (
	// ErrMarketIDEmpty 交易对标识为空
	ErrMarketIDEmpty = errors.New("market id is empty")
)

// Market 交易对，由调用方构造，feed 内部只读
type Market struct {
	// ID 交易所原始交易对名称，如 btcusd
	ID string
	// Base 基础资产
	Base string
	// Quote 计价资产
	Quote string
	// Type 种类: spot, futures
	Type MarketType
}

// Validate 检查交易对是否可用于订阅
func (m Market) Validate() error {
	if m.ID == "" {
		return ErrMarketIDEmpty
	}
	return nil
}

// Level2Meta 深度变更附带信息
type Level2Meta struct {
	// Reason 变更原因: initial, place, trade, cancel, top-of-book
	Reason string
	// Delta 本次变更的数量
	Delta string
}

// Level2Point 一个价位的深度变更
type Level2Point struct {
	Price decimal.Decimal
	// Size 该价位剩余数量
	Size decimal.Decimal
	// Count 该价位的订单数，交易所未提供时为 nil
	Count *int64
	Meta  Level2Meta
}
