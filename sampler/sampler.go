package sampler

import (
	"github.com/go-gotop/feedkit/exchange"
	"github.com/shopspring/decimal"
)

type PricePoint struct {
	Timestamp int64
	Price     decimal.Decimal
}

// AggregatedTrade 一个采样区间内的成交汇总
type AggregatedTrade struct {
	Base           string
	Quote          string
	SellCount      uint64
	BuyCount       uint64
	Timestamp      int64 // 区间起始时间(毫秒)
	OpenPrice      PricePoint
	ClosePrice     PricePoint
	HighestPrice   PricePoint
	LowestPrice    PricePoint
	TotalBuySize   decimal.Decimal
	TotalSellSize  decimal.Decimal
	TotalBuyQuote  decimal.Decimal
	TotalSellQuote decimal.Decimal
}

// Difference 按高低点出现的先后计算涨跌幅度
func (a *AggregatedTrade) Difference() decimal.Decimal {
	head, tail := a.PriceRange()
	return tail.Price.Sub(head.Price)
}

// PriceRange returns the prices at the highest and lowest points.
func (a *AggregatedTrade) PriceRange() (head PricePoint, tail PricePoint) {
	head = a.HighestPrice
	tail = a.LowestPrice
	if a.HighestPrice.Timestamp > a.LowestPrice.Timestamp {
		head = a.LowestPrice
		tail = a.HighestPrice
	}
	return
}

func (a *AggregatedTrade) IsUp() bool {
	head, tail := a.PriceRange()
	return tail.Price.GreaterThan(head.Price)
}

func (a *AggregatedTrade) Equal() bool {
	return a.HighestPrice.Price.Equal(a.LowestPrice.Price)
}

// Sampler is the interface that wraps the basic Sample method.
type Sampler interface {
	// Sample 输入一笔成交，区间结束时返回上一个区间的汇总，否则返回 nil
	Sample(te *exchange.TradeEvent) *AggregatedTrade
	// Flush 返回尚未结束的区间并清空
	Flush() *AggregatedTrade
}
