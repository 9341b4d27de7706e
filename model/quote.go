package model

// Quote is an advisory fiat/crypto price row populated from an external
// price feed, keyed by level. Not consulted by the sync engine itself; kept
// here because the read API (out of scope) serves it from the same store.
type Quote struct {
	RowId int64 `gorm:"primaryKey"`
	Level int64 `gorm:"uniqueIndex"`
	Btc   float64
	Eur   float64
	Usd   float64
	Cny   float64
	Jpy   float64
	Krw   float64
	Eth   float64
	Gbp   float64
}

func (Quote) TableName() string { return "quotes" }
