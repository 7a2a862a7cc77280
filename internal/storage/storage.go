package storage

import "swapRouter/internal/model"

// Storage defines a sink for trade journal records.
type Storage interface {
	PutTradeBatch(trades []model.TradeRecord) error
}
