package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeExecuted accounts for one execution between a buy and a sell order.
// Price is always the sell order's limit price.
type TradeExecuted struct {
	ID          uuid.UUID
	Instrument  int
	Quantity    int64
	Price       float64
	BuyOrderID  uint64
	SellOrderID uint64
	Time        time.Time
}

func (t TradeExecuted) String() string {
	return fmt.Sprintf(
		"Matched Instrument %d: Trade Qty = %d at Price = %g (buy %d, sell %d)",
		t.Instrument,
		t.Quantity,
		t.Price,
		t.BuyOrderID,
		t.SellOrderID,
	)
}
