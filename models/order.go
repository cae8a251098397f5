package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Status order yang dikirim server. Client tidak pernah mengubah status
// secara lokal, semua transisi datang dari re-fetch.
const (
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderItem menormalkan payload server yang tidak konsisten
// (price vs unit_price, qty vs quantity) menjadi satu bentuk kanonik.
type OrderItem struct {
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	Notes     string `json:"notes,omitempty"`
}

func (oi *OrderItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemName  string   `json:"item_name"`
		Name      string   `json:"name"`
		Quantity  *FlexInt `json:"quantity"`
		Qty       *FlexInt `json:"qty"`
		UnitPrice *Money   `json:"unit_price"`
		Price     *Money   `json:"price"`
		Notes     string   `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	oi.ItemName = raw.ItemName
	if oi.ItemName == "" {
		oi.ItemName = raw.Name
	}
	switch {
	case raw.Quantity != nil:
		oi.Quantity = int(*raw.Quantity)
	case raw.Qty != nil:
		oi.Quantity = int(*raw.Qty)
	}
	switch {
	case raw.UnitPrice != nil:
		oi.UnitPrice = *raw.UnitPrice
	case raw.Price != nil:
		oi.UnitPrice = *raw.Price
	}
	oi.Notes = raw.Notes
	return nil
}

// Subtotal = harga satuan * jumlah.
func (oi *OrderItem) Subtotal() float64 {
	return oi.UnitPrice.Float64() * float64(oi.Quantity)
}

type Order struct {
	ID           uint        `json:"id"`
	Status       string      `json:"status"`
	CustomerName string      `json:"customer_name"`
	TableNumber  string      `json:"table_number,omitempty"`
	Items        []OrderItem `json:"items"`
	TotalAmount  Money       `json:"total_amount"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Cancelled -> status dibandingkan case-insensitive karena server
// tidak konsisten soal kapitalisasi.
func (o *Order) Cancelled() bool {
	return strings.EqualFold(o.Status, OrderStatusCancelled)
}

// JoinRequest adalah diner yang menunggu approval host.
type JoinRequest struct {
	ID           uint   `json:"id"`
	CustomerName string `json:"customer_name"`
}

// ActiveGuest adalah diner yang sudah diberi akses oleh host.
type ActiveGuest struct {
	ID           uint   `json:"id"`
	CustomerName string `json:"customer_name"`
}

// HostTableData adalah view host atas mejanya. Varian API lama
// mengembalikan bare array pending request, bukan objek.
type HostTableData struct {
	Pending []JoinRequest `json:"pending"`
	Guests  []ActiveGuest `json:"guests"`
}

func (h *HostTableData) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		h.Guests = nil
		return json.Unmarshal(data, &h.Pending)
	}
	type alias HostTableData
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*h = HostTableData(a)
	return nil
}

// OrderDraft adalah body POST /orders yang dibangun dari cart.
type OrderDraft struct {
	RestaurantID string          `json:"restaurant_id"`
	TableID      string          `json:"table_id"`
	SessionToken string          `json:"session_token"`
	Notes        string          `json:"notes,omitempty"`
	Items        []OrderDraftItem `json:"items"`
}

type OrderDraftItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}
