package screens

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/cart"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/session"
	"github.com/yeremiapane/tableside/utils"
)

// ErrSessionExpired: server menjawab 401/403 saat order dikirim. Sesi
// sudah dibersihkan paksa, diner harus mulai dari awal.
var ErrSessionExpired = errors.New("session expired, please start again")

// OrderFlow adalah layar menu + checkout milik satu diner: cart,
// catatan order, dan pengiriman order.
type OrderFlow struct {
	mu        sync.Mutex
	placing   bool
	orderNote string

	api  *api.Client
	neg  *session.Negotiator
	cart *cart.Cart
}

func NewOrderFlow(apiClient *api.Client, neg *session.Negotiator) *OrderFlow {
	return &OrderFlow{
		api:  apiClient,
		neg:  neg,
		cart: cart.New(),
	}
}

func (f *OrderFlow) Cart() *cart.Cart {
	return f.cart
}

func (f *OrderFlow) SetOrderNote(note string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderNote = note
}

func (f *OrderFlow) OrderNote() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderNote
}

// PlaceOrder mengirim isi cart sebagai order. No-op (tanpa network call)
// bila submission lain masih jalan, sesi tidak punya token, atau cart
// kosong. Sukses mengosongkan cart + catatan dan me-refresh daftar order
// dari server; tidak ada order lokal yang disintesis.
func (f *OrderFlow) PlaceOrder(ctx context.Context) error {
	f.mu.Lock()
	if f.placing {
		f.mu.Unlock()
		return nil
	}

	sess := f.neg.Session()
	if sess == nil || sess.SessionToken == "" {
		f.mu.Unlock()
		return nil
	}

	menu := f.neg.Menu()
	lines := f.cart.Lines(menu)
	totalQty := 0
	for _, line := range lines {
		totalQty += line.Qty
	}
	if totalQty == 0 {
		f.mu.Unlock()
		return nil
	}

	f.placing = true
	note := strings.TrimSpace(f.orderNote)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.placing = false
		f.mu.Unlock()
	}()

	draft := &models.OrderDraft{
		RestaurantID: sess.RestaurantID,
		TableID:      sess.TableID,
		SessionToken: sess.SessionToken,
		Notes:        note,
	}
	for _, line := range lines {
		draft.Items = append(draft.Items, models.OrderDraftItem{
			MenuItemID: line.Item.ID,
			Quantity:   line.Qty,
			Notes:      strings.TrimSpace(line.Note),
		})
	}

	if err := f.api.PlaceOrder(ctx, draft); err != nil {
		if api.IsAuthFailure(err) {
			if cerr := f.neg.Clear(ctx); cerr != nil {
				utils.ErrorLogger.Printf("clear session after expiry failed: %v", cerr)
			}
			return ErrSessionExpired
		}
		// Pesan server diteruskan apa adanya, tanpa retry
		return err
	}

	f.cart.Reset()
	f.mu.Lock()
	f.orderNote = ""
	f.mu.Unlock()

	if err := f.neg.RefreshOrders(ctx); err != nil {
		utils.ErrorLogger.Printf("order list refresh failed: %v", err)
	}
	return nil
}
