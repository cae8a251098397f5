package screens_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/screens"
	"github.com/yeremiapane/tableside/session"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

const testMenu = `{
	"restaurant": {"name": "Warung Tableside", "logo": ""},
	"categories": [{"id": 1, "name": "Makanan", "items": [
		{"id": 1, "name": "Nasi Goreng Spesial", "price": 35000},
		{"id": 2, "name": "Es Teh Manis", "price": 8000}
	]}],
	"session": {"customer_name": "Alice", "is_primary": true, "join_status": "active"}
}`

// newBackend membungkus handler POST /orders dengan endpoint sesi dan
// menu yang selalu sukses, supaya test fokus ke jalur checkout.
func newBackend(t *testing.T, placeOrder http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/orders":
			placeOrder(w, r)
		case strings.HasPrefix(r.URL.Path, "/qr/session/start/"):
			io.WriteString(w, `{"session_token":"tok-a","customer_name":"Alice","is_primary":true,"join_status":"active"}`)
		case strings.HasPrefix(r.URL.Path, "/menu/"):
			io.WriteString(w, testMenu)
		case strings.HasPrefix(r.URL.Path, "/orders/session/"):
			io.WriteString(w, `[{"id":1,"status":"preparing","items":[],"total_amount":78000}]`)
		case strings.HasPrefix(r.URL.Path, "/qr/validate/"):
			io.WriteString(w, `{"has_active_host":false}`)
		case r.URL.Path == "/qr/session/leave":
			io.WriteString(w, `{"message":"session closed"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	store, err := storage.New(db)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

// activeFlow mengembalikan OrderFlow dengan sesi host aktif dan menu termuat.
func activeFlow(t *testing.T, ts *httptest.Server) *screens.OrderFlow {
	t.Helper()
	client := api.New(ts.URL, 5*time.Second)
	neg := session.NewNegotiator(client, newTestStore(t), "1", "2", "qr")
	if err := neg.Start(context.Background(), "Alice", models.ModeNewBill); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return screens.NewOrderFlow(client, neg)
}

func TestPlaceOrderWithoutSessionIsNoOp(t *testing.T) {
	var calls int32
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	client := api.New(ts.URL, 5*time.Second)
	neg := session.NewNegotiator(client, newTestStore(t), "1", "2", "qr")
	flow := screens.NewOrderFlow(client, neg)
	flow.Cart().Update(1, 2)

	assert.NoError(t, flow.PlaceOrder(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPlaceOrderWithEmptyCartIsNoOp(t *testing.T) {
	var calls int32
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	flow := activeFlow(t, ts)
	assert.NoError(t, flow.PlaceOrder(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPlaceOrderSendsCartAsDraft(t *testing.T) {
	var got models.OrderDraft
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1,"status":"preparing"}`)
	})

	flow := activeFlow(t, ts)
	flow.Cart().Update(1, 2)
	flow.Cart().Update(2, 1)
	flow.Cart().SetNote(1, "extra pedas")
	flow.SetOrderNote("  bungkus sambal terpisah  ")

	assert.NoError(t, flow.PlaceOrder(context.Background()))

	assert.Equal(t, "tok-a", got.SessionToken)
	assert.Equal(t, "1", got.RestaurantID)
	assert.Equal(t, "2", got.TableID)
	assert.Equal(t, "bungkus sambal terpisah", got.Notes)
	if assert.Len(t, got.Items, 2) {
		assert.Equal(t, uint(1), got.Items[0].MenuItemID)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.Equal(t, "extra pedas", got.Items[0].Notes)
	}

	// Sukses mengosongkan cart + catatan dan me-refresh daftar order
	assert.True(t, flow.Cart().Empty())
	assert.Empty(t, flow.OrderNote())
}

func TestPlaceOrderIsSingleFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1,"status":"preparing"}`)
	})

	flow := activeFlow(t, ts)
	flow.Cart().Update(1, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, flow.PlaceOrder(context.Background()))
	}()

	// Tunggu request pertama benar-benar masuk, lalu coba lagi
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.NoError(t, flow.PlaceOrder(context.Background()))
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPlaceOrderAuthFailureForcesSessionClear(t *testing.T) {
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"unknown session"}`)
	})

	client := api.New(ts.URL, 5*time.Second)
	store := newTestStore(t)
	neg := session.NewNegotiator(client, store, "1", "2", "qr")
	assert.NoError(t, neg.Start(context.Background(), "Alice", models.ModeNewBill))

	flow := screens.NewOrderFlow(client, neg)
	flow.Cart().Update(1, 1)

	err := flow.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, screens.ErrSessionExpired)

	// Sesi dibersihkan paksa, diner kembali ke awal
	assert.Nil(t, neg.Session())
	assert.Equal(t, session.StateAwaitingName, neg.State())
	rec, _ := store.Session("1", "2")
	assert.Nil(t, rec)
}

func TestPlaceOrderKeepsCartOnServerError(t *testing.T) {
	ts := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"message":"table already has an order in progress"}`)
	})

	flow := activeFlow(t, ts)
	flow.Cart().Update(1, 2)
	flow.SetOrderNote("jangan pakai bawang")

	err := flow.PlaceOrder(context.Background())
	assert.EqualError(t, err, "table already has an order in progress")

	// Gagal bukan auth: cart dan catatan tidak disentuh, tanpa retry
	assert.Equal(t, 2, flow.Cart().Quantity(1))
	assert.Equal(t, "jangan pakai bawang", flow.OrderNote())
}
