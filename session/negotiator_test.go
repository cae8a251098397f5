package session_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/session"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
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

func newNegotiator(t *testing.T, baseURL string, store *storage.Store) *session.Negotiator {
	t.Helper()
	return session.NewNegotiator(api.New(baseURL, 2*time.Second), store, "1", "2", "qr")
}

func menuPayload(name string, primary bool, joinStatus string) string {
	return fmt.Sprintf(`{
		"restaurant": {"name": "Warung Tableside", "logo": ""},
		"categories": [{"id": 1, "name": "Makanan", "items": [
			{"id": 1, "name": "Nasi Goreng Spesial", "price": 35000},
			{"id": 2, "name": "Es Teh Manis", "price": "8000.00"}
		]}],
		"session": {"customer_name": %q, "is_primary": %v, "join_status": %q}
	}`, name, primary, joinStatus)
}

// stubTable adalah backend palsu satu meja yang perilakunya bisa diubah
// di tengah test (misal: pending dulu, lalu approved).
type stubTable struct {
	mu sync.Mutex

	startResp   string // body 200 untuk session start
	menuCode    int    // 0 berarti 200 dengan echo di bawah
	menuBody    string // body untuk menuCode non-200
	menuEcho    string // join_status pada echo 200
	menuPrimary bool
	ordersJSON  string
	hostBody    string
	respondCode int // 0 berarti 200

	validateCalls int
	startCalls    int
	leaveCalls    int
	menuCalls     int

	onStart func() // dipanggil saat request start diterima, sebelum respons
}

func newStubTable() *stubTable {
	return &stubTable{ordersJSON: `[]`, hostBody: `{"pending":[],"guests":[]}`}
}

// set mengubah field stub di bawah lock yang sama dengan handler.
func (s *stubTable) set(fn func(*stubTable)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *stubTable) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/qr/validate/"):
			s.validateCalls++
			io.WriteString(w, `{"has_active_host":false}`)
		case strings.HasPrefix(r.URL.Path, "/qr/session/start/"):
			s.startCalls++
			if s.onStart != nil {
				s.onStart()
			}
			io.WriteString(w, s.startResp)
		case r.URL.Path == "/qr/session/leave":
			s.leaveCalls++
			io.WriteString(w, `{"message":"session closed"}`)
		case strings.HasPrefix(r.URL.Path, "/menu/"):
			s.menuCalls++
			if s.menuCode != 0 && s.menuCode != http.StatusOK {
				w.WriteHeader(s.menuCode)
				io.WriteString(w, s.menuBody)
				return
			}
			io.WriteString(w, menuPayload("Alice", s.menuPrimary, s.menuEcho))
		case strings.HasPrefix(r.URL.Path, "/orders/session/"):
			io.WriteString(w, s.ordersJSON)
		case strings.HasPrefix(r.URL.Path, "/table/"):
			io.WriteString(w, s.hostBody)
		case strings.HasPrefix(r.URL.Path, "/session/"):
			if s.respondCode != 0 {
				w.WriteHeader(s.respondCode)
				io.WriteString(w, `{"message":"respond failed"}`)
				return
			}
			io.WriteString(w, `{"message":"request approved"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"not found"}`)
		}
	})
}

func TestStartRejectsEmptyNameWithoutNetworkCall(t *testing.T) {
	stub := newStubTable()
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, newTestStore(t))
	err := neg.Start(context.Background(), "   ", models.ModeNewBill)
	assert.ErrorIs(t, err, session.ErrNameRequired)
	assert.Equal(t, 0, stub.startCalls)
	assert.Equal(t, session.StateNoSession, neg.State())
}

func TestStartDeletesStaleRecordBeforeRequest(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.SaveSession(&models.TableSession{
		RestaurantID: "1", TableID: "2", SessionToken: "stale",
		CustomerName: "Alice", JoinStatus: models.JoinStatusPending,
	}))

	stub := newStubTable()
	stub.startResp = `{"session_token":"fresh","customer_name":"Alice","is_primary":true,"join_status":"active"}`
	stub.menuEcho = "active"
	stub.menuPrimary = true
	stub.onStart = func() {
		// Saat request sampai di server, record lama harus sudah hilang
		rec, err := store.Session("1", "2")
		assert.NoError(t, err)
		assert.Nil(t, rec)
	}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, store)
	assert.NoError(t, neg.Start(context.Background(), "Alice", models.ModeNewBill))
	assert.Equal(t, 1, stub.startCalls)
	assert.Equal(t, session.StateActive, neg.State())
	assert.True(t, neg.IsPrimary())
	assert.NotNil(t, neg.Menu())

	rec, err := store.Session("1", "2")
	assert.NoError(t, err)
	if assert.NotNil(t, rec) {
		assert.Equal(t, "fresh", rec.SessionToken)
	}
}

func TestStartJoinGoesToPendingApproval(t *testing.T) {
	stub := newStubTable()
	stub.startResp = `{"session_token":"tok-b","customer_name":"Bob","is_primary":false,"join_status":"pending"}`
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	store := newTestStore(t)
	neg := newNegotiator(t, ts.URL, store)
	assert.NoError(t, neg.Start(context.Background(), "Bob", models.ModeJoinBill))
	assert.Equal(t, session.StatePendingApproval, neg.State())
	// Tanpa akses, menu tidak boleh diambil
	assert.Nil(t, neg.Menu())

	rec, _ := store.Session("1", "2")
	if assert.NotNil(t, rec) {
		assert.Equal(t, models.JoinStatusPending, rec.JoinStatus)
	}
}

func TestRestoreWithoutRecordProbesTable(t *testing.T) {
	stub := newStubTable()
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, newTestStore(t))
	assert.NoError(t, neg.Restore(context.Background()))
	assert.Equal(t, session.StateAwaitingName, neg.State())
	assert.Equal(t, 1, stub.validateCalls)
	assert.Equal(t, 0, stub.menuCalls)
}

func TestRestoreDecisionTable(t *testing.T) {
	seed := func(t *testing.T, store *storage.Store) {
		t.Helper()
		err := store.SaveSession(&models.TableSession{
			RestaurantID: "1", TableID: "2", SessionToken: "tok",
			CustomerName: "Alice", JoinStatus: models.JoinStatusActive,
		})
		assert.NoError(t, err)
	}

	t.Run("200 granted restores menu and orders", func(t *testing.T) {
		stub := newStubTable()
		stub.menuEcho = "approved"
		stub.ordersJSON = `[{"id":9,"status":"preparing","items":[],"total_amount":35000}]`
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		assert.Equal(t, session.StateActive, neg.State())
		assert.NotNil(t, neg.Menu())
		assert.Len(t, neg.Orders(), 1)
		if sess := neg.Session(); assert.NotNil(t, sess) {
			assert.Equal(t, models.JoinStatusApproved, sess.JoinStatus)
		}
	})

	t.Run("403 rejected keeps the record and stops", func(t *testing.T) {
		stub := newStubTable()
		stub.menuCode = http.StatusForbidden
		stub.menuBody = `{"join_status":"rejected","message":"the host declined your request"}`
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		assert.Equal(t, session.StateRejected, neg.State())
		// Record lokal dipertahankan supaya relaunch tetap mendarat
		// di layar rejected, dan meja tidak diprobe ulang
		rec, err := store.Session("1", "2")
		assert.NoError(t, err)
		assert.NotNil(t, rec)
		assert.Equal(t, 0, stub.validateCalls)
	})

	t.Run("403 without join_status clears and reprobes", func(t *testing.T) {
		stub := newStubTable()
		stub.menuCode = http.StatusForbidden
		stub.menuBody = `<html>forbidden</html>`
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		assert.Equal(t, session.StateAwaitingName, neg.State())
		assert.Equal(t, 1, stub.validateCalls)

		rec, err := store.Session("1", "2")
		assert.NoError(t, err)
		assert.Nil(t, rec)
		// Pembersihan karena restore gagal tidak memanggil leave:
		// server tidak mengakui sesi itu lagi
		assert.Equal(t, 0, stub.leaveCalls)
	})

	t.Run("other non-2xx clears and reprobes", func(t *testing.T) {
		stub := newStubTable()
		stub.menuCode = http.StatusNotFound
		stub.menuBody = `{"message":"invalid QR code"}`
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		assert.Equal(t, session.StateAwaitingName, neg.State())
		assert.Equal(t, 0, stub.leaveCalls)

		rec, _ := store.Session("1", "2")
		assert.Nil(t, rec)
	})

	t.Run("network failure clears and falls back to solo start", func(t *testing.T) {
		ts := httptest.NewServer(newStubTable().handler())
		ts.Close() // server mati total

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		// Probe ulang juga gagal, default solo start
		assert.Equal(t, session.StateAwaitingName, neg.State())
		assert.Equal(t, models.ModeNewBill, neg.DefaultMode())
		assert.Empty(t, neg.HostName())

		rec, _ := store.Session("1", "2")
		assert.Nil(t, rec)
	})

	t.Run("200 but neither granted nor pending clears", func(t *testing.T) {
		stub := newStubTable()
		stub.menuEcho = "" // echo tanpa status yang bisa dipercaya
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		seed(t, store)
		neg := newNegotiator(t, ts.URL, store)
		assert.NoError(t, neg.Restore(context.Background()))
		assert.Equal(t, session.StateAwaitingName, neg.State())

		rec, _ := store.Session("1", "2")
		assert.Nil(t, rec)
	})
}

// startPendingGuest membawa negotiator sampai StatePendingApproval.
func startPendingGuest(t *testing.T, stub *stubTable, ts *httptest.Server, store *storage.Store) *session.Negotiator {
	t.Helper()
	stub.set(func(s *stubTable) {
		s.startResp = `{"session_token":"tok-b","customer_name":"Bob","is_primary":false,"join_status":"pending"}`
	})
	neg := newNegotiator(t, ts.URL, store)
	if err := neg.Start(context.Background(), "Bob", models.ModeJoinBill); err != nil {
		t.Fatalf("failed to start pending session: %v", err)
	}
	if neg.State() != session.StatePendingApproval {
		t.Fatalf("expected pending approval, got %v", neg.State())
	}
	return neg
}

func TestPollGuestStatus(t *testing.T) {
	t.Run("403 pending keeps waiting", func(t *testing.T) {
		stub := newStubTable()
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		neg := startPendingGuest(t, stub, ts, newTestStore(t))
		stub.set(func(s *stubTable) {
			s.menuCode = http.StatusForbidden
			s.menuBody = `{"join_status":"pending","message":"waiting for host approval"}`
		})
		assert.Equal(t, session.StatePendingApproval, neg.PollGuestStatus(context.Background()))
	})

	t.Run("200 means approved", func(t *testing.T) {
		stub := newStubTable()
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		store := newTestStore(t)
		neg := startPendingGuest(t, stub, ts, store)
		stub.set(func(s *stubTable) { s.menuEcho = "approved" })

		assert.Equal(t, session.StateActive, neg.PollGuestStatus(context.Background()))
		assert.NotNil(t, neg.Menu())

		rec, _ := store.Session("1", "2")
		if assert.NotNil(t, rec) {
			assert.Equal(t, models.JoinStatusApproved, rec.JoinStatus)
		}
	})

	t.Run("403 rejected is terminal", func(t *testing.T) {
		stub := newStubTable()
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		neg := startPendingGuest(t, stub, ts, newTestStore(t))
		stub.set(func(s *stubTable) {
			s.menuCode = http.StatusForbidden
			s.menuBody = `{"join_status":"rejected","message":"the host declined your request"}`
		})
		assert.Equal(t, session.StateRejected, neg.PollGuestStatus(context.Background()))
	})

	t.Run("unexpected status fails closed to rejected", func(t *testing.T) {
		stub := newStubTable()
		ts := httptest.NewServer(stub.handler())
		defer ts.Close()

		neg := startPendingGuest(t, stub, ts, newTestStore(t))
		stub.set(func(s *stubTable) {
			s.menuCode = http.StatusNotFound
			s.menuBody = `{"message":"invalid QR code"}`
		})
		assert.Equal(t, session.StateRejected, neg.PollGuestStatus(context.Background()))
	})

	t.Run("network failure fails closed to rejected", func(t *testing.T) {
		stub := newStubTable()
		ts := httptest.NewServer(stub.handler())

		neg := startPendingGuest(t, stub, ts, newTestStore(t))
		ts.Close()
		assert.Equal(t, session.StateRejected, neg.PollGuestStatus(context.Background()))
	})
}

func TestFetchHostDataSurfacesApprovalsExactlyOnce(t *testing.T) {
	stub := newStubTable()
	stub.startResp = `{"session_token":"tok-a","customer_name":"Alice","is_primary":true,"join_status":"active"}`
	stub.menuEcho = "active"
	stub.menuPrimary = true
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, newTestStore(t))
	assert.NoError(t, neg.Start(context.Background(), "Alice", models.ModeNewBill))

	ctx := context.Background()
	setPending := func(body string) {
		stub.set(func(s *stubTable) { s.hostBody = body })
	}

	// Transisi kosong -> ada pending: surface sekali
	setPending(`{"pending":[{"id":7,"customer_name":"Bob"}],"guests":[]}`)
	data, err := neg.FetchHostData(ctx)
	assert.NoError(t, err)
	assert.True(t, data.SurfaceApprovals)
	assert.Len(t, data.Pending, 1)

	// Tick berikutnya dengan pending yang sama: tidak surface lagi
	data, err = neg.FetchHostData(ctx)
	assert.NoError(t, err)
	assert.False(t, data.SurfaceApprovals)

	// Daftar kosong me-reset triggernya
	setPending(`{"pending":[],"guests":[{"id":7,"customer_name":"Bob"}]}`)
	data, err = neg.FetchHostData(ctx)
	assert.NoError(t, err)
	assert.False(t, data.SurfaceApprovals)
	assert.Len(t, data.Guests, 1)

	// Pending baru muncul -> surface lagi
	setPending(`{"pending":[{"id":8,"customer_name":"Carol"}],"guests":[]}`)
	data, err = neg.FetchHostData(ctx)
	assert.NoError(t, err)
	assert.True(t, data.SurfaceApprovals)
}

func TestRespondRefetchesAndClosesModalOnLastPending(t *testing.T) {
	stub := newStubTable()
	stub.startResp = `{"session_token":"tok-a","customer_name":"Alice","is_primary":true,"join_status":"active"}`
	stub.menuEcho = "active"
	stub.menuPrimary = true
	stub.hostBody = `{"pending":[{"id":7,"customer_name":"Bob"}],"guests":[]}`
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, newTestStore(t))
	ctx := context.Background()
	assert.NoError(t, neg.Start(ctx, "Alice", models.ModeNewBill))

	_, err := neg.FetchHostData(ctx)
	assert.NoError(t, err)

	// Satu pending tersisa: dialog boleh ditutup, dan walaupun respond
	// gagal di server, refetch tetap jalan dan errornya tidak bocor
	stub.set(func(s *stubTable) {
		s.respondCode = http.StatusConflict
		s.hostBody = `{"pending":[],"guests":[{"id":7,"customer_name":"Bob"}]}`
	})
	data, closeModal, err := neg.Respond(ctx, 7, models.ActionApprove)
	assert.NoError(t, err)
	assert.True(t, closeModal)
	if assert.NotNil(t, data) {
		assert.Empty(t, data.Pending)
		assert.Len(t, data.Guests, 1)
	}
}

func TestRespondKeepsModalOpenWhileOthersPending(t *testing.T) {
	stub := newStubTable()
	stub.startResp = `{"session_token":"tok-a","customer_name":"Alice","is_primary":true,"join_status":"active"}`
	stub.menuEcho = "active"
	stub.menuPrimary = true
	stub.hostBody = `{"pending":[{"id":7,"customer_name":"Bob"},{"id":8,"customer_name":"Carol"}],"guests":[]}`
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	neg := newNegotiator(t, ts.URL, newTestStore(t))
	ctx := context.Background()
	assert.NoError(t, neg.Start(ctx, "Alice", models.ModeNewBill))

	_, err := neg.FetchHostData(ctx)
	assert.NoError(t, err)

	stub.set(func(s *stubTable) {
		s.hostBody = `{"pending":[{"id":8,"customer_name":"Carol"}],"guests":[]}`
	})
	data, closeModal, err := neg.Respond(ctx, 7, models.ActionReject)
	assert.NoError(t, err)
	assert.False(t, closeModal)
	if assert.NotNil(t, data) {
		assert.Len(t, data.Pending, 1)
	}
}

func TestClearNotifiesBackendAndReprobes(t *testing.T) {
	stub := newStubTable()
	stub.startResp = `{"session_token":"tok-a","customer_name":"Alice","is_primary":true,"join_status":"active"}`
	stub.menuEcho = "active"
	stub.menuPrimary = true
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	store := newTestStore(t)
	neg := newNegotiator(t, ts.URL, store)
	ctx := context.Background()
	assert.NoError(t, neg.Start(ctx, "Alice", models.ModeNewBill))

	assert.NoError(t, neg.Clear(ctx))
	assert.Equal(t, 1, stub.leaveCalls)
	assert.Equal(t, session.StateAwaitingName, neg.State())
	assert.Nil(t, neg.Session())
	assert.Nil(t, neg.Menu())
	assert.Empty(t, neg.Orders())

	rec, err := store.Session("1", "2")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}
