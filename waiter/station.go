package waiter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
)

var (
	// ErrCredentialsRequired: email/password kosong, ditolak tanpa network call.
	ErrCredentialsRequired = errors.New("email and password are required")
	// ErrLoggedOut: token tidak diterima server, staff harus login ulang.
	ErrLoggedOut = errors.New("logged out, please sign in again")
)

// Station adalah layar staff: login, antrian order siap antar, serve.
// Flow ini berdiri sendiri, terpisah dari sesi diner.
type Station struct {
	mu    sync.Mutex
	api   *api.Client
	store *storage.Store

	auth  *models.WaiterAuth
	ready []models.Order
}

func NewStation(apiClient *api.Client, store *storage.Store) *Station {
	return &Station{api: apiClient, store: store}
}

// RestoreAuth memuat token tersimpan. Token yang sudah pasti kadaluarsa
// (dicek lokal, tanpa verifikasi signature) langsung dibuang.
func (s *Station) RestoreAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, err := s.store.WaiterAuth()
	if err != nil {
		return err
	}
	if auth != nil && utils.TokenExpired(auth.Token) {
		utils.InfoLogger.Printf("stored waiter token expired, discarding")
		if err := s.store.DeleteWaiterAuth(); err != nil {
			return err
		}
		auth = nil
	}
	s.auth = auth
	return nil
}

func (s *Station) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth != nil
}

// UserName mengembalikan nama staff yang login (untuk header layar).
func (s *Station) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == nil {
		return ""
	}
	return s.auth.UserName
}

// Login menukar kredensial dengan bearer token dan mempersistnya.
func (s *Station) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}

	auth, err := s.api.WaiterLogin(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.store.SaveWaiterAuth(auth); err != nil {
		return err
	}

	s.mu.Lock()
	s.auth = auth
	s.mu.Unlock()
	return nil
}

// Logout membuang token lokal. Tidak ada call ke server.
func (s *Station) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutLocked()
}

func (s *Station) logoutLocked() error {
	s.auth = nil
	s.ready = nil
	return s.store.DeleteWaiterAuth()
}

// RefreshReady adalah satu tick polling antrian pickup. 401 memaksa
// logout; error lain dibiarkan untuk dicoba lagi di tick berikutnya.
func (s *Station) RefreshReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth == nil {
		return ErrLoggedOut
	}

	orders, err := s.api.ReadyOrders(ctx, s.auth.Token)
	if err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			if lerr := s.logoutLocked(); lerr != nil {
				utils.ErrorLogger.Printf("forced logout cleanup failed: %v", lerr)
			}
			return ErrLoggedOut
		}
		return err
	}

	s.ready = orders
	return nil
}

// Ready mengembalikan antrian siap antar hasil poll terakhir.
func (s *Station) Ready() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Serve menandai order sudah diantar. Sukses menghapus order dari
// daftar lokal secara optimistis: "served" adalah transisi satu arah,
// tidak ada negosiasi server lanjutan yang perlu ditunggu.
func (s *Station) Serve(ctx context.Context, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.auth == nil {
		return ErrLoggedOut
	}

	if err := s.api.ServeOrder(ctx, s.auth.Token, orderID); err != nil {
		return err
	}

	kept := s.ready[:0]
	for _, o := range s.ready {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	s.ready = kept
	return nil
}
