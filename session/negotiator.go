package session

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

// ErrNameRequired -> nama kosong ditolak lokal, tanpa network call.
var ErrNameRequired = errors.New("customer name is required")

// State adalah posisi diner dalam negosiasi sesi meja.
type State int

const (
	// StateNoSession: belum ada apa-apa, meja belum diprobe.
	StateNoSession State = iota
	// StateAwaitingName: meja sudah diprobe, diner tinggal mengisi nama
	// (dan memilih join vs separate bill bila meja sudah punya host).
	StateAwaitingName
	// StatePendingApproval: menunggu keputusan host.
	StatePendingApproval
	// StateActive: boleh lihat menu dan order.
	StateActive
	// StateRejected: terminal, hanya bisa keluar lewat "start over".
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateAwaitingName:
		return "awaiting_name"
	case StatePendingApproval:
		return "pending_approval"
	case StateActive:
		return "active"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// HostData adalah hasil satu poll host. SurfaceApprovals hanya true pada
// transisi daftar pending dari kosong ke tidak kosong, supaya dialog
// approval tidak dipaksa terbuka berulang kali.
type HostData struct {
	Pending          []models.JoinRequest
	Guests           []models.ActiveGuest
	SurfaceApprovals bool
}

// Negotiator adalah satu-satunya penulis record sesi lokal untuk satu
// meja. Semua screen membaca state darinya, tidak ada flag tersebar.
type Negotiator struct {
	mu    sync.Mutex
	api   *api.Client
	store *storage.Store

	restaurantID string
	tableID      string
	qrToken      string

	state       State
	sess        *models.TableSession
	menu        *models.MenuSnapshot
	orders      []models.Order
	hostName    string
	defaultMode models.JoinMode

	hadPending   bool
	pendingCount int
}

func NewNegotiator(apiClient *api.Client, store *storage.Store, restaurantID, tableID, qrToken string) *Negotiator {
	return &Negotiator{
		api:          apiClient,
		store:        store,
		restaurantID: restaurantID,
		tableID:      tableID,
		qrToken:      qrToken,
		state:        StateNoSession,
		defaultMode:  models.ModeNewBill,
	}
}

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Session mengembalikan salinan record sesi aktif, nil bila tidak ada.
func (n *Negotiator) Session() *models.TableSession {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sess == nil {
		return nil
	}
	copied := *n.sess
	return &copied
}

func (n *Negotiator) Menu() *models.MenuSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.menu
}

func (n *Negotiator) Orders() []models.Order {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.orders
}

// HostName mengembalikan nama host meja yang terdeteksi saat probe
// (kosong bila meja belum punya host).
func (n *Negotiator) HostName() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hostName
}

// DefaultMode adalah pilihan default join vs separate bill, di-set oleh
// hasil probe meja.
func (n *Negotiator) DefaultMode() models.JoinMode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.defaultMode
}

// IsPrimary melaporkan apakah sesi aktif adalah host.
func (n *Negotiator) IsPrimary() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sess != nil && n.sess.IsPrimary
}

// Restore memulihkan sesi tersimpan saat app diluncurkan ulang dengan
// decision table yang ketat:
//
//	200                      -> pulihkan field sesi, load menu+orders bila granted
//	403 join_status=rejected -> StateRejected, berhenti
//	403 lainnya/unparsable   -> hapus sesi, probe ulang meja
//	non-2xx lain / network   -> hapus sesi, probe ulang meja
func (n *Negotiator) Restore(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	rec, err := n.store.Session(n.restaurantID, n.tableID)
	if err != nil {
		return err
	}
	if rec == nil {
		n.probeTable(ctx)
		return nil
	}

	menu, err := n.api.FetchMenu(ctx, n.restaurantID, n.tableID, n.qrToken, rec.SessionToken)
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.Code == http.StatusForbidden &&
			se.JoinStatus == models.JoinStatusRejected {
			n.sess = rec
			n.sess.JoinStatus = models.JoinStatusRejected
			n.state = StateRejected
			return nil
		}
		// Semua sinyal lain saat restore berarti record lokal tidak
		// bisa dipercaya lagi.
		return n.clearLocked(ctx, false)
	}

	n.sess = rec
	if echo := menu.Session; echo != nil {
		n.sess.IsPrimary = echo.IsPrimary
		n.sess.JoinStatus = echo.JoinStatus
	}

	if n.sess.Granted() {
		n.menu = menu
		n.state = StateActive
		n.loadOrders(ctx)
		return nil
	}
	if n.sess.JoinStatus == models.JoinStatusPending {
		n.state = StatePendingApproval
		return nil
	}
	// 200 tapi sesi tidak granted dan tidak pending: record tidak konsisten.
	return n.clearLocked(ctx, false)
}

// CheckTableStatus memprobe meja tanpa sesi. Best-effort: kegagalan
// ditelan dan default kembali ke solo start.
func (n *Negotiator) CheckTableStatus(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.probeTable(ctx)
}

// probeTable dipanggil dengan lock sudah dipegang.
func (n *Negotiator) probeTable(ctx context.Context) {
	status, err := n.api.ValidateQR(ctx, n.restaurantID, n.tableID, n.qrToken)
	if err != nil {
		utils.InfoLogger.Debugf("table probe failed, defaulting to solo start: %v", err)
		n.hostName = ""
		n.defaultMode = models.ModeNewBill
		n.state = StateAwaitingName
		return
	}

	if status.HasActiveHost {
		n.hostName = status.HostName
		n.defaultMode = models.ModeJoinBill
	} else {
		n.hostName = ""
		n.defaultMode = models.ModeNewBill
	}
	n.state = StateAwaitingName
}

// Start memulai sesi baru atau join. Record lokal lama SELALU dihapus
// sebelum request dikirim supaya attempt baru tidak tercampur dengan
// sisa attempt lama.
func (n *Negotiator) Start(ctx context.Context, name string, mode models.JoinMode) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}

	if err := n.store.DeleteSession(n.restaurantID, n.tableID); err != nil {
		return err
	}

	sess, err := n.api.StartSession(ctx, n.restaurantID, n.tableID, n.qrToken, name, mode)
	if err != nil {
		return err
	}
	if sess.CustomerName == "" {
		sess.CustomerName = name
	}

	if err := n.store.SaveSession(sess); err != nil {
		return err
	}
	n.sess = sess
	n.hostName = ""

	if sess.Granted() {
		n.state = StateActive
		n.loadMenu(ctx)
		n.loadOrders(ctx)
		return nil
	}
	n.state = StatePendingApproval
	return nil
}

// PollGuestStatus adalah satu tick polling guest selama menunggu
// approval. Fail-closed: hanya 403 dengan join_status "pending" yang
// mempertahankan penantian, sinyal lain apa pun berarti rejected.
func (n *Negotiator) PollGuestStatus(ctx context.Context) State {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StatePendingApproval || n.sess == nil {
		return n.state
	}

	menu, err := n.api.FetchMenu(ctx, n.restaurantID, n.tableID, n.qrToken, n.sess.SessionToken)
	if err == nil {
		n.menu = menu
		n.sess.JoinStatus = models.JoinStatusApproved
		if echo := menu.Session; echo != nil {
			n.sess.IsPrimary = echo.IsPrimary
			if echo.JoinStatus != models.JoinStatusNone {
				n.sess.JoinStatus = echo.JoinStatus
			}
		}
		if err := n.store.SaveSession(n.sess); err != nil {
			utils.ErrorLogger.Printf("failed to persist approved session: %v", err)
		}
		n.state = StateActive
		n.loadOrders(ctx)
		return n.state
	}

	var se *api.StatusError
	if errors.As(err, &se) && se.Code == http.StatusForbidden &&
		se.JoinStatus == models.JoinStatusPending {
		return n.state // host belum memutuskan
	}

	n.sess.JoinStatus = models.JoinStatusRejected
	n.state = StateRejected
	return n.state
}

// FetchHostData adalah satu tick polling host: daftar pending request
// dan guest aktif di mejanya.
func (n *Negotiator) FetchHostData(ctx context.Context) (*HostData, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fetchHostDataLocked(ctx)
}

func (n *Negotiator) fetchHostDataLocked(ctx context.Context) (*HostData, error) {
	data, err := n.api.HostTableData(ctx, n.tableID)
	if err != nil {
		// Best-effort, tick berikutnya mencoba lagi
		return nil, err
	}

	surface := len(data.Pending) > 0 && !n.hadPending
	n.hadPending = len(data.Pending) > 0
	n.pendingCount = len(data.Pending)

	return &HostData{
		Pending:          data.Pending,
		Guests:           data.Guests,
		SurfaceApprovals: surface,
	}, nil
}

// Respond mengirim keputusan host lalu TANPA SYARAT me-refetch data meja;
// tidak ada patch lokal optimistis yang dipercaya setelah request keluar.
// closeModal true bila request yang dijawab adalah pending terakhir yang
// diketahui, supaya UI boleh menutup dialog lebih awal.
func (n *Negotiator) Respond(ctx context.Context, requestID uint, action models.JoinAction) (data *HostData, closeModal bool, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	closeModal = n.pendingCount <= 1
	if err := n.api.RespondToJoin(ctx, requestID, action); err != nil {
		utils.ErrorLogger.Printf("respond to join request %d failed: %v", requestID, err)
	}

	data, err = n.fetchHostDataLocked(ctx)
	return data, closeModal, err
}

// RefreshOrders me-refetch order milik sesi dari server.
func (n *Negotiator) RefreshOrders(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sess == nil {
		return nil
	}
	orders, err := n.api.SessionOrders(ctx, n.sess.SessionToken)
	if err != nil {
		return err
	}
	n.orders = orders
	return nil
}

// Clear membuang sesi: beri tahu backend (best-effort), hapus record
// lokal, reset semua field, lalu probe ulang meja supaya UI bisa
// langsung menawarkan sesi baru.
func (n *Negotiator) Clear(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clearLocked(ctx, true)
}

func (n *Negotiator) clearLocked(ctx context.Context, notifyBackend bool) error {
	if notifyBackend && n.sess != nil && n.sess.SessionToken != "" {
		if err := n.api.LeaveSession(ctx, n.sess.SessionToken); err != nil {
			utils.InfoLogger.Debugf("leave session notify failed (ignored): %v", err)
		}
	}

	if err := n.store.DeleteSession(n.restaurantID, n.tableID); err != nil {
		return err
	}

	n.sess = nil
	n.menu = nil
	n.orders = nil
	n.hadPending = false
	n.pendingCount = 0
	n.state = StateNoSession

	n.probeTable(ctx)
	return nil
}

// loadMenu / loadOrders: best-effort, dipanggil dengan lock dipegang.
func (n *Negotiator) loadMenu(ctx context.Context) {
	menu, err := n.api.FetchMenu(ctx, n.restaurantID, n.tableID, n.qrToken, n.sess.SessionToken)
	if err != nil {
		utils.ErrorLogger.Printf("menu fetch failed: %v", err)
		return
	}
	n.menu = menu
}

func (n *Negotiator) loadOrders(ctx context.Context) {
	orders, err := n.api.SessionOrders(ctx, n.sess.SessionToken)
	if err != nil {
		utils.ErrorLogger.Printf("orders fetch failed: %v", err)
		return
	}
	n.orders = orders
}
