package models

import "time"

// JoinStatus adalah status approval seorang diner non-host,
// dilaporkan oleh server.
type JoinStatus string

const (
	JoinStatusNone     JoinStatus = ""
	JoinStatusPending  JoinStatus = "pending"
	JoinStatusApproved JoinStatus = "approved"
	JoinStatusActive   JoinStatus = "active"
	JoinStatusRejected JoinStatus = "rejected"
)

// Granted reports whether the status allows menu access on its own.
func (s JoinStatus) Granted() bool {
	return s == JoinStatusApproved || s == JoinStatusActive
}

// JoinMode -> pilihan diner saat meja sudah punya host.
type JoinMode string

const (
	ModeNewBill  JoinMode = "new"  // separate bill di meja yang sama
	ModeJoinBill JoinMode = "join" // join bill host, menunggu approval
)

// JoinAction adalah keputusan host atas sebuah join request.
type JoinAction string

const (
	ActionApprove JoinAction = "approve"
	ActionReject  JoinAction = "reject"
)

// TableSession adalah record sesi lokal per (restaurant, table).
// Satu device hanya menyimpan satu record aktif per pasangan tersebut.
type TableSession struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RestaurantID string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_restaurant_table" json:"-"`
	TableID      string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_restaurant_table" json:"-"`
	SessionToken string     `gorm:"type:varchar(255);not null" json:"session_token"`
	CustomerName string     `gorm:"type:varchar(255)" json:"customer_name"`
	IsPrimary    bool       `json:"is_primary"`
	JoinStatus   JoinStatus `gorm:"type:varchar(20)" json:"join_status"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

// Granted reports whether this session may see the menu and order.
func (s *TableSession) Granted() bool {
	return s.IsPrimary || s.JoinStatus.Granted()
}

// TableStatus adalah hasil validasi QR sebelum sesi dibuat.
type TableStatus struct {
	HasActiveHost bool   `json:"has_active_host"`
	HostName      string `json:"host_name"`
}

// WaiterUser dikirim server bersama token saat staff login.
type WaiterUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WaiterAuth adalah record auth staff yang dipersist lokal (singleton).
type WaiterAuth struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Token     string    `gorm:"type:text;not null" json:"token"`
	UserName  string    `gorm:"type:varchar(255)" json:"-"`
	UserEmail string    `gorm:"type:varchar(255)" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
