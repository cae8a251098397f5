package mockserver

import "time"

// Model gorm internal mockserver. Bentuk response JSON-nya mengikuti
// backend produksi, jadi struct di sini tidak memakai json tag.

type Restaurant struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	Logo      string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Table struct {
	ID           uint   `gorm:"primaryKey"`
	RestaurantID uint   `gorm:"not null;index"`
	QRToken      string `gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GuestSession adalah sesi satu diner di satu meja.
// join_status: active (host / separate bill), pending, approved, rejected.
type GuestSession struct {
	ID           uint   `gorm:"primaryKey"`
	TableID      uint   `gorm:"not null;index"`
	Token        string `gorm:"type:varchar(64);uniqueIndex;not null"`
	CustomerName string `gorm:"type:varchar(255);not null"`
	IsPrimary    bool
	JoinStatus   string `gorm:"type:varchar(20);not null"`
	HasLeft      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Granted -> sesi boleh melihat menu dan order.
func (s *GuestSession) Granted() bool {
	return s.IsPrimary || s.JoinStatus == "approved" || s.JoinStatus == "active"
}

type MenuCategory struct {
	ID           uint   `gorm:"primaryKey"`
	RestaurantID uint   `gorm:"not null;index"`
	Name         string `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MenuItem struct {
	ID          uint    `gorm:"primaryKey"`
	CategoryID  uint    `gorm:"not null;index"`
	Name        string  `gorm:"type:varchar(255);not null"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"type:decimal(10,2);not null"`
	Image       string  `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID          uint    `gorm:"primaryKey"`
	TableID     uint    `gorm:"not null;index"`
	SessionID   uint    `gorm:"not null;index"`
	Status      string  `gorm:"type:varchar(20);not null;default:'preparing'"`
	TotalAmount float64 `gorm:"type:decimal(10,2);not null;default:0.00"`
	Notes       string  `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID         uint    `gorm:"primaryKey"`
	OrderID    uint    `gorm:"not null;index"`
	MenuItemID uint    `gorm:"not null"`
	ItemName   string  `gorm:"type:varchar(255);not null"`
	Quantity   int     `gorm:"not null"`
	UnitPrice  float64 `gorm:"type:decimal(10,2);not null"`
	Notes      string  `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type WaiterUser struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
