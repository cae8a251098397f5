package mockserver

import (
	"time"

	"github.com/yeremiapane/tableside/utils"
	"gorm.io/gorm"
)

// KitchenTicker memajukan order preparing -> ready setelah CookTime.
// Ini timer pura-pura untuk demo lokal saja; di produksi transisi status
// datang dari dapur sungguhan dan client hanya melihatnya lewat re-fetch.
type KitchenTicker struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration
	CookTime time.Duration
}

func NewKitchenTicker(db *gorm.DB) *KitchenTicker {
	return &KitchenTicker{
		DB:       db,
		StopChan: make(chan struct{}),
		Interval: 2 * time.Second,
		CookTime: 20 * time.Second,
	}
}

func (kt *KitchenTicker) Start() {
	go func() {
		ticker := time.NewTicker(kt.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				kt.advance()
			case <-kt.StopChan:
				return
			}
		}
	}()
}

func (kt *KitchenTicker) Stop() {
	close(kt.StopChan)
}

func (kt *KitchenTicker) advance() {
	cutoff := time.Now().Add(-kt.CookTime)
	res := kt.DB.Model(&Order{}).
		Where("status = ? AND created_at < ?", "preparing", cutoff).
		Update("status", "ready")
	if res.Error != nil {
		utils.ErrorLogger.Printf("kitchen ticker update failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("kitchen ticker: %d order(s) now ready", res.RowsAffected)
	}
}
