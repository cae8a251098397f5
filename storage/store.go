package storage

import (
	"errors"

	"github.com/yeremiapane/tableside/models"
	"gorm.io/gorm"
)

// Store menyimpan state lokal device: satu TableSession per
// (restaurant, table) dan satu record WaiterAuth.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.TableSession{}, &models.WaiterAuth{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Session mengembalikan record sesi untuk meja tersebut, nil jika tidak ada.
func (s *Store) Session(restaurantID, tableID string) (*models.TableSession, error) {
	var sess models.TableSession
	err := s.db.Where("restaurant_id = ? AND table_id = ?", restaurantID, tableID).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SaveSession melakukan upsert: record lama untuk meja yang sama ditimpa.
func (s *Store) SaveSession(sess *models.TableSession) error {
	var existing models.TableSession
	err := s.db.Where("restaurant_id = ? AND table_id = ?", sess.RestaurantID, sess.TableID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(sess).Error
	case err != nil:
		return err
	default:
		sess.ID = existing.ID
		sess.CreatedAt = existing.CreatedAt
		return s.db.Save(sess).Error
	}
}

// DeleteSession idempoten: menghapus record yang tidak ada bukan error.
func (s *Store) DeleteSession(restaurantID, tableID string) error {
	return s.db.Where("restaurant_id = ? AND table_id = ?", restaurantID, tableID).
		Delete(&models.TableSession{}).Error
}

// WaiterAuth mengembalikan record auth staff tersimpan, nil jika belum login.
func (s *Store) WaiterAuth() (*models.WaiterAuth, error) {
	var auth models.WaiterAuth
	err := s.db.First(&auth).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

// SaveWaiterAuth menyimpan auth staff sebagai singleton.
func (s *Store) SaveWaiterAuth(auth *models.WaiterAuth) error {
	if err := s.DeleteWaiterAuth(); err != nil {
		return err
	}
	auth.ID = 0
	return s.db.Create(auth).Error
}

func (s *Store) DeleteWaiterAuth() error {
	return s.db.Where("1 = 1").Delete(&models.WaiterAuth{}).Error
}
