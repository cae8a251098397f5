package mockserver

import (
	"github.com/yeremiapane/tableside/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoQRToken adalah qr_token meja demo hasil seed.
const DemoQRToken = "demo-qr-token"

// Seed mengisi data demo. Idempoten: tidak menduplikasi bila sudah ada.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Restaurant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	restaurant := Restaurant{Name: "Warung Tableside", Logo: ""}
	if err := db.Create(&restaurant).Error; err != nil {
		return err
	}

	table := Table{RestaurantID: restaurant.ID, QRToken: DemoQRToken}
	if err := db.Create(&table).Error; err != nil {
		return err
	}

	food := MenuCategory{RestaurantID: restaurant.ID, Name: "Makanan"}
	drink := MenuCategory{RestaurantID: restaurant.ID, Name: "Minuman"}
	if err := db.Create(&food).Error; err != nil {
		return err
	}
	if err := db.Create(&drink).Error; err != nil {
		return err
	}

	items := []MenuItem{
		{CategoryID: food.ID, Name: "Nasi Goreng Spesial", Description: "Nasi goreng dengan ayam dan telur", Price: 35000},
		{CategoryID: food.ID, Name: "Ayam Bakar", Description: "Ayam bakar bumbu kecap", Price: 42000},
		{CategoryID: food.ID, Name: "Gado-Gado", Description: "Sayuran dengan bumbu kacang", Price: 28000},
		{CategoryID: drink.ID, Name: "Es Teh Manis", Description: "", Price: 8000},
		{CategoryID: drink.ID, Name: "Jus Alpukat", Description: "Alpukat segar dengan susu", Price: 18000},
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	waiterUser := WaiterUser{
		Name:     "Waiter Satu",
		Email:    "waiter1@example.com",
		Password: string(hashed),
	}
	if err := db.Create(&waiterUser).Error; err != nil {
		return err
	}

	utils.InfoLogger.Printf("demo data seeded: restaurant=%d table=%d qr=%s",
		restaurant.ID, table.ID, DemoQRToken)
	return nil
}
