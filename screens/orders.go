package screens

import "github.com/yeremiapane/tableside/models"

// ActiveOrders menyaring order yang dibatalkan dari tampilan.
func ActiveOrders(orders []models.Order) []models.Order {
	var active []models.Order
	for i := range orders {
		if !orders[i].Cancelled() {
			active = append(active, orders[i])
		}
	}
	return active
}

// GrandTotal menjumlahkan total_amount semua order aktif (tab bill).
func GrandTotal(orders []models.Order) float64 {
	var total float64
	for _, o := range ActiveOrders(orders) {
		total += o.TotalAmount.Float64()
	}
	return total
}
