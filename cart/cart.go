package cart

import (
	"sort"

	"github.com/yeremiapane/tableside/models"
)

// Cart adalah keranjang in-memory: map menu item id -> jumlah, plus
// catatan per item. Quantity nol atau negatif tidak pernah disimpan,
// key-nya langsung dihapus. Cart sengaja tidak dipersist: sesi baru
// tidak boleh diam-diam mengirim ulang cart lama.
type Cart struct {
	items map[uint]int
	notes map[uint]string
}

func New() *Cart {
	return &Cart{
		items: make(map[uint]int),
		notes: make(map[uint]string),
	}
}

// Update menambah delta ke quantity item. Hasil <= 0 menghapus item
// berikut catatannya.
func (c *Cart) Update(itemID uint, delta int) {
	next := c.items[itemID] + delta
	if next <= 0 {
		delete(c.items, itemID)
		delete(c.notes, itemID)
		return
	}
	c.items[itemID] = next
}

// Quantity mengembalikan jumlah item di cart (0 bila tidak ada).
func (c *Cart) Quantity(itemID uint) int {
	return c.items[itemID]
}

// SetNote menyimpan catatan untuk item. Catatan untuk item yang tidak
// ada di cart diabaikan.
func (c *Cart) SetNote(itemID uint, note string) {
	if _, ok := c.items[itemID]; !ok {
		return
	}
	if note == "" {
		delete(c.notes, itemID)
		return
	}
	c.notes[itemID] = note
}

func (c *Cart) Note(itemID uint) string {
	return c.notes[itemID]
}

// Empty melaporkan cart kosong.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// Reset mengosongkan cart dan semua catatan (dipanggil setelah order sukses).
func (c *Cart) Reset() {
	c.items = make(map[uint]int)
	c.notes = make(map[uint]string)
}

// Line adalah satu baris checkout: item menu + jumlah + catatan.
type Line struct {
	Item models.MenuItem
	Qty  int
	Note string
}

// Lines menggabungkan cart dengan menu saat ini, urut mengikuti urutan
// kategori di menu. Item cart yang sudah hilang dari menu tidak ikut.
func (c *Cart) Lines(menu *models.MenuSnapshot) []Line {
	if menu == nil {
		return nil
	}
	var lines []Line
	for _, cat := range menu.Categories {
		for _, item := range cat.Items {
			if qty, ok := c.items[item.ID]; ok {
				lines = append(lines, Line{Item: item, Qty: qty, Note: c.notes[item.ID]})
			}
		}
	}
	return lines
}

// Totals menghitung total quantity dan total harga terhadap harga menu
// SAAT INI, bukan harga ketika item dimasukkan ke cart.
func (c *Cart) Totals(menu *models.MenuSnapshot) (totalQty int, totalPrice float64) {
	for _, line := range c.Lines(menu) {
		totalQty += line.Qty
		totalPrice += float64(line.Qty) * line.Item.Price.Float64()
	}
	return totalQty, totalPrice
}

// ItemIDs mengembalikan id item di cart, urut naik (untuk tampilan stabil).
func (c *Cart) ItemIDs() []uint {
	ids := make([]uint, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
