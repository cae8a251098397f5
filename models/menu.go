package models

type RestaurantInfo struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type MenuItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Image       string `json:"image"`
}

type MenuCategory struct {
	ID    uint       `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// SessionEcho adalah blok "session" opsional yang server sisipkan
// di response menu untuk meng-update status sesi pemanggil.
type SessionEcho struct {
	CustomerName string     `json:"customer_name"`
	IsPrimary    bool       `json:"is_primary"`
	JoinStatus   JoinStatus `json:"join_status"`
}

// MenuSnapshot selalu diganti utuh pada setiap fetch, tidak pernah
// dipatch sebagian.
type MenuSnapshot struct {
	Restaurant RestaurantInfo `json:"restaurant"`
	Categories []MenuCategory `json:"categories"`
	Session    *SessionEcho   `json:"session,omitempty"`
}

// Item mencari satu menu item berdasarkan id di seluruh kategori.
func (m *MenuSnapshot) Item(id uint) *MenuItem {
	if m == nil {
		return nil
	}
	for ci := range m.Categories {
		for ii := range m.Categories[ci].Items {
			if m.Categories[ci].Items[ii].ID == id {
				return &m.Categories[ci].Items[ii]
			}
		}
	}
	return nil
}
