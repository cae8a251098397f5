package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yeremiapane/tableside/models"
)

// Client adalah satu-satunya jalur ke backend. Semua bentuk payload
// yang longgar dinormalkan di boundary ini, bukan di layar.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// ValidateQR menanyakan apakah meja sudah punya host aktif.
func (c *Client) ValidateQR(ctx context.Context, restaurantID, tableID, qrToken string) (*models.TableStatus, error) {
	var status models.TableStatus
	path := fmt.Sprintf("/qr/validate/%s/%s/%s",
		url.PathEscape(restaurantID), url.PathEscape(tableID), url.PathEscape(qrToken))
	if err := c.do(ctx, http.MethodGet, path, nil, "", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartSession membuat atau men-join sesi meja. Response server
// (session_token, is_primary, join_status) yang menentukan state
// berikutnya, bukan mode yang dipilih diner.
func (c *Client) StartSession(ctx context.Context, restaurantID, tableID, qrToken, customerName string, mode models.JoinMode) (*models.TableSession, error) {
	body := map[string]interface{}{
		"customer_name": customerName,
		"mode":          string(mode),
	}
	var sess models.TableSession
	path := fmt.Sprintf("/qr/session/start/%s/%s/%s",
		url.PathEscape(restaurantID), url.PathEscape(tableID), url.PathEscape(qrToken))
	if err := c.do(ctx, http.MethodPost, path, body, "", &sess); err != nil {
		return nil, err
	}
	sess.RestaurantID = restaurantID
	sess.TableID = tableID
	return &sess, nil
}

// LeaveSession memberi tahu backend sesi ditinggalkan. Advisory saja,
// pemanggil boleh mengabaikan errornya.
func (c *Client) LeaveSession(ctx context.Context, sessionToken string) error {
	body := map[string]string{"session_token": sessionToken}
	return c.do(ctx, http.MethodPost, "/qr/session/leave", body, "", nil)
}

// FetchMenu mengambil menu sekaligus memvalidasi sesi. 403 dengan field
// join_status di body adalah sinyal pending/rejected, bukan sekadar error.
func (c *Client) FetchMenu(ctx context.Context, restaurantID, tableID, qrToken, sessionToken string) (*models.MenuSnapshot, error) {
	var menu models.MenuSnapshot
	path := fmt.Sprintf("/menu/%s/%s/%s?session_token=%s",
		url.PathEscape(restaurantID), url.PathEscape(tableID),
		url.PathEscape(qrToken), url.QueryEscape(sessionToken))
	if err := c.do(ctx, http.MethodGet, path, nil, "", &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// SessionOrders mengambil semua order milik satu sesi.
func (c *Client) SessionOrders(ctx context.Context, sessionToken string) ([]models.Order, error) {
	var orders []models.Order
	path := "/orders/session/" + url.PathEscape(sessionToken)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// PlaceOrder mengirim isi cart sebagai order baru.
func (c *Client) PlaceOrder(ctx context.Context, draft *models.OrderDraft) error {
	return c.do(ctx, http.MethodPost, "/orders", draft, "", nil)
}

// HostTableData mengambil daftar pending request + guest aktif milik host.
func (c *Client) HostTableData(ctx context.Context, tableID string) (*models.HostTableData, error) {
	var data models.HostTableData
	path := fmt.Sprintf("/table/%s/pending-requests", url.PathEscape(tableID))
	if err := c.do(ctx, http.MethodGet, path, nil, "", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RespondToJoin mengirim keputusan host atas sebuah join request.
func (c *Client) RespondToJoin(ctx context.Context, requestID uint, action models.JoinAction) error {
	body := map[string]string{"action": string(action)}
	path := fmt.Sprintf("/session/%d/respond", requestID)
	return c.do(ctx, http.MethodPost, path, body, "", nil)
}

// WaiterLogin menukar kredensial staff dengan bearer token.
func (c *Client) WaiterLogin(ctx context.Context, email, password string) (*models.WaiterAuth, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string            `json:"token"`
		User  models.WaiterUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/waiter/login", body, "", &resp); err != nil {
		return nil, err
	}
	return &models.WaiterAuth{
		Token:     resp.Token,
		UserName:  resp.User.Name,
		UserEmail: resp.User.Email,
	}, nil
}

// ReadyOrders mengambil antrian order siap antar.
func (c *Client) ReadyOrders(ctx context.Context, bearerToken string) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/waiter/orders/ready", nil, bearerToken, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ServeOrder menandai satu order sudah diantar.
func (c *Client) ServeOrder(ctx context.Context, bearerToken string, orderID uint) error {
	path := fmt.Sprintf("/waiter/orders/%d/serve", orderID)
	return c.do(ctx, http.MethodPost, path, nil, bearerToken, nil)
}

// do menjalankan satu request JSON. Non-2xx dikembalikan sebagai
// *StatusError berisi message server dan join_status bila ada.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, bearer string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// newStatusError membaca body error server dengan toleran: body yang
// tidak bisa diparse tetap menghasilkan StatusError dengan join_status
// kosong, dan pemanggil yang memutuskan artinya.
func newStatusError(code int, raw []byte) *StatusError {
	se := &StatusError{Code: code}
	var detail struct {
		Message    string            `json:"message"`
		JoinStatus models.JoinStatus `json:"join_status"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil {
		se.Message = detail.Message
		se.JoinStatus = detail.JoinStatus
	}
	return se
}
