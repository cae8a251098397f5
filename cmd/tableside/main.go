package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/config"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/screens"
	"github.com/yeremiapane/tableside/session"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
)

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgYellow)
	dangerColor = color.New(color.FgRed, color.Bold)
	okColor     = color.New(color.FgGreen)
)

// app memegang semua state layar diner. Satu goroutine utama yang
// menjalankan command loop; hanya notifikasi host yang datang dari ticker.
type app struct {
	cfg    *config.Config
	neg    *session.Negotiator
	flow   *screens.OrderFlow
	reader *bufio.Scanner
}

func main() {
	utils.InitLogger()

	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: tableside <restaurant-id> <table-id> <qr-token>")
		os.Exit(1)
	}
	restaurantID, tableID, qrToken := os.Args[1], os.Args[2], os.Args[3]

	cfg := config.Load()

	db, err := storage.Open(cfg.StorePath)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to open local store: %v", err)
	}
	store, err := storage.New(db)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to init local store: %v", err)
	}

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout)
	neg := session.NewNegotiator(client, store, restaurantID, tableID, qrToken)

	a := &app{
		cfg:    cfg,
		neg:    neg,
		flow:   screens.NewOrderFlow(client, neg),
		reader: bufio.NewScanner(os.Stdin),
	}

	ctx := context.Background()
	if err := neg.Restore(ctx); err != nil {
		utils.ErrorLogger.Fatalf("session restore failed: %v", err)
	}

	a.run(ctx)
}

func (a *app) run(ctx context.Context) {
	for {
		switch a.neg.State() {
		case session.StateNoSession:
			a.neg.CheckTableStatus(ctx)
		case session.StateAwaitingName:
			if !a.nameScreen(ctx) {
				return
			}
		case session.StatePendingApproval:
			a.waitingRoom(ctx)
		case session.StateRejected:
			if !a.rejectedScreen(ctx) {
				return
			}
		case session.StateActive:
			if !a.menuScreen(ctx) {
				return
			}
		}
	}
}

// nameScreen -> isi nama, plus pilihan join vs separate bill bila meja
// sudah punya host. Return false berarti keluar dari aplikasi.
func (a *app) nameScreen(ctx context.Context) bool {
	titleColor.Println("\n=== Selamat datang ===")

	mode := a.neg.DefaultMode()
	if host := a.neg.HostName(); host != "" {
		warnColor.Printf("Meja ini sudah dibuka oleh %s.\n", host)
		fmt.Println("  [1] Join bill milik host (butuh approval)")
		fmt.Println("  [2] Buka bill terpisah")
		switch a.prompt("Pilihan [1]: ") {
		case "2":
			mode = models.ModeNewBill
		default:
			mode = models.ModeJoinBill
		}
	}

	name := a.prompt("Nama Anda: ")
	if name == "q" {
		return false
	}

	if err := a.neg.Start(ctx, name, mode); err != nil {
		if errors.Is(err, session.ErrNameRequired) {
			dangerColor.Println("Nama tidak boleh kosong.")
			return true
		}
		dangerColor.Printf("Gagal memulai sesi: %v\n", err)
	}
	return true
}

// waitingRoom -> polling status guest dengan interval tetap sampai
// host memutuskan. Timer berhenti begitu state berubah.
func (a *app) waitingRoom(ctx context.Context) {
	warnColor.Println("\nMenunggu approval host...")
	ticker := time.NewTicker(a.cfg.GuestPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		switch a.neg.PollGuestStatus(ctx) {
		case session.StateActive:
			okColor.Println("Disetujui! Menu terbuka.")
			return
		case session.StateRejected:
			return
		}
	}
}

func (a *app) rejectedScreen(ctx context.Context) bool {
	dangerColor.Println("\nAkses ditolak oleh host meja ini.")
	if a.prompt("Mulai dari awal? [y/n]: ") != "y" {
		return false
	}
	if err := a.neg.Clear(ctx); err != nil {
		utils.ErrorLogger.Printf("start over failed: %v", err)
	}
	return true
}

// menuScreen adalah tab utama: menu, cart, orders, bill, approvals host.
// Return false berarti keluar dari aplikasi.
func (a *app) menuScreen(ctx context.Context) bool {
	stopHostPoll := a.startHostPolling(ctx)
	defer stopHostPoll()

	for a.neg.State() == session.StateActive {
		line := a.prompt("\n[menu|cart|add|del|note|checkout|orders|bill|requests|leave|q] > ")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "menu":
			a.printMenu()
		case "cart":
			a.printCart()
		case "add", "del":
			a.adjustCart(fields)
		case "note":
			a.noteCommand(fields)
		case "checkout":
			a.checkout(ctx)
		case "orders":
			a.printOrders(ctx)
		case "bill":
			a.printBill(ctx)
		case "requests":
			a.requestsScreen(ctx)
		case "leave":
			if err := a.neg.Clear(ctx); err != nil {
				utils.ErrorLogger.Printf("leave failed: %v", err)
			}
			return true
		case "q":
			return false
		default:
			fmt.Println("Perintah tidak dikenal.")
		}
	}
	return true
}

// startHostPolling menjalankan satu timer polling data meja untuk host.
// Non-host tidak punya timer sama sekali. Stop dipanggil saat layar
// menu ditinggalkan.
func (a *app) startHostPolling(ctx context.Context) func() {
	if !a.neg.IsPrimary() {
		return func() {}
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(a.cfg.HostPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if a.neg.State() != session.StateActive {
					return
				}
				data, err := a.neg.FetchHostData(ctx)
				if err != nil {
					continue // best-effort, tick berikutnya coba lagi
				}
				if data.SurfaceApprovals {
					warnColor.Printf("\n>> %d permintaan join menunggu. Ketik 'requests'.\n",
						len(data.Pending))
				}
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

func (a *app) requestsScreen(ctx context.Context) {
	data, err := a.neg.FetchHostData(ctx)
	if err != nil {
		dangerColor.Printf("Gagal mengambil data meja: %v\n", err)
		return
	}

	for len(data.Pending) > 0 {
		titleColor.Println("\nPermintaan join:")
		for _, p := range data.Pending {
			fmt.Printf("  [%d] %s\n", p.ID, p.CustomerName)
		}
		if len(data.Guests) > 0 {
			fmt.Println("Guest aktif:")
			for _, g := range data.Guests {
				fmt.Printf("  - %s\n", g.CustomerName)
			}
		}

		line := a.prompt("approve <id> | reject <id> | back: ")
		fields := strings.Fields(line)
		if len(fields) != 2 {
			if line == "back" {
				return
			}
			continue
		}

		id, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		action := models.ActionApprove
		if fields[0] == "reject" {
			action = models.ActionReject
		}

		refreshed, closeModal, err := a.neg.Respond(ctx, uint(id), action)
		if err != nil {
			dangerColor.Printf("Refetch gagal: %v\n", err)
			return
		}
		if closeModal {
			return
		}
		data = refreshed
	}
}

func (a *app) printMenu() {
	menu := a.neg.Menu()
	if menu == nil {
		warnColor.Println("Menu belum dimuat.")
		return
	}
	titleColor.Printf("\n=== %s ===\n", menu.Restaurant.Name)
	for _, cat := range menu.Categories {
		okColor.Printf("-- %s --\n", cat.Name)
		for _, item := range cat.Items {
			fmt.Printf("  [%d] %-24s %10s  %s\n",
				item.ID, item.Name, utils.FormatPrice(item.Price.Float64()), item.Description)
		}
	}
}

func (a *app) printCart() {
	crt := a.flow.Cart()
	menu := a.neg.Menu()
	lines := crt.Lines(menu)
	if len(lines) == 0 {
		fmt.Println("Cart kosong.")
		return
	}
	titleColor.Println("\nCart:")
	for _, line := range lines {
		fmt.Printf("  %dx %-24s %10s", line.Qty, line.Item.Name,
			utils.FormatPrice(float64(line.Qty)*line.Item.Price.Float64()))
		if line.Note != "" {
			fmt.Printf("  (%s)", line.Note)
		}
		fmt.Println()
	}
	qty, total := crt.Totals(menu)
	fmt.Printf("Total: %d item, %s\n", qty, utils.FormatPrice(total))
}

func (a *app) adjustCart(fields []string) {
	if len(fields) < 2 {
		fmt.Println("Pakai: add <item-id> [jumlah] / del <item-id> [jumlah]")
		return
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Println("Item id harus angka.")
		return
	}
	delta := 1
	if len(fields) > 2 {
		if d, err := strconv.Atoi(fields[2]); err == nil {
			delta = d
		}
	}
	if fields[0] == "del" {
		delta = -delta
	}
	if a.neg.Menu().Item(uint(id)) == nil {
		fmt.Println("Item tidak ada di menu.")
		return
	}
	a.flow.Cart().Update(uint(id), delta)
	a.printCart()
}

func (a *app) noteCommand(fields []string) {
	if len(fields) < 2 {
		fmt.Println("Pakai: note order <teks> / note <item-id> <teks>")
		return
	}
	if fields[1] == "order" {
		a.flow.SetOrderNote(strings.Join(fields[2:], " "))
		return
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Println("Item id harus angka.")
		return
	}
	a.flow.Cart().SetNote(uint(id), strings.Join(fields[2:], " "))
}

func (a *app) checkout(ctx context.Context) {
	qty, total := a.flow.Cart().Totals(a.neg.Menu())
	if qty == 0 {
		fmt.Println("Cart kosong, tidak ada yang dikirim.")
		return
	}
	fmt.Printf("Mengirim %d item, total %s...\n", qty, utils.FormatPrice(total))

	err := a.flow.PlaceOrder(ctx)
	switch {
	case errors.Is(err, screens.ErrSessionExpired):
		dangerColor.Println("Sesi kadaluarsa, silakan mulai lagi.")
	case err != nil:
		dangerColor.Printf("Order gagal: %v\n", err)
	default:
		okColor.Println("Order terkirim!")
	}
}

func (a *app) printOrders(ctx context.Context) {
	if err := a.neg.RefreshOrders(ctx); err != nil {
		dangerColor.Printf("Gagal memuat orders: %v\n", err)
		return
	}
	orders := screens.ActiveOrders(a.neg.Orders())
	if len(orders) == 0 {
		fmt.Println("Belum ada order.")
		return
	}
	titleColor.Println("\nOrders:")
	for _, o := range orders {
		fmt.Printf("  #%d [%s] %s - %s\n", o.ID, o.Status, o.CustomerName,
			utils.FormatPrice(o.TotalAmount.Float64()))
		for _, it := range o.Items {
			fmt.Printf("     %dx %s @ %s\n", it.Quantity, it.ItemName,
				utils.FormatPrice(it.UnitPrice.Float64()))
		}
	}
}

func (a *app) printBill(ctx context.Context) {
	if err := a.neg.RefreshOrders(ctx); err != nil {
		dangerColor.Printf("Gagal memuat bill: %v\n", err)
		return
	}
	total := screens.GrandTotal(a.neg.Orders())
	titleColor.Printf("\nTotal tagihan: %s\n", utils.FormatPrice(total))
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.reader.Scan() {
		return "q"
	}
	return strings.TrimSpace(a.reader.Text())
}
