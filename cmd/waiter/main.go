package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/yeremiapane/tableside/api"
	"github.com/yeremiapane/tableside/config"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
	"github.com/yeremiapane/tableside/waiter"
)

var (
	titleColor  = color.New(color.FgBlue, color.Bold)
	okColor     = color.New(color.FgGreen)
	dangerColor = color.New(color.FgRed, color.Bold)
)

func main() {
	utils.InitLogger()
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
	station := waiter.NewStation(client, store)
	if err := station.RestoreAuth(); err != nil {
		utils.ErrorLogger.Fatalf("auth restore failed: %v", err)
	}

	ctx := context.Background()
	reader := bufio.NewScanner(os.Stdin)

	for {
		if !station.LoggedIn() {
			if !loginScreen(ctx, station, reader) {
				return
			}
			continue
		}
		if !pickupsScreen(ctx, cfg, station, reader) {
			return
		}
	}
}

func loginScreen(ctx context.Context, station *waiter.Station, reader *bufio.Scanner) bool {
	titleColor.Println("\n=== Staff Portal ===")
	email := prompt(reader, "Email: ")
	if email == "q" {
		return false
	}
	password := prompt(reader, "Password: ")

	err := station.Login(ctx, email, password)
	switch {
	case errors.Is(err, waiter.ErrCredentialsRequired):
		dangerColor.Println("Email dan password wajib diisi.")
	case err != nil:
		dangerColor.Printf("Login gagal: %v\n", err)
	default:
		okColor.Printf("Halo, %s!\n", station.UserName())
	}
	return true
}

// pickupsScreen: tab PICKUPS dengan polling interval tetap. Timer hanya
// jalan selama tab ini aktif; pindah tab atau logout menghentikannya.
func pickupsScreen(ctx context.Context, cfg *config.Config, station *waiter.Station, reader *bufio.Scanner) bool {
	var mu sync.Mutex
	loggedOut := false

	refresh := func() {
		err := station.RefreshReady(ctx)
		if errors.Is(err, waiter.ErrLoggedOut) {
			mu.Lock()
			loggedOut = true
			mu.Unlock()
			dangerColor.Println("\nSesi staff berakhir, silakan login ulang.")
			return
		}
		if err != nil {
			utils.ErrorLogger.Printf("ready queue poll failed: %v", err)
		}
	}

	refresh()
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.WaiterPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				refresh()
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	for {
		mu.Lock()
		out := loggedOut
		mu.Unlock()
		if out || !station.LoggedIn() {
			return true
		}

		line := prompt(reader, "\n[list|serve <id>|refresh|logout|q] > ")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			printReady(station)
		case "serve":
			if len(fields) != 2 {
				fmt.Println("Pakai: serve <order-id>")
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("Order id harus angka.")
				continue
			}
			if err := station.Serve(ctx, uint(id)); err != nil {
				dangerColor.Printf("Serve gagal: %v\n", err)
			} else {
				okColor.Printf("Order %d diantar.\n", id)
			}
		case "refresh":
			refresh()
			printReady(station)
		case "logout":
			if err := station.Logout(); err != nil {
				utils.ErrorLogger.Printf("logout failed: %v", err)
			}
			return true
		case "q":
			return false
		default:
			fmt.Println("Perintah tidak dikenal.")
		}
	}
}

func printReady(station *waiter.Station) {
	orders := station.Ready()
	if len(orders) == 0 {
		fmt.Println("Tidak ada order siap antar.")
		return
	}
	titleColor.Println("\nSiap diantar:")
	for _, o := range orders {
		fmt.Printf("  #%d meja %s - %s (%s)\n", o.ID, o.TableNumber, o.CustomerName,
			utils.FormatPrice(o.TotalAmount.Float64()))
		for _, it := range o.Items {
			fmt.Printf("     %dx %s\n", it.Quantity, it.ItemName)
		}
	}
}

func prompt(reader *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !reader.Scan() {
		return "q"
	}
	return strings.TrimSpace(reader.Text())
}
