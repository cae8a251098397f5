package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/config"
	"github.com/yeremiapane/tableside/mockserver"
	"github.com/yeremiapane/tableside/storage"
	"github.com/yeremiapane/tableside/utils"
)

func main() {
	utils.InitLogger()
	cfg := config.LoadServer()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := storage.OpenDriver(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to connect to database: %v", err)
	}

	srv, err := mockserver.New(db)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to init server: %v", err)
	}

	if err := mockserver.Seed(db); err != nil {
		utils.ErrorLogger.Fatalf("failed to seed demo data: %v", err)
	}

	// Timer demo: dapur pura-pura yang mematangkan order
	ticker := mockserver.NewKitchenTicker(db)
	ticker.Start()
	defer ticker.Stop()

	utils.InfoLogger.Printf("mockserver listening on %s", cfg.Addr)
	if err := srv.Engine.Run(cfg.Addr); err != nil {
		utils.ErrorLogger.Fatalf("server stopped: %v", err)
	}
}
