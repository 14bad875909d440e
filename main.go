package main

import (
	"time"

	"blogium/config"
	"blogium/models"
	"blogium/routes"
	"blogium/store"
	"blogium/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
		&models.UploadedFile{},
		&models.PageView{},
	)

	r := routes.SetupRouter(db)

	// Background cleanup for post images that were never attached
	utils.StartUploadCleaner(store.New(db, cfg.PageSize), 5*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
