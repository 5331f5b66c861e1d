package main

import (
	"context"
	"log"
	"net/http"

	"github.com/rs/cors"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/config"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/database"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/routes"
)

func main() {
	cfg := config.LoadConfig()

	client, err := database.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting MongoDB: %v", err)
		}
	}()

	router := routes.SetupRouter(client, cfg)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	log.Printf("Server running on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, c.Handler(router)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
