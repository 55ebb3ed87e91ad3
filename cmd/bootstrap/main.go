package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"bookgen-ai-api/internal/config"
	"bookgen-ai-api/internal/infrastructure/persistence/milvus"
	"bookgen-ai-api/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 1. PostgreSQL 建表
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pgClient.Close()

	fmt.Println("Running database migrations...")
	if err := pgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	fmt.Println("Database migrations completed.")

	// 2. Milvus 集合与索引（可选）
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		fmt.Printf("Milvus unavailable, skipping vector bootstrap: %v\n", err)
	} else {
		defer milvusClient.Close()
		fmt.Println("Ensuring research chunks collection...")
		repo := milvus.NewRepository(milvusClient)
		if err := repo.EnsureResearchChunksCollection(ctx); err != nil {
			log.Fatalf("failed to bootstrap milvus collection: %v", err)
		}
		fmt.Println("Vector collection ready.")
	}

	fmt.Println("Bootstrap completed successfully.")
}
