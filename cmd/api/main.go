package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	apiconfig "fleet_pricing/pkg/api/config"
	apipricing "fleet_pricing/pkg/api/pricing"
	apiresale "fleet_pricing/pkg/api/resale"
	"fleet_pricing/pkg/core/agent"
	"fleet_pricing/pkg/core/cache"
	"fleet_pricing/pkg/core/resale"
	"fleet_pricing/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx := context.Background()

	// Initialize manager from config
	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	// Resale predictor: trained model if one is on disk, LLM estimator
	// otherwise.
	var predictor resale.Predictor
	modelPath := os.Getenv("RESALE_MODEL")
	if modelPath == "" {
		modelPath = "models/resale_model.json"
	}
	if model, err := resale.Load(modelPath); err == nil {
		fmt.Printf("[RESALE] Loaded trained model from %s\n", modelPath)
		predictor = model
	} else {
		fmt.Printf("[RESALE] No trained model at %s, using LLM estimator (%v)\n", modelPath, err)
		predictor = resale.NewLLMPredictor(agentMgr)
	}

	// Optional Redis memoization in front of the predictor.
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cached := cache.NewPredictionCache(redisAddr, predictor, 0)
		if err := cached.Ping(ctx); err != nil {
			fmt.Printf("[WARNING] Redis at %s unreachable, predictions uncached: %v\n", redisAddr, err)
		} else {
			fmt.Printf("[CACHE] Prediction cache on %s\n", redisAddr)
			predictor = cached
		}
	}

	// Optional Postgres for run history; the vault falls back to local files.
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database init failed, using file storage: %v\n", err)
		} else {
			fmt.Println("[STORE] Connected to Postgres")
			defer store.Close()
		}
	}
	vault := store.NewRunVault(os.Getenv("RUN_CACHE_DIR"))

	// Config endpoints
	configHandler := apiconfig.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Pricing endpoints
	pricingHandler := apipricing.NewHandler(predictor, vault)
	http.HandleFunc("/api/price-lease", pricingHandler.HandlePriceLease)
	http.HandleFunc("/api/runs", pricingHandler.HandleListRuns)

	// Resale endpoints
	resaleHandler := apiresale.NewHandler(predictor)
	http.HandleFunc("/api/predict-resale", resaleHandler.HandlePredictResale)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - POST /api/price-lease")
	fmt.Println("  - GET  /api/runs")
	fmt.Println("  - POST /api/predict-resale")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
