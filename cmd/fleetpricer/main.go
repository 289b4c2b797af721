package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"

	"fleet_pricing/pkg/core/market"
	"fleet_pricing/pkg/core/npv"
	"fleet_pricing/pkg/core/pricing"
	"fleet_pricing/pkg/core/resale"
	"fleet_pricing/pkg/core/store"
	"fleet_pricing/pkg/core/utils"
	"fleet_pricing/pkg/models"
)

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "gen-data":
		err = runGenData(os.Args[2:])
	case "train-resale":
		err = runTrainResale(os.Args[2:])
	case "predict-resale":
		err = runPredictResale(os.Args[2:])
	case "price-lease":
		err = runPriceLease(os.Args[2:])
	case "comps":
		err = runComps(os.Args[2:])
	case "runs":
		err = runListRuns(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func usage() {
	fmt.Println("Usage: fleetpricer <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  gen-data        Generate a synthetic resale training CSV")
	fmt.Println("  train-resale    Fit the resale regression model from a CSV")
	fmt.Println("  predict-resale  Estimate one vehicle's end-of-lease value")
	fmt.Println("  price-lease     Solve the minimum monthly fee for a lease")
	fmt.Println("  comps           Parse market comps from a listings page")
	fmt.Println("  runs            List recent pricing runs")
}

func runGenData(args []string) error {
	fs := flag.NewFlagSet("gen-data", flag.ExitOnError)
	out := fs.String("out", "data/fleet_resale.csv", "output CSV path")
	rows := fs.Int("rows", 5000, "number of rows to generate")
	seed := fs.Int64("seed", 42, "random seed")
	fs.Parse(args)

	if err := resale.WriteSyntheticCSV(*out, *rows, *seed); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", *rows, *out)
	return nil
}

func runTrainResale(args []string) error {
	fs := flag.NewFlagSet("train-resale", flag.ExitOnError)
	dataPath := fs.String("data", "data/fleet_resale.csv", "training CSV path")
	out := fs.String("out", "models/resale_model.json", "model output path")
	target := fs.String("target", "resale_value_end", "target column")
	alpha := fs.Float64("alpha", 1.0, "ridge penalty")
	testFrac := fs.Float64("test-frac", 0.2, "holdout fraction")
	seed := fs.Int64("seed", 42, "split seed")
	fs.Parse(args)

	dataset, err := resale.LoadCSV(*dataPath)
	if err != nil {
		return err
	}

	model, metrics, err := resale.Train(dataset, *target, resale.TrainOptions{
		TestFrac: *testFrac,
		Seed:     *seed,
		Alpha:    *alpha,
	})
	if err != nil {
		return err
	}
	if err := model.Save(*out); err != nil {
		return err
	}

	fmt.Printf("Trained on %d rows\n", metrics.NRows)
	fmt.Printf("  MAE: %.2f\n", metrics.MAE)
	fmt.Printf("  R2:  %.4f\n", metrics.R2)
	fmt.Printf("Model saved to %s\n", *out)
	return nil
}

func runPredictResale(args []string) error {
	fs := flag.NewFlagSet("predict-resale", flag.ExitOnError)
	modelPath := fs.String("model", "models/resale_model.json", "trained model path")
	vehicleJSON := fs.String("vehicle-json", "", "vehicle features as JSON")
	useLLM := fs.Bool("llm", false, "use the Gemini estimator instead of the trained model")
	geminiModel := fs.String("gemini-model", "", "Gemini model name for --llm")
	fs.Parse(args)

	if *vehicleJSON == "" {
		return fmt.Errorf("--vehicle-json is required")
	}
	vehicle, err := utils.DecodeVehicleJSON(*vehicleJSON)
	if err != nil {
		return err
	}

	ctx := context.Background()
	predictor, cleanup, err := buildPredictor(ctx, *modelPath, *useLLM, *geminiModel)
	if err != nil {
		return err
	}
	defer cleanup()

	value, err := predictor.PredictResale(ctx, vehicle)
	if err != nil {
		return err
	}
	fmt.Printf("Estimated resale value at end of lease: %.2f per vehicle\n", value)
	return nil
}

func buildPredictor(ctx context.Context, modelPath string, useLLM bool, geminiModel string) (resale.Predictor, func(), error) {
	noop := func() {}
	if useLLM {
		p, err := resale.NewDirectGeminiPredictor(ctx, geminiModel)
		if err != nil {
			return nil, noop, err
		}
		return p, func() { p.Close() }, nil
	}
	model, err := resale.Load(modelPath)
	if err != nil {
		return nil, noop, fmt.Errorf("no trained model at %s (train one or pass --llm): %w", modelPath, err)
	}
	return model, noop, nil
}

func runPriceLease(args []string) error {
	fs := flag.NewFlagSet("price-lease", flag.ExitOnError)
	scenarioPath := fs.String("scenario", "", "scenario file (HJSON or JSON)")
	vehicleJSON := fs.String("vehicle-json", "", "vehicle features as JSON (overrides scenario)")
	modelPath := fs.String("model", "models/resale_model.json", "trained model path")
	useLLM := fs.Bool("llm", false, "use the Gemini estimator for resale prediction")
	geminiModel := fs.String("gemini-model", "", "Gemini model name for --llm")
	client := fs.String("client", "", "client name for run history")
	save := fs.Bool("save", false, "persist the run")
	reportPath := fs.String("report", "", "write an HTML report to this path")
	fs.Parse(args)

	if *scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}
	req, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}

	if *vehicleJSON != "" {
		vehicle, err := utils.DecodeVehicleJSON(*vehicleJSON)
		if err != nil {
			return err
		}
		req.Vehicle = vehicle
		req.ResaleValueEndPerVehicle = nil
	}

	ctx := context.Background()
	resp := models.PricingResponse{RunID: uuid.NewString()}

	if req.NeedsResalePrediction() {
		if req.Vehicle == nil {
			return fmt.Errorf("scenario has neither resale_value_end_per_vehicle nor vehicle features")
		}
		predictor, cleanup, err := buildPredictor(ctx, *modelPath, *useLLM, *geminiModel)
		if err != nil {
			return err
		}
		defer cleanup()

		predicted, err := predictor.PredictResale(ctx, req.Vehicle)
		if err != nil {
			return err
		}
		fmt.Printf("Predicted resale value: %.2f per vehicle\n", predicted)
		req.ResaleValueEndPerVehicle = &predicted
		resp.PredictedResalePerVehicle = &predicted
	}

	coreReq, err := req.ToCore()
	if err != nil {
		return err
	}

	result, err := pricing.PriceLease(coreReq)
	if err != nil {
		var infeasible *npv.InfeasibleTargetError
		if errors.As(err, &infeasible) {
			return fmt.Errorf("target unreachable: best NPV %.2f vs target %.2f at max fee %.2f",
				infeasible.AchievedNPV, infeasible.TargetProfitPV, infeasible.MaxFee)
		}
		return err
	}
	resp.Result = result

	fmt.Printf("Base fee:  %.2f per vehicle per month\n", result.BaseFee)
	fmt.Printf("Final fee: %.2f per vehicle per month\n", result.FinalFee)
	fmt.Printf("NPV at base fee: %.2f (target %.2f)\n", result.Breakdown.NPV, req.TargetProfitPV)

	if *save {
		vault := store.NewRunVault(os.Getenv("RUN_CACHE_DIR"))
		if err := vault.Save(ctx, *client, &req, &resp); err != nil {
			fmt.Printf("[WARNING] Failed to save run: %v\n", err)
		} else {
			fmt.Printf("Saved run %s\n", resp.RunID)
		}
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, &req, &resp); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", *reportPath)
	}
	return nil
}

// loadScenario reads a pricing request from an HJSON or JSON document.
// HJSON is decoded to a generic value and re-marshaled so the struct's JSON
// tags apply.
func loadScenario(path string) (models.PricingRequest, error) {
	var req models.PricingRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read scenario: %w", err)
	}

	var loose interface{}
	if err := hjson.Unmarshal(data, &loose); err != nil {
		return req, fmt.Errorf("scenario did not parse: %w", err)
	}
	canonical, err := json.Marshal(loose)
	if err != nil {
		return req, fmt.Errorf("scenario re-encode failed: %w", err)
	}
	if err := json.Unmarshal(canonical, &req); err != nil {
		return req, fmt.Errorf("scenario fields did not decode: %w", err)
	}
	return req, nil
}

func writeReport(path string, req *models.PricingRequest, resp *models.PricingResponse) error {
	var md strings.Builder
	md.WriteString("# Lease Pricing Report\n\n")
	md.WriteString(fmt.Sprintf("Run `%s`\n\n", resp.RunID))
	md.WriteString(fmt.Sprintf("- Term: %d months, %d vehicles\n", req.TermMonths, req.NumVehicles))
	md.WriteString(fmt.Sprintf("- Target profit (PV): %.2f\n", req.TargetProfitPV))
	if resp.PredictedResalePerVehicle != nil {
		md.WriteString(fmt.Sprintf("- Predicted resale per vehicle: %.2f\n", *resp.PredictedResalePerVehicle))
	}
	md.WriteString("\n## Result\n\n")
	md.WriteString(fmt.Sprintf("- Base fee: **%.2f** per vehicle per month\n", resp.Result.BaseFee))
	md.WriteString(fmt.Sprintf("- Final fee: **%.2f** per vehicle per month\n", resp.Result.FinalFee))
	md.WriteString("\n## NPV breakdown at base fee\n\n")
	b := resp.Result.Breakdown
	md.WriteString("| Component | PV |\n|---|---|\n")
	md.WriteString(fmt.Sprintf("| Lease revenue | %.2f |\n", b.PVLeaseRevenue))
	md.WriteString(fmt.Sprintf("| Costs | %.2f |\n", b.PVCosts))
	md.WriteString(fmt.Sprintf("| Resale | %.2f |\n", b.PVResale))
	md.WriteString(fmt.Sprintf("| Terminal payoff | %.2f |\n", b.PVTerminalPayoff))
	md.WriteString(fmt.Sprintf("| **NPV** | %.2f |\n", b.NPV))

	if !utils.ValidateMarkdown(md.String()) {
		return fmt.Errorf("generated report is not valid markdown")
	}
	html, err := utils.RenderMarkdownHTML(md.String())
	if err != nil {
		return err
	}
	return os.WriteFile(path, html, 0644)
}

func runComps(args []string) error {
	fs := flag.NewFlagSet("comps", flag.ExitOnError)
	url := fs.String("url", "", "listings page URL")
	file := fs.String("file", "", "local listings HTML file")
	fs.Parse(args)

	var comps []market.CompRow
	var err error
	switch {
	case *url != "":
		comps, err = market.FetchListings(context.Background(), *url)
	case *file != "":
		var html []byte
		html, err = os.ReadFile(*file)
		if err == nil {
			comps, err = market.ParseListings(string(html))
		}
	default:
		return fmt.Errorf("provide --url or --file")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Found %d comparable listings\n", len(comps))
	for model, median := range market.MedianPriceByModel(comps) {
		fmt.Printf("  %s: median %.2f\n", model, median)
	}
	return nil
}

func runListRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	fs.Parse(args)

	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database init failed, using file storage: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	vault := store.NewRunVault(os.Getenv("RUN_CACHE_DIR"))
	summaries, err := vault.ListRecent(ctx, *limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No pricing runs recorded.")
		return nil
	}
	for _, s := range summaries {
		client := s.Client
		if client == "" {
			client = "-"
		}
		fmt.Printf("%s  %s  client=%s  fee=%.2f  npv=%.2f\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.RunID, client, s.FinalFee, s.NPV)
	}
	return nil
}
