package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pathogen/internal/engine"
	"pathogen/internal/fitness"
	"pathogen/internal/storage"
	pathapi "pathogen/pkg/pathogen"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:], false)
	case "resume":
		return runRun(ctx, args[1:], true)
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "agents":
		return runAgents(ctx, args[1:])
	case "log":
		return runLog(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pathogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

// runOptions carries the CLI-only settings that configure the client and
// process, not the run itself.
type runOptions struct {
	storeKind   string
	dbPath      string
	metricsAddr string
	verbose     bool
}

func runRun(ctx context.Context, args []string, resume bool) error {
	name := "run"
	if resume {
		name = "resume"
	}
	req, opts, err := parseRunFlags(name, args)
	if err != nil {
		return err
	}
	req.Resume = resume

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if opts.metricsAddr != "" {
		serveMetrics(opts.metricsAddr, logger)
	}

	client, err := pathapi.New(pathapi.Options{
		StoreKind: opts.storeKind,
		DBPath:    opts.dbPath,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run=%s generations=%d mutations=%d successful=%d success_rate=%.3f mean_delta=%.4f\n",
		summary.RunID, summary.Generations, summary.TotalMutations,
		summary.SuccessfulMutations, summary.SuccessRate, summary.MeanFitnessDelta)
	for i, id := range summary.TopMutations {
		fmt.Printf("top[%d]=%s\n", i+1, id)
	}
	return nil
}

// parseRunFlags merges the optional JSON config with flag overrides. Flags
// that were explicitly set win even when set to a zero value.
func parseRunFlags(name string, args []string) (pathapi.RunRequest, runOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	pathways := fs.String("pathways", "", "comma-separated pathway ids")
	generations := fs.Int("gens", 0, "generation count")
	mutationsPerGen := fs.Int("mutations", 0, "target mutations per generation")
	population := fs.Int("pop", 0, "agent population size")
	workers := fs.Int("workers", 0, "dispatch worker count")
	evolveEvery := fs.Int("evolve-every", 0, "evolve swarm after every N generations")
	keepFraction := fs.Float64("keep-fraction", 0, "fraction of agents retained on evolve")
	learningRate := fs.Float64("learning-rate", 0, "agent fitness learning rate")
	baseline := fs.Float64("baseline", 0, "initial benchmark baseline score")
	maxLinearChains := fs.Int("max-linear-chains", 0, "linear chain candidates per pathway (-1 disables)")
	pathwayDir := fs.String("pathway-dir", "pathways", "directory holding <id>.xml (KGML) or <id>.txt (flat) files")
	scoreCmd := fs.String("score-cmd", "", "shell command scoring a mutation (reads mutation JSON on stdin, prints score)")
	seed := fs.Int64("seed", 1, "rng seed for the simulated scorer")
	mutationLog := fs.String("mutation-log", "mutations.jsonl", "JSONL mutation log path (empty disables)")
	statePath := fs.String("state", "", "run state snapshot path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pathogen.db", "sqlite database path")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (empty disables)")
	verbose := fs.Bool("verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return pathapi.RunRequest{}, runOptions{}, err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return pathapi.RunRequest{}, runOptions{}, err
	}
	if *runID != "" {
		req.RunID = *runID
	}
	if *pathways != "" {
		req.PathwayIDs = splitList(*pathways)
	}
	if *generations > 0 {
		req.Generations = *generations
	}
	if *mutationsPerGen > 0 {
		req.MutationsPerGeneration = *mutationsPerGen
	}
	if *population > 0 {
		req.PopulationSize = *population
	}
	if *workers > 0 {
		req.Workers = *workers
	}
	if *evolveEvery > 0 {
		req.EvolveEvery = *evolveEvery
	}
	if *keepFraction > 0 {
		req.KeepFraction = *keepFraction
	}
	if *learningRate > 0 {
		req.LearningRate = *learningRate
	}
	if setFlags["baseline"] {
		req.Baseline = *baseline
	}
	if *maxLinearChains != 0 {
		req.MaxLinearChains = *maxLinearChains
	}
	if *mutationLog != "" {
		req.MutationLogPath = *mutationLog
	}
	if *statePath != "" {
		req.StatePath = *statePath
	}

	req.Source = &dirSource{dir: *pathwayDir}
	req.Scorer = scorerFromFlags(*scoreCmd, *seed, req.Baseline)

	return req, runOptions{
		storeKind:   *storeKind,
		dbPath:      *dbPath,
		metricsAddr: *metricsAddr,
		verbose:     *verbose,
	}, nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pathogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := pathapi.New(pathapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summaries, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		fmt.Printf("%s\t%s\tgens=%d\tmutations=%d\tsuccess_rate=%.3f\n",
			summary.RunID, summary.CreatedAtUTC, summary.Generations,
			summary.TotalMutations, summary.SuccessRate)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 0, "maximum results to show (0 shows all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pathogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("history requires -run-id")
	}

	client, err := pathapi.New(pathapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(history) > *limit {
		history = history[len(history)-*limit:]
	}
	for _, result := range history {
		line, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}
	return nil
}

func runAgents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "pathogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("agents requires -run-id")
	}

	client, err := pathapi.New(pathapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	state, err := client.SwarmState(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("run=%s generation=%d agents=%d\n", *runID, state.Generation, len(state.Agents))
	for _, agent := range state.Agents {
		fmt.Printf("%s\t%s\tfitness=%.3f\tapplied=%d\tsuccesses=%d\n",
			agent.ID, agent.Specialization, agent.Fitness,
			agent.MutationsApplied, agent.Successes)
	}
	return nil
}

func runLog(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	path := fs.String("path", "mutations.jsonl", "mutation log path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	results, err := engine.ReadMutationLog(*path)
	if err != nil {
		return err
	}
	for _, result := range results {
		status := "fail"
		if result.Success {
			status = "ok"
		}
		fmt.Printf("%s\tgen=%d\t%s\t%s\tdelta=%.4f\n",
			result.MutationID, result.Generation, result.Operator, status, result.FitnessDelta)
	}
	return nil
}

func scorerFromFlags(scoreCmd string, seed int64, baseline float64) fitness.Scorer {
	if scoreCmd != "" {
		return &commandScorer{command: scoreCmd}
	}
	return newSimulatedScorer(seed, baseline)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: pathogenctl <init|run|resume|runs|history|agents|log> [flags]", msg)
}
