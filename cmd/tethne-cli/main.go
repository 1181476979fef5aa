package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maizifang/tethne/pkg/config"
	"github.com/maizifang/tethne/pkg/graph"
	"github.com/maizifang/tethne/pkg/influence"
	"github.com/maizifang/tethne/pkg/interfaces"
	"github.com/maizifang/tethne/pkg/logging"
	"github.com/maizifang/tethne/pkg/orchestration"
	"github.com/maizifang/tethne/pkg/topicmodel"
	"github.com/maizifang/tethne/pkg/tracing"
)

const (
	version = "0.1.0"
	banner  = `
╔══════════════════════════════════════════════════════════════════════════════╗
║                              Tethne CLI Tool                                 ║
║                      Topical Influence Graph Runner                          ║
║                              Version %s                                   ║
╚══════════════════════════════════════════════════════════════════════════════╝
`
)

// Global logger instance
var logger = logging.New()

// Dataset is the JSON input format: a fitted topic model plus a temporal
// sequence of graph slices.
type Dataset struct {
	Topics   int                  `json:"topics"`   // number of topics
	Mixtures map[string][]float64 `json:"mixtures"` // document ID -> topic mixture
	Slices   []DatasetSlice       `json:"slices"`   // slices in temporal order
}

type DatasetSlice struct {
	Key       string            `json:"key"`       // slice label, e.g. a year
	Edges     []DatasetEdge     `json:"edges"`     // undirected weighted edges
	Documents []DatasetDocument `json:"documents"` // documents of this slice
}

type DatasetEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type DatasetDocument struct {
	ID      string   `json:"id"`
	Authors []string `json:"authors"`
}

// TopicOutput is the JSON output format for one topic: the influence edges
// of every slice.
type TopicOutput struct {
	Topic  int                     `json:"topic"`
	Slices map[string][]OutputEdge `json:"slices"`
}

type OutputEdge struct {
	Source string  `json:"source"` // the influenced node
	Target string  `json:"target"` // its exemplar
	Weight float64 `json:"weight"`
}

func main() {
	// Load .env file if it exists
	loadEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	switch command {
	case "version", "--version", "-v":
		fmt.Printf("Tethne CLI v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	case "init":
		initDataset()
	case "inspect":
		inspectDataset()
	case "run":
		runDataset()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Printf(banner, version)
	fmt.Println(`USAGE:
    tethne-cli <command> [options]

COMMANDS:
    init                Write a starter dataset file
    inspect             Validate a dataset and print a summary
    run                 Run influence inference over a dataset
    version             Show version information
    help                Show this help message

RUN OPTIONS:
    --output=<dir>      Write one JSON file per topic to this directory
    --topic=<n>         Only report the given topic
    --no-prime          Do not carry state between adjacent slices
    --skip-failed       Record slice failures instead of aborting

EXAMPLES:
    # Write a starter dataset
    tethne-cli init dataset.json

    # Check the dataset before running
    tethne-cli inspect dataset.json

    # Run and print a summary
    tethne-cli run dataset.json

    # Run and write per-topic influence graphs
    tethne-cli run dataset.json --output=./graphs

Engine parameters come from the environment (TAP_DAMPING,
TAP_MAX_ITERATIONS, TAP_CONVERGENCE_PATIENCE, TAP_SELF_AFFINITY),
optionally via a .env file in the working directory.`)
}

// runOptions holds the flags of the run command.
type runOptions struct {
	datasetFile string
	outputDir   string
	topic       int
	topicSet    bool
	noPrime     bool
	skipFailed  bool
}

func parseRunFlags() (*runOptions, error) {
	options := &runOptions{}

	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]

		if strings.HasPrefix(arg, "--output=") {
			options.outputDir = strings.TrimPrefix(arg, "--output=")
		} else if arg == "--output" && i+1 < len(os.Args) {
			options.outputDir = os.Args[i+1]
			i++ // skip next arg
		} else if strings.HasPrefix(arg, "--topic=") {
			if _, err := fmt.Sscanf(strings.TrimPrefix(arg, "--topic="), "%d", &options.topic); err != nil {
				return nil, fmt.Errorf("invalid --topic value: %s", arg)
			}
			options.topicSet = true
		} else if arg == "--no-prime" {
			options.noPrime = true
		} else if arg == "--skip-failed" {
			options.skipFailed = true
		} else if strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		} else if options.datasetFile == "" {
			options.datasetFile = arg
		}
	}

	if options.datasetFile == "" {
		return nil, fmt.Errorf("a dataset file is required")
	}
	return options, nil
}

func runDataset() {
	ctx := context.Background()

	options, err := parseRunFlags()
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	dataset, err := loadDataset(options.datasetFile)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	topics, err := topicmodel.NewStatic(dataset.Topics, dataset.Mixtures)
	if err != nil {
		log.Fatalf("Failed to build topic model: %v", err)
	}

	slices, err := buildSlices(dataset)
	if err != nil {
		log.Fatalf("Failed to build slices: %v", err)
	}

	cfg := config.Get()
	orchestratorOptions := []orchestration.Option{
		orchestration.WithLogger(logger),
		orchestration.WithEngineConfig(influence.Config{
			Damping:       cfg.Engine.Damping,
			MaxIterations: cfg.Engine.MaxIterations,
			Patience:      cfg.Engine.Patience,
			SelfAffinity:  cfg.Engine.SelfAffinity,
		}),
		orchestration.WithPriming(!options.noPrime && cfg.Orchestrator.PrimeAcrossSlices),
	}
	if options.skipFailed || cfg.Orchestrator.SkipFailedSlices {
		orchestratorOptions = append(orchestratorOptions, orchestration.WithSkipFailedSlices())
	}
	if cfg.Tracing.OpenTelemetry.Enabled {
		tracer, err := tracing.NewOTelTracer(tracing.OTelConfig{
			ServiceName:       cfg.Tracing.OpenTelemetry.ServiceName,
			CollectorEndpoint: cfg.Tracing.OpenTelemetry.CollectorEndpoint,
			Enabled:           true,
		})
		if err != nil {
			logger.Warn(ctx, "Tracer unavailable, continuing without tracing", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			orchestratorOptions = append(orchestratorOptions, orchestration.WithTracer(tracer))
		}
	}

	orchestrator, err := orchestration.New(topics, orchestratorOptions...)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	if err := orchestrator.Run(ctx, slices); err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Printf("Run %s completed\n\n", orchestrator.RunID())
	for _, key := range orchestrator.Keys() {
		model, _ := orchestrator.Model(key)
		fmt.Printf("  %s: %d nodes, %d iterations, converged=%v, primed=%v\n",
			key, model.NodeCount(), model.Iteration(), model.Converged(), model.Primed())
	}
	if failed := orchestrator.FailedSlices(); len(failed) > 0 {
		fmt.Println()
		for key, failure := range failed {
			fmt.Printf("  ⚠️ %s failed: %v\n", key, failure)
		}
	}
	fmt.Println()

	first, last := 0, dataset.Topics
	if options.topicSet {
		first, last = options.topic, options.topic+1
	}

	for topic := first; topic < last; topic++ {
		collection, err := orchestrator.CollectByTopic(topic)
		if err != nil {
			log.Fatalf("Failed to collect topic %d: %v", topic, err)
		}

		if options.outputDir != "" {
			if err := writeTopicOutput(options.outputDir, topic, collection); err != nil {
				log.Fatalf("Failed to write topic %d: %v", topic, err)
			}
			continue
		}

		fmt.Printf("Topic %d:\n", topic)
		for _, key := range orchestrator.Keys() {
			fmt.Printf("  %s:\n", key)
			for _, e := range collection[key].Edges() {
				fmt.Printf("    %s <- %s (%.3f)\n", e.From, e.To, e.Weight)
			}
		}
		fmt.Println()
	}

	if options.outputDir != "" {
		fmt.Printf("✅ Influence graphs written to: %s\n", options.outputDir)
	}
}

func inspectDataset() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: tethne-cli inspect <dataset.json>")
		os.Exit(1)
	}

	dataset, err := loadDataset(os.Args[2])
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	if _, err := topicmodel.NewStatic(dataset.Topics, dataset.Mixtures); err != nil {
		log.Fatalf("Invalid topic model: %v", err)
	}
	slices, err := buildSlices(dataset)
	if err != nil {
		log.Fatalf("Invalid slices: %v", err)
	}

	fmt.Printf("Dataset: %s\n", os.Args[2])
	fmt.Printf("  Topics:    %d\n", dataset.Topics)
	fmt.Printf("  Mixtures:  %d documents\n", len(dataset.Mixtures))
	fmt.Printf("  Slices:    %d\n", len(slices))
	for _, slice := range slices {
		fmt.Printf("    %s: %d nodes, %d edges, %d documents\n",
			slice.Key, slice.Graph.NodeCount(), slice.Graph.EdgeCount(), len(slice.Documents))
	}
}

func initDataset() {
	datasetFile := "dataset.json"
	if len(os.Args) > 2 {
		datasetFile = os.Args[2]
	}

	// Do not overwrite an existing dataset without confirmation.
	if _, err := os.Stat(datasetFile); err == nil {
		fmt.Printf("%s already exists. Overwrite? (y/N): ", datasetFile)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Cancelled.")
			return
		}
	}

	starter := &Dataset{
		Topics: 2,
		Mixtures: map[string][]float64{
			"paper-1": {0.9, 0.1},
			"paper-2": {0.2, 0.8},
			"paper-3": {0.5, 0.5},
		},
		Slices: []DatasetSlice{
			{
				Key: "1999",
				Edges: []DatasetEdge{
					{Source: "ada", Target: "grace", Weight: 2},
					{Source: "grace", Target: "alan", Weight: 1},
				},
				Documents: []DatasetDocument{
					{ID: "paper-1", Authors: []string{"ada", "grace"}},
					{ID: "paper-2", Authors: []string{"alan"}},
				},
			},
			{
				Key: "2000",
				Edges: []DatasetEdge{
					{Source: "ada", Target: "alan", Weight: 1},
				},
				Documents: []DatasetDocument{
					{ID: "paper-3", Authors: []string{"ada", "alan"}},
				},
			},
		},
	}

	data, err := json.MarshalIndent(starter, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal dataset: %v", err)
	}
	if err := os.WriteFile(datasetFile, data, 0600); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	fmt.Printf("✅ Starter dataset written to: %s\n", datasetFile)
	fmt.Println("\nNext steps:")
	fmt.Printf("1. Edit %s with your graphs and topic mixtures\n", datasetFile)
	fmt.Printf("2. Run: tethne-cli run %s\n", datasetFile)
}

func loadDataset(path string) (*Dataset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	// #nosec G304 -- absPath is resolved from a user-supplied CLI argument
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var dataset Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if dataset.Topics <= 0 {
		return nil, fmt.Errorf("dataset must declare a positive topic count")
	}
	if len(dataset.Slices) == 0 {
		return nil, fmt.Errorf("dataset has no slices")
	}
	return &dataset, nil
}

// buildSlices converts the dataset slices into orchestrator input.
func buildSlices(dataset *Dataset) ([]interfaces.Slice, error) {
	slices := make([]interfaces.Slice, 0, len(dataset.Slices))
	for _, ds := range dataset.Slices {
		g := graph.NewUndirected()
		for _, e := range ds.Edges {
			if err := g.AddEdge(e.Source, e.Target, e.Weight); err != nil {
				return nil, fmt.Errorf("slice %q: %w", ds.Key, err)
			}
		}

		documents := make([]interfaces.Document, 0, len(ds.Documents))
		for _, d := range ds.Documents {
			documents = append(documents, interfaces.Document{ID: d.ID, Authors: d.Authors})
		}

		slices = append(slices, interfaces.Slice{Key: ds.Key, Graph: g, Documents: documents})
	}
	return slices, nil
}

func writeTopicOutput(dir string, topic int, collection map[string]*graph.Directed) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	output := TopicOutput{Topic: topic, Slices: make(map[string][]OutputEdge, len(collection))}
	for key, dg := range collection {
		edges := make([]OutputEdge, 0, dg.EdgeCount())
		for _, e := range dg.Edges() {
			edges = append(edges, OutputEdge{Source: e.From, Target: e.To, Weight: e.Weight})
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
		output.Slices[key] = edges
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	outputFile := filepath.Join(dir, fmt.Sprintf("topic-%d.json", topic))
	if err := os.WriteFile(outputFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func loadEnvFile() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return // .env file doesn't exist, that's okay
	}

	file, err := os.Open(envFile)
	if err != nil {
		return // Can't open .env file, continue without it
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("⚠️ Failed to close .env file: %v", closeErr)
		}
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE format
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
			(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
			value = value[1 : len(value)-1]
		}

		// Only set if not already set in environment
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				log.Printf("⚠️ Failed to set environment variable %s: %v", key, err)
			}
		}
	}

	// Re-read engine parameters after loading the .env file.
	config.Reload()
}
