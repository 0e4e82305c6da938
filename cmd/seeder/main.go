package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arlearn/corpus/core"
	"github.com/arlearn/corpus/storage/badger"
)

// defaultSeed is a small anatomy knowledge set used when no seed file is
// given, handy for local development.
var defaultSeed = seedData{
	Facts: []core.GraphFact{
		{Node: "Heart", Relationship: "PUMPS", ConnectedNode: "Blood"},
		{Node: "Heart", Relationship: "HAS_PART", ConnectedNode: "Left Ventricle"},
		{Node: "Heart", Relationship: "HAS_PART", ConnectedNode: "Right Ventricle"},
		{Node: "Heart", Relationship: "HAS_PART", ConnectedNode: "Left Atrium"},
		{Node: "Heart", Relationship: "HAS_PART", ConnectedNode: "Right Atrium"},
		{Node: "Lungs", Relationship: "EXCHANGE", ConnectedNode: "Oxygen and Carbon Dioxide"},
		{Node: "Blood", Relationship: "CARRIES", ConnectedNode: "Oxygen"},
		{Node: "Aorta", Relationship: "PART_OF", ConnectedNode: "Circulatory System"},
		{Node: "Femur", Relationship: "PART_OF", ConnectedNode: "Skeleton"},
		{Node: "Skeleton", Relationship: "SUPPORTS", ConnectedNode: "Body"},
		{Node: "Brain", Relationship: "CONTROLS", ConnectedNode: "Nervous System"},
		{Node: "Neuron", Relationship: "TRANSMITS", ConnectedNode: "Electrical Signals"},
		{Node: "Kidney", Relationship: "FILTERS", ConnectedNode: "Blood"},
		{Node: "Liver", Relationship: "PROCESSES", ConnectedNode: "Nutrients"},
		{Node: "Diaphragm", Relationship: "ENABLES", ConnectedNode: "Breathing"},
	},
	Procedures: []core.ProcedureStep{
		{Procedure: "cpr", Order: 1, Name: "Check responsiveness", Description: "Tap the person's shoulder and shout to check for a response."},
		{Procedure: "cpr", Order: 2, Name: "Call for help", Description: "Call emergency services or ask a bystander to do so."},
		{Procedure: "cpr", Order: 3, Name: "Begin chest compressions", Description: "Push hard and fast in the center of the chest, 100 to 120 compressions per minute."},
		{Procedure: "cpr", Order: 4, Name: "Give rescue breaths", Description: "After 30 compressions, give 2 rescue breaths if trained."},
		{Procedure: "cpr", Order: 5, Name: "Continue until help arrives", Description: "Repeat cycles of compressions and breaths until responders take over."},
	},
}

// seedData is the on-disk shape of a seed file.
type seedData struct {
	Facts      []core.GraphFact     `yaml:"facts"`
	Procedures []core.ProcedureStep `yaml:"procedures"`
}

var (
	dbPath       = flag.String("db", "./corpus_db", "path to the corpus database directory")
	seedFileName = flag.String("src", "", "YAML file of seed facts and procedures")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// loadSeedFile parses a YAML seed file.
func loadSeedFile(filename string) (*seedData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var seed seedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func main() {
	flag.Parse()

	backend, err := badger.OpenBackend(*dbPath, false)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	graph := badger.NewGraphStore(backend)

	seed := &defaultSeed
	if *seedFileName != "" {
		seed, err = loadSeedFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	}

	ctx := context.Background()

	for _, fact := range seed.Facts {
		if err := graph.AddFact(ctx, fact); err != nil {
			slog.Error("failed to add fact", "node", fact.Node, "err", err)
			os.Exit(1)
		}
	}
	slog.Info("seeded facts", "count", len(seed.Facts))

	for _, step := range seed.Procedures {
		if err := graph.AddProcedureStep(ctx, step); err != nil {
			slog.Error("failed to add procedure step", "procedure", step.Procedure, "order", step.Order, "err", err)
			os.Exit(1)
		}
	}
	slog.Info("seeded procedure steps", "count", len(seed.Procedures))
}
