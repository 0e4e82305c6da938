// Copyright 2025 AR-Learn
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	corpus "github.com/arlearn/corpus"
	"github.com/arlearn/corpus/ai"
	"github.com/arlearn/corpus/ai/openai"
	"github.com/arlearn/corpus/query"
	"github.com/arlearn/corpus/reindex"
	"github.com/arlearn/corpus/storage/badger"
)

func main() {
	// optional .env file for AI service settings
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "corpus",
		Usage: "Document ingestion and hybrid retrieval for educational content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload and process a document",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Subject tag used for filtered retrieval",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Free-form tag (repeatable)",
					},
				)...),
			},
			{
				Name:      "upload",
				Usage:     "Upload a document and process it in the background",
				ArgsUsage: "FILE",
				Action:    uploadCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Subject tag used for filtered retrieval",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Free-form tag (repeatable)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for processing to finish",
						Value: 5 * time.Minute,
					},
				)...),
			},
			{
				Name:      "query",
				Usage:     "Ask a question against the corpus",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:  "intent",
						Usage: "Query intent (general, procedural, assessment)",
						Value: "general",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Restrict retrieval to documents with this subject",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum results per retrieval source",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print retrieval sources after the answer",
					},
				)...),
			},
			{
				Name:   "list",
				Usage:  "List documents and their processing status",
				Action: listCommand,
				Flags:  dbFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document, its chunks, and its vectors",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "procedure",
				Usage:     "Show the ordered steps of a named procedure",
				ArgsUsage: "NAME",
				Action:    procedureCommand,
				Flags:     dbFlags(),
			},
			{
				Name:   "stats",
				Usage:  "Show corpus statistics",
				Action: statsCommand,
				Flags:  dbFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored chunks with the configured embedding model",
				Action: reindexCommand,
				Flags: append(dbFlags(), append(aiFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the corpus database directory",
			EnvVars:  []string{"CORPUS_DB"},
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			EnvVars: []string{"CORPUS_EMBEDDING_HOST"},
			Value:   "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"CORPUS_EMBEDDING_MODEL"},
			Value:   "embeddinggemma",
		},
		&cli.StringFlag{
			Name:    "generation-host",
			Usage:   "Generation service host URL (defaults to embedding-host)",
			EnvVars: []string{"CORPUS_GENERATION_HOST"},
		},
		&cli.StringFlag{
			Name:    "generation-model",
			Usage:   "Generation model name",
			EnvVars: []string{"CORPUS_GENERATION_MODEL"},
			Value:   "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the AI services",
			EnvVars: []string{"CORPUS_API_KEY", "OPENAI_API_KEY"},
		},
	}
}

func buildAIConfig(c *cli.Context) (*ai.Config, error) {
	generationHost := c.String("generation-host")
	if generationHost == "" {
		generationHost = c.String("embedding-host")
	}

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationHost(generationHost),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func openCorpus(c *cli.Context) (*corpus.Corpus, error) {
	cfg, err := buildAIConfig(c)
	if err != nil {
		return nil, err
	}
	return corpus.Open(c.String("db"), corpus.WithAIConfig(cfg))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	filePath := c.Args().First()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	title := c.String("title")
	if title == "" {
		title = filepath.Base(filePath)
	}

	db, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.IngestDocument(context.Background(), corpus.UploadRequest{
		Title:       title,
		Description: c.String("description"),
		Subject:     c.String("subject"),
		Tags:        c.StringSlice("tag"),
		FileName:    filepath.Base(filePath),
	}, data)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Document %s processed: %d chunks (%s)\n", doc.ID, doc.ChunksCount, doc.Status)
	return nil
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	filePath := c.Args().First()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	title := c.String("title")
	if title == "" {
		title = filepath.Base(filePath)
	}

	db, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.UploadDocument(context.Background(), corpus.UploadRequest{
		Title:       title,
		Description: c.String("description"),
		Subject:     c.String("subject"),
		Tags:        c.StringSlice("tag"),
		FileName:    filepath.Base(filePath),
	}, data)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Printf("Document %s uploaded, processing...\n", doc.ID)

	// Processing runs on the pipeline's pool; wait for a terminal status
	// before closing the database.
	deadline := time.Now().Add(c.Duration("timeout"))
	for {
		current, err := db.Document(context.Background(), doc.ID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			fmt.Printf("Document %s: %s (%d chunks)\n", current.ID, current.Status, current.ChunksCount)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for document %s (last status %s)", doc.ID, current.Status)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func queryCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a question argument")
	}
	question := strings.Join(c.Args().Slice(), " ")

	intent, err := query.ParseIntent(c.String("intent"))
	if err != nil {
		return err
	}

	db, err := openCorpus(c)
	if err != nil {
		return err
	}
	defer db.Close()

	resp, err := db.Query(context.Background(), query.Request{
		Question:   question,
		Intent:     intent,
		Subject:    c.String("subject"),
		MaxResults: c.Int("max-results"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(resp.Answer)
	fmt.Printf("\nConfidence: %.2f  Time: %v\n", resp.Confidence, resp.ProcessingTime.Round(time.Millisecond))

	if c.Bool("sources") {
		fmt.Println("\nSources:")
		for _, source := range resp.Sources {
			switch source.Type {
			case "document":
				fmt.Printf("  [%.2f] document %s (%s)\n", source.RelevanceScore, source.DocumentID, source.ChunkID)
			case "knowledge_graph":
				fmt.Printf("  [%.2f] graph %s %s\n", source.RelevanceScore, source.NodeInfo, source.Relationship)
			}
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewDocumentRepository(backend)
	docs, err := repo.ListDocuments(context.Background())
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %-10s  %4d chunks  %s\n", doc.ID, doc.Status, doc.ChunksCount, doc.Title)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID argument")
	}
	id := c.Args().First()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	ctx := context.Background()
	index := badger.NewVectorIndex(backend)
	if err := index.Delete(ctx, map[string]string{"document_id": id}); err != nil {
		return err
	}

	repo := badger.NewDocumentRepository(backend)
	if err := repo.DeleteDocument(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deleted document %s\n", id)
	return nil
}

func procedureCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one procedure name argument")
	}
	name := c.Args().First()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	graph := badger.NewGraphStore(backend)
	steps, err := graph.ProcedureSteps(context.Background(), name)
	if err != nil {
		return err
	}

	if len(steps) == 0 {
		fmt.Printf("No steps found for procedure %q.\n", name)
		return nil
	}

	for _, step := range steps {
		fmt.Printf("%d. %s\n", step.Order, step.Name)
		if step.Description != "" {
			fmt.Printf("   %s\n", step.Description)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	ctx := context.Background()
	repo := badger.NewDocumentRepository(backend)
	index := badger.NewVectorIndex(backend)

	docs, err := repo.ListDocuments(ctx)
	if err != nil {
		return err
	}
	vectors, err := index.Count(ctx, nil)
	if err != nil {
		return err
	}

	byStatus := make(map[string]int)
	for _, doc := range docs {
		byStatus[string(doc.Status)]++
	}

	fmt.Printf("Documents: %d\n", len(docs))
	for status, count := range byStatus {
		fmt.Printf("  %s: %d\n", status, count)
	}
	fmt.Printf("Vectors: %d\n", vectors)
	return nil
}

func reindexCommand(c *cli.Context) error {
	cfg, err := buildAIConfig(c)
	if err != nil {
		return err
	}

	embedder, err := openai.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewDocumentRepository(backend)
	index := badger.NewVectorIndex(backend)

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	reindexer := reindex.NewReindexer(repo, index, embedder, reindexConfig, os.Stderr)
	if err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
