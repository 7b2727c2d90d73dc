// Copyright 2025 Docshelf Labs
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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/docshelf/canopy"
	"github.com/docshelf/canopy/ai"
	"github.com/docshelf/canopy/batch"
	"github.com/docshelf/canopy/search"
)

func main() {
	app := &cli.App{
		Name:  "canopy",
		Usage: "Migrate remote document trees into a searchable local store",
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
				Name:      "migrate",
				Usage:     "Migrate one or more remote documents by id",
				ArgsUsage: "<document-id> [document-id...]",
				Action:    migrateCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:   "migrate-all",
				Usage:  "Re-migrate every document already in the store",
				Action: migrateAllCommand,
				Flags:  serviceFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search migrated documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of documents to return",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity for vector hits",
						Value: search.DefaultThreshold,
					},
					&cli.BoolFlag{
						Name:  "no-embeddings",
						Usage: "Keyword matching only, skip the vector path",
					},
				),
			},
			{
				Name:   "chat",
				Usage:  "Interactive question answering over migrated documents",
				Action: chatCommand,
				Flags:  serviceFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Base URL of the remote content API",
			EnvVars: []string{"CANOPY_API_URL"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Bearer token for the remote content API",
			EnvVars: []string{"CANOPY_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-host",
			Usage: "Chat service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Chunk window size in characters",
			Value: 1000,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Overlap between consecutive chunks in characters",
			Value: 200,
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "Maximum tree depth to fetch",
			Value: 5,
		},
	}
}

func newService(c *cli.Context) (*canopy.Service, error) {
	chatHost := c.String("chat-host")
	if chatHost == "" {
		chatHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatHost(chatHost),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return canopy.NewService(c.String("db"), c.String("api-url"),
		canopy.WithAIConfig(aiConfig),
		canopy.WithAPIToken(c.String("api-token")),
		canopy.WithChunkParams(c.Int("chunk-size"), c.Int("chunk-overlap")),
		canopy.WithMaxDepth(c.Int("max-depth")),
		canopy.WithProgressWriter(os.Stderr),
	)
}

func migrateCommand(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("at least one document id is required")
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.MigrateAll(context.Background(), ids)
	if err != nil {
		return err
	}

	printSummary(summary.Total, summary.Successful, summary.Failed)
	for _, result := range summary.PerDocument {
		if !result.Success {
			printFailure(result.DocumentId, result.Title, result.Errors)
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Total)
	}
	return nil
}

func migrateAllCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.MigrateStored(context.Background())
	if err != nil {
		return err
	}

	printSummary(summary.Total, summary.Successful, summary.Failed)
	for _, result := range summary.PerDocument {
		if !result.Success {
			printFailure(result.DocumentId, result.Title, result.Errors)
		}
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Total)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ranked, err := svc.Search(context.Background(), query, &search.Options{
		UseEmbeddings: !c.Bool("no-embeddings"),
		Limit:         c.Int("limit"),
		Threshold:     float32(c.Float64("threshold")),
	})
	if err != nil {
		return err
	}

	if len(ranked) == 0 {
		fmt.Println("no matching documents")
		return nil
	}
	for i, doc := range ranked {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, doc.Title, doc.MaxScore)
		if doc.URL != "" {
			fmt.Printf("   %s\n", doc.URL)
		}
		fmt.Printf("%s\n\n", indent(doc.MergedText, "   "))
	}
	return nil
}

func chatCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	var history []ai.ChatMessage
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("canopy chat - empty line to exit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		history = append(history, ai.ChatMessage{Role: ai.ChatRoleUser, Content: line})
		answer, err := svc.Chat(ctx, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			history = history[:len(history)-1]
			continue
		}
		history = append(history, ai.ChatMessage{Role: ai.ChatRoleAssistant, Content: answer})
		fmt.Println(answer)
	}
	return scanner.Err()
}

func printSummary(total, successful, failed int) {
	fmt.Printf("migrated %d documents: %d succeeded, %d failed\n", total, successful, failed)
}

func printFailure(id, title string, errs []string) {
	label := id
	if title != "" {
		label = fmt.Sprintf("%s (%s)", title, id)
	}
	fmt.Printf("  FAILED %s\n", label)
	for _, e := range errs {
		fmt.Printf("    %s [%s]\n", e, batch.ClassifyFailure(e))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
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
