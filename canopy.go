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


package canopy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docshelf/canopy/ai"
	"github.com/docshelf/canopy/ai/openai"
	"github.com/docshelf/canopy/batch"
	"github.com/docshelf/canopy/core"
	"github.com/docshelf/canopy/migration"
	"github.com/docshelf/canopy/remote"
	"github.com/docshelf/canopy/search"
	"github.com/docshelf/canopy/storage"
	"github.com/docshelf/canopy/storage/badger"
)

// Service wires the whole system together: the remote content client,
// the document store, the embedding provider, the per-document migrator,
// the batch scheduler and the searcher.
type Service struct {
	backend    *badger.Backend
	repository storage.DocumentRepository
	client     remote.Client
	provider   ai.AIProvider
	migrator   *migration.Migrator
	searcher   *search.Searcher
	progressTo io.Writer
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	client       remote.Client
	token        string
	inMemory     bool
	chunkSize    int
	chunkOverlap int
	maxDepth     int
	progressTo   io.Writer
	logger       *slog.Logger
}

// WithAIConfig sets the embedding and chat endpoint configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider injects a prebuilt AI provider instead of constructing
// one from the config. The service takes ownership and closes it.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithRemoteClient injects a prebuilt remote client instead of building
// an HTTP one from the base URL.
func WithRemoteClient(client remote.Client) ServiceOption {
	return func(o *serviceOptions) {
		o.client = client
	}
}

// WithAPIToken sets the bearer token for the remote content API.
func WithAPIToken(token string) ServiceOption {
	return func(o *serviceOptions) {
		o.token = token
	}
}

// WithInMemoryStore keeps all data in memory. Intended for tests and
// dry runs.
func WithInMemoryStore() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithChunkParams sets the chunk window size and overlap in characters.
func WithChunkParams(size, overlap int) ServiceOption {
	return func(o *serviceOptions) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithMaxDepth sets how deep document tree fetches descend.
func WithMaxDepth(depth int) ServiceOption {
	return func(o *serviceOptions) {
		o.maxDepth = depth
	}
}

// WithProgressWriter streams line-oriented run progress to w.
func WithProgressWriter(w io.Writer) ServiceOption {
	return func(o *serviceOptions) {
		o.progressTo = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService opens the document store at filePath and connects to the
// remote content API at remoteBaseURL.
func NewService(filePath, remoteBaseURL string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repository, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	client := options.client
	if client == nil {
		client, err = remote.NewHTTPClient(remoteBaseURL,
			remote.WithToken(options.token),
			remote.WithHTTPLogger(options.logger))
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	var migratorOpts []migration.Option
	if options.chunkSize > 0 {
		migratorOpts = append(migratorOpts, migration.WithChunkParams(options.chunkSize, options.chunkOverlap))
	}
	if options.maxDepth > 0 {
		migratorOpts = append(migratorOpts, migration.WithMaxDepth(options.maxDepth))
	}
	migratorOpts = append(migratorOpts, migration.WithLogger(options.logger))

	migrator, err := migration.NewMigrator(client, repository, provider.Embedder(), migratorOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(repository, provider.Embedder(),
		search.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:    backend,
		repository: repository,
		client:     client,
		provider:   provider,
		migrator:   migrator,
		searcher:   searcher,
		progressTo: options.progressTo,
		logger:     options.logger,
	}, nil
}

// Close releases the AI provider and the document store.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

// Repository exposes the document store for callers that need direct
// reads.
func (s *Service) Repository() storage.DocumentRepository {
	return s.repository
}

// MigrateDocument migrates one remote document. The result reports
// success or failure; it is never an error.
func (s *Service) MigrateDocument(ctx context.Context, remoteId string) *core.MigrationResult {
	return s.migrator.MigrateDocument(ctx, remoteId)
}

// MigrateAll migrates the listed documents under an adaptive
// parallelism strategy chosen from the document count.
func (s *Service) MigrateAll(ctx context.Context, documentIds []string) (*core.BatchSummary, error) {
	scheduler, err := s.newScheduler(len(documentIds))
	if err != nil {
		return nil, err
	}
	return scheduler.MigrateAll(ctx, documentIds), nil
}

// MigrateStored re-migrates every document already in the store,
// refreshing content and embeddings from the remote. A store listing
// failure yields an empty zero-progress summary, not an error.
func (s *Service) MigrateStored(ctx context.Context) (*core.BatchSummary, error) {
	scheduler, err := s.newScheduler(0)
	if err != nil {
		return nil, err
	}
	return scheduler.MigrateFrom(ctx, func(ctx context.Context) ([]string, error) {
		docs, err := s.repository.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(docs))
		for i, doc := range docs {
			ids[i] = doc.RemoteId
		}
		return ids, nil
	}), nil
}

func (s *Service) newScheduler(total int) (*batch.Scheduler, error) {
	opts := []batch.Option{batch.WithLogger(s.logger)}
	if s.progressTo != nil {
		opts = append(opts, batch.WithProgress(batch.NewProgressTracker(s.progressTo, total)))
	}
	return batch.NewScheduler(s.migrator, opts...)
}

// Search ranks stored documents against the query.
func (s *Service) Search(ctx context.Context, query string, opts *search.Options) ([]*core.RankedDocument, error) {
	return s.searcher.Search(ctx, query, opts)
}

// BuildContext searches for the query and assembles the ranked
// documents' merged text into one context block suitable for a
// generation prompt. Returns an empty string when nothing matches.
func (s *Service) BuildContext(ctx context.Context, query string, opts *search.Options) (string, error) {
	ranked, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "", nil
	}

	parts := make([]string, len(ranked))
	for i, doc := range ranked {
		parts[i] = fmt.Sprintf("## %s\n%s", doc.Title, doc.MergedText)
	}
	return strings.Join(parts, "\n\n"), nil
}

const chatSystemPrompt = `You are an assistant answering questions about a migrated document workspace.
Answer using only the context below. If the context does not contain the answer, say so.

Context:
%s`

// Chat answers a question over the migrated corpus: retrieval context
// is assembled from a search on the latest user message and handed to
// the chat model as the system prompt.
func (s *Service) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	query := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.ChatRoleUser {
			query = messages[i].Content
			break
		}
	}
	if core.IsBlank(query) {
		return "", ErrNoMessages
	}

	contextBlock, err := s.BuildContext(ctx, query, nil)
	if err != nil {
		return "", err
	}
	if contextBlock == "" {
		contextBlock = "(no matching documents)"
	}

	return s.provider.ChatModel().GenerateText(ctx,
		fmt.Sprintf(chatSystemPrompt, contextBlock), messages)
}
