package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/internal/types"
)

// ErrInit reports an index or embedding backend failure during startup.
// It is fatal; the service does not run in a degraded mode.
var ErrInit = errors.New("indexer: index initialization failed")

const (
	metaKeyModel      = "embedder_model"
	metaKeyCorpusHash = "corpus_hash"
)

type Config struct {
	BatchSize int
	// OnProgress, when set, is called after each stored batch.
	OnProgress func(done, total int)
}

// Indexer builds and maintains the vector index from the loaded corpus.
type Indexer struct {
	config   Config
	embedder types.Embedder
	index    types.VectorIndex
	logger   *zap.Logger
}

func New(embedder types.Embedder, index types.VectorIndex, logger *zap.Logger, config Config) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		config:   config,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Init prepares the index for the given corpus.
//
// With rebuild set, all prior entries are discarded and every document is
// re-embedded. Otherwise a populated index whose recorded corpus hash and
// embedder model match is reused as-is, with zero embedding calls; a stale
// corpus hash forces a rebuild, and a different embedder model is an error
// (mixed embedding spaces degrade retrieval silently, so reject loudly).
func (ix *Indexer) Init(ctx context.Context, docs []models.Document, corpusHash string, rebuild bool) error {
	if !rebuild {
		count, err := ix.index.Count(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInit, err)
		}
		if count > 0 {
			storedModel, err := ix.index.Meta(ctx, metaKeyModel)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInit, err)
			}
			if storedModel != "" && storedModel != ix.embedder.Model() {
				return fmt.Errorf("%w: index built with embedder %q, configured %q",
					ErrInit, storedModel, ix.embedder.Model())
			}

			storedHash, err := ix.index.Meta(ctx, metaKeyCorpusHash)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInit, err)
			}
			if storedHash == corpusHash {
				ix.logger.Info("reusing existing index",
					zap.Int("documents", count),
					zap.String("embedder", ix.embedder.Model()))
				return nil
			}
			ix.logger.Warn("corpus changed since last build, rebuilding index",
				zap.String("stored_hash", storedHash),
				zap.String("corpus_hash", corpusHash))
		}
	}

	return ix.rebuild(ctx, docs, corpusHash)
}

func (ix *Indexer) rebuild(ctx context.Context, docs []models.Document, corpusHash string) error {
	ix.logger.Info("building index",
		zap.Int("documents", len(docs)),
		zap.String("embedder", ix.embedder.Model()))

	if err := ix.index.Reset(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}

	for start := 0; start < len(docs); start += ix.config.BatchSize {
		end := start + ix.config.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}

		embeddings, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embedding batch at %d: %v", ErrInit, start, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("%w: embedder returned %d vectors for %d documents",
				ErrInit, len(embeddings), len(batch))
		}

		embedded := make([]models.EmbeddedDocument, len(batch))
		for i, doc := range batch {
			embedded[i] = models.EmbeddedDocument{Document: doc, Embedding: embeddings[i]}
		}
		if err := ix.index.Upsert(ctx, embedded); err != nil {
			return fmt.Errorf("%w: storing batch at %d: %v", ErrInit, start, err)
		}

		if ix.config.OnProgress != nil {
			ix.config.OnProgress(end, len(docs))
		}
	}

	if err := ix.index.SetMeta(ctx, metaKeyModel, ix.embedder.Model()); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	if err := ix.index.SetMeta(ctx, metaKeyCorpusHash, corpusHash); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}

	ix.logger.Info("index build completed", zap.Int("documents", len(docs)))
	return nil
}
