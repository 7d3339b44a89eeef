package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/codelinechef/AI-Query-ChatBot/internal/logger"
	"github.com/codelinechef/AI-Query-ChatBot/internal/types"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/assistant"
	cfgPkg "github.com/codelinechef/AI-Query-ChatBot/pkg/config"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/corpus"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/indexer"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/llm"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/prompt"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/retriever"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/scraper"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/store"
	"github.com/codelinechef/AI-Query-ChatBot/server"
)

type flags struct {
	configPath string
	rebuild    bool
	serve      bool
	scrapeURL  string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.BoolVar(&f.rebuild, "rebuild", false, "Rebuild the vector index from scratch")
	flag.BoolVar(&f.serve, "serve", false, "Run the HTTP server instead of the interactive chat")
	flag.StringVar(&f.scrapeURL, "scrape", "", "Scrape a documentation URL into the corpus file before starting")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", e)
		}
		os.Exit(1)
	}

	log := logger.New(cfg.Log.File, cfg.Log.Production)
	defer log.Sync()

	if err := run(f, cfg, log); err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
}

func run(f flags, cfg *cfgPkg.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.scrapeURL != "" {
		if err := scrapeCorpus(ctx, f.scrapeURL, cfg); err != nil {
			return fmt.Errorf("scraping %s: %w", f.scrapeURL, err)
		}
	}

	docs, corpusHash, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	log.Info("corpus loaded", zap.Int("documents", len(docs)), zap.String("path", cfg.Corpus.Path))

	index, err := openIndex(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer index.Close()

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
	})
	if err != nil {
		return err
	}

	indexingBar := getProgressBar(len(docs), " Indexing documentation...")
	ix := indexer.New(embedder, index, log, indexer.Config{
		BatchSize: cfg.Database.BatchSize,
		OnProgress: func(done, total int) {
			indexingBar.Set(done)
		},
	})
	if err := ix.Init(ctx, docs, corpusHash, f.rebuild); err != nil {
		return err
	}
	indexingBar.Finish()

	engine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		SystemTemplate: cfg.LLM.SystemTemplate,
		BaseURL:        cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	bot := assistant.New(
		retriever.New(embedder, index, retriever.Config{TopK: cfg.Retrieval.TopK}),
		prompt.NewComposer(prompt.ComposerConfig{MaxContextChars: cfg.Prompt.MaxContextChars}),
		engine,
		log,
		assistant.Config{TopK: cfg.Retrieval.TopK},
	)

	if f.serve {
		return serve(ctx, bot, cfg, log)
	}
	return chatLoop(ctx, bot, cfg)
}

func openIndex(ctx context.Context, cfg *cfgPkg.Config, log *zap.Logger) (types.VectorIndex, error) {
	if cfg.Database.URL == "" {
		log.Warn("no database configured, using in-memory index (not persisted)")
		return store.NewMemoryIndex(), nil
	}
	return store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	})
}

func scrapeCorpus(ctx context.Context, url string, cfg *cfgPkg.Config) error {
	var scrapeCount int32
	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:           url,
		MaxDepth:          cfg.Scraper.MaxDepth,
		RateLimit:         cfg.Scraper.RateLimit,
		IgnorePatterns:    cfg.Scraper.IgnorePatterns,
		AllowedExtensions: cfg.Scraper.AllowedExtensions,
		OnProgress: func(string) {
			atomic.AddInt32(&scrapeCount, 1)
		},
	})
	if err != nil {
		return err
	}

	bar := getSpinner(" Scraping documentation...")
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				bar.Set(int(atomic.LoadInt32(&scrapeCount)))
			}
		}
	}()

	sections, err := s.Scrape(ctx, url)
	close(done)
	bar.Finish()
	if err != nil {
		return err
	}
	color.Green("✓ Scraped %d pages\n", len(sections))

	if err := scraper.WriteCorpus(cfg.Corpus.Path, sections); err != nil {
		return err
	}
	color.Green("✓ Corpus written to %s\n", cfg.Corpus.Path)
	return nil
}

func serve(ctx context.Context, bot *assistant.Assistant, cfg *cfgPkg.Config, log *zap.Logger) error {
	srv := server.New(bot, server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		StaticDir:      cfg.Server.StaticDir,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		MaxQuestionLen: cfg.Server.MaxQuestionLen,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

func chatLoop(ctx context.Context, bot *assistant.Assistant, cfg *cfgPkg.Config) error {
	color.Cyan("\nChat with the API documentation (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") || strings.EqualFold(question, "quit") {
			break
		}

		if cfg.UI.Streaming {
			stream, _, err := bot.AnswerStream(ctx, question)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			spinner := getSpinner(" Thinking...")
			firstChunk := true
			for fragment := range stream.Fragments() {
				if firstChunk {
					spinner.Finish()
					firstChunk = false
					fmt.Println()
					assistantPrompt("Assistant: ")
				}
				fmt.Print(fragment)
			}
			if firstChunk {
				spinner.Finish()
			}
			if err := stream.Err(); err != nil {
				color.Red("\nError: %v\n", err)
				continue
			}
			fmt.Println()
		} else {
			spinner := getSpinner(" Generating response...")
			answer, err := bot.Answer(ctx, question)
			spinner.Finish()
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", answer.Answer)

			for _, match := range answer.Matches {
				if match.API == nil || match.API.Endpoint == "" {
					continue
				}
				color.Blue("  %s — %s", match.API.Name, match.API.Endpoint)
				fmt.Println()
			}
		}
	}

	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
