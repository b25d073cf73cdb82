package main

import (
	"fmt"
	"time"

	"bibsent/internal/assembler"
	"bibsent/internal/bibtex"
	"bibsent/internal/cache"
	"bibsent/internal/config"
	"bibsent/internal/corpus"
	"bibsent/internal/domain"
	"bibsent/internal/embedding"
	"bibsent/internal/extractor"
	"bibsent/internal/library"
	"bibsent/internal/logger"
	"bibsent/internal/segmenter"
	"bibsent/internal/service"
	"bibsent/internal/tagger"
	"bibsent/internal/validator"
	"bibsent/internal/vocabulary"
)

// sourceAbstract takes document text from the bibliography instead of PDFs.
const sourceAbstract = "abstract"

type app struct {
	cfg      *config.AppConfig
	vocab    *vocabulary.Store
	pipeline *service.Pipeline
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, path, err := config.LoadDefault()
	if err == nil {
		logger.Debug("config: %s", path)
	}
	return cfg, err
}

// newApp wires the pipeline. Only serialize tags text, so the tagger client
// is built when tagging is set; the other commands work from the cache.
func newApp(tagging bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	entries, err := bibtex.Load(cfg.Library.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("%d entries in %s", len(entries), cfg.Library.Path)

	c, err := cache.Open(cfg.Data.Path, cfg.Data.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	vocab, err := vocabulary.Open(cfg.Data.VocabularyPath)
	if err != nil {
		return nil, err
	}
	var asm *assembler.Assembler
	if tagging {
		if asm, err = newAssembler(cfg, vocab); err != nil {
			vocab.Close()
			return nil, err
		}
	}
	lib := library.New(entries, asm, c, library.WithWorkers(cfg.Pipeline.Workers))

	granularity, err := corpus.ParseGranularity(cfg.Corpus.Granularity)
	if err != nil {
		vocab.Close()
		return nil, err
	}
	stop, err := corpus.LoadStoplist(cfg.Corpus.StoplistPath)
	if err != nil {
		vocab.Close()
		return nil, err
	}
	builder := corpus.NewBuilder(stop, vocab, corpus.Options{
		Granularity:     granularity,
		RequireNounVerb: cfg.Corpus.RequireNounVerb,
	})
	embedderCfg := cfg.Embedder
	pipeline := service.New(lib, builder, embedding.NewStore(cfg.Data.EmbeddingsPath), stop, service.Options{
		BatchKey:    embedding.Key(cfg.Library.Path, cfg.Library.Source, string(granularity), cfg.Embedder.Model),
		Granularity: granularity,
		NewEmbedder: func() (domain.Embedder, error) { return embedding.New(embedderCfg) },
	})
	return &app{cfg: cfg, vocab: vocab, pipeline: pipeline}, nil
}

func newAssembler(cfg *config.AppConfig, vocab *vocabulary.Store) (*assembler.Assembler, error) {
	tg, err := tagger.NewClient(tagger.Config{
		URL:     cfg.Tagger.URL,
		Model:   cfg.Tagger.Model,
		Timeout: time.Duration(cfg.Tagger.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	opts := []assembler.Option{assembler.WithLemmaSink(vocab)}
	if cfg.Library.Source == sourceAbstract {
		opts = append(opts, assembler.WithAbstractSource())
	}
	return assembler.New(cfg.Library.Storage, extractor.NewPDF(), segmenter.New(), validator.New(tg), opts...), nil
}

func (a *app) Close() {
	if err := a.vocab.Close(); err != nil {
		logger.Warn("close vocabulary: %v", err)
	}
}
