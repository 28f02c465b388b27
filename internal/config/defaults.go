package config

import "fmt"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Query == "" {
		cfg.Query = "How to fix common programming errors?"
	}
	if cfg.Datasets.Root == "" {
		cfg.Datasets.Root = "."
	}
	if cfg.Datasets.Folders == nil {
		cfg.Datasets.Folders = []string{"typescript_dataset", "python_dataset", "sql_dataset"}
	}
	if cfg.Datasets.Extensions == nil {
		cfg.Datasets.Extensions = []string{".txt"}
	}
	if cfg.Datasets.TopicColumn == "" {
		cfg.Datasets.TopicColumn = "Topic"
	}
	if cfg.Datasets.QuestionColumn == "" {
		cfg.Datasets.QuestionColumn = "Question"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Ranking.TopK == 0 {
		cfg.Ranking.TopK = 10
	}
	if cfg.Ranking.DedupKey == "" {
		cfg.Ranking.DedupKey = "topic_question"
	}
	if cfg.Ranking.Concurrency == 0 {
		cfg.Ranking.Concurrency = 1
	}
	if cfg.Report.MaxDuplicateExamples == 0 {
		cfg.Report.MaxDuplicateExamples = 5
	}
	if cfg.Report.QuestionPreview == 0 {
		cfg.Report.QuestionPreview = 30
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}

// Validate rejects settings that cannot work.
func Validate(cfg *Config) error {
	switch cfg.Embedding.Provider {
	case "onnx", "mock":
	default:
		return fmt.Errorf("invalid embedding.provider %q (use onnx or mock)", cfg.Embedding.Provider)
	}
	switch cfg.Ranking.DedupKey {
	case "topic_question", "question":
	default:
		return fmt.Errorf("invalid ranking.dedup_key %q (use topic_question or question)", cfg.Ranking.DedupKey)
	}
	if cfg.Ranking.Concurrency < 0 {
		return fmt.Errorf("ranking.concurrency must not be negative")
	}
	if cfg.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative")
	}
	return nil
}
