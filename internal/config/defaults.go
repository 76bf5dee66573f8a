package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/araldo/data/db/araldo.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/araldo/data/indices/vectors.bin"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/araldo/data/indices/keyword"
	}
	if cfg.Crawl.MaxPages == 0 {
		cfg.Crawl.MaxPages = 400
	}
	if cfg.Crawl.MaxDepth == 0 {
		cfg.Crawl.MaxDepth = 3
	}
	if cfg.Crawl.Concurrency == 0 {
		cfg.Crawl.Concurrency = 5
	}
	if cfg.Crawl.FetchTimeoutSecs == 0 {
		cfg.Crawl.FetchTimeoutSecs = 15
	}
	if cfg.Crawl.RequestsPerSec == 0 {
		cfg.Crawl.RequestsPerSec = 10
	}
	if cfg.Crawl.MinContentLength == 0 {
		cfg.Crawl.MinContentLength = 200
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = "araldo/1.0"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.MaxTokensPerChunk == 0 {
		// Counted in word tokens; conservative relative to the embedding
		// model's 8k-token input ceiling.
		cfg.Embedding.MaxTokensPerChunk = 4000
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 100
	}
	if cfg.Uploads.Extensions == nil {
		cfg.Uploads.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
}
