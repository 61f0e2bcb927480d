package config

import "fmt"

// Validate checks all configuration values and returns the first problem
// found, wrapped around the matching sentinel error.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be >= 1, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d (chunk_size %d)",
			ErrInvalidChunkOverlap, c.ChunkOverlap, c.ChunkSize)
	}

	if c.MaxResults < 1 || c.MaxResults > MaxAllowedResults {
		return fmt.Errorf("%w: max_results must be in [1, %d], got %d",
			ErrInvalidMaxResults, MaxAllowedResults, c.MaxResults)
	}
	if c.MaxHistory < 1 || c.MaxHistory > MaxAllowedHistory {
		return fmt.Errorf("%w: max_history must be in [1, %d], got %d",
			ErrInvalidMaxHistory, MaxAllowedHistory, c.MaxHistory)
	}

	if c.EmbedRateLimit <= 0 {
		return fmt.Errorf("%w: embed_rate_limit must be > 0, got %v",
			ErrInvalidEmbedRate, c.EmbedRateLimit)
	}

	return nil
}
