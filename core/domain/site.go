// ABOUTME: Site and ingestion domain models for the backend index
// ABOUTME: Mirrors the backend's /ingest and /sites payloads

package domain

// Site is one indexed site as reported by the backend.
type Site struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

// IngestResult is the backend's response to an ingestion request.
type IngestResult struct {
	Message      string `json:"message"`
	ChunksCount  int    `json:"chunks_count"`
	PagesIndexed int    `json:"pages_indexed"`

	// LowQuality is set when the source page extracted below the
	// quality threshold, so the caller can warn that indexing may be
	// thin.
	LowQuality bool `json:"-"`
}

// CrawlOptions tune a crawling ingest. Zero values mean single-page.
type CrawlOptions struct {
	Crawl    bool `json:"crawl"`
	MaxPages int  `json:"max_pages"`
	MaxDepth int  `json:"max_depth"`
}

// Default crawl limits, matching the backend's own defaults.
const (
	DefaultMaxPages = 50
	DefaultMaxDepth = 3
)
