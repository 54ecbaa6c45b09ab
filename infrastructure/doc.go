// Package infrastructure provides concrete implementations of the
// interfaces defined in the core package. These implementations handle
// external concerns such as document parsing, caching, HTTP
// communication, screen capture, and logging.
//
// The infrastructure package is organized by technical concern:
//
// - dom/html: interfaces.Document over a parsed HTML tree
// - cache/memory: In-memory cache backed by go-cache
// - cache/redis: Redis cache with RedisJSON structured storage
// - http/standard: Standard library HTTP client with retry logic
// - logger/logrus: Structured logger backed by logrus
// - screen/static: File-backed stand-in for the capture primitive
//
// Infrastructure components are designed to be pluggable and
// configurable, and each ships with its own tests.
package infrastructure
