package interfaces

import (
	"context"
	"io"
)

// HTTPClient defines the interface for making HTTP requests. This
// abstraction allows for easy mocking in tests and switching between
// different HTTP client implementations.
type HTTPClient interface {
	// Get performs an HTTP GET request to the specified URL.
	Get(ctx context.Context, url string) (Response, error)

	// Post performs an HTTP POST request with a JSON body.
	Post(ctx context.Context, url string, body io.Reader) (Response, error)

	// Delete performs an HTTP DELETE request to the specified URL.
	Delete(ctx context.Context, url string) (Response, error)
}

// Response defines the interface for HTTP responses.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int

	// Body returns the response body as an io.ReadCloser.
	// The caller is responsible for closing the body when done.
	Body() io.ReadCloser

	// Header returns the value of the specified header, or an empty
	// string if the header is not present.
	Header(key string) string
}
