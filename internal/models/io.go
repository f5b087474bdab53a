// Package models provides the core data structures for handling relay requests and responses.
package models

import "net/url"

// Request represents an inbound relay request: the matched route path, its query parameters and headers.
type Request struct {
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}
