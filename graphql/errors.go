package graphql

import (
	"strings"
)

// Error is a single GraphQL error returned by the backend.
type Error struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// Errors is the "errors" array of a GraphQL response.
type Errors []Error

// Error implements the error interface.
func (es Errors) Error() string {
	messages := make([]string, len(es))
	for i, e := range es {
		messages[i] = e.Message
	}
	return strings.Join(messages, "; ")
}
