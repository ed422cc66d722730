package ai

import "errors"

var (
	// ErrEmptyResponse indicates the model returned no choices or blank content.
	ErrEmptyResponse = errors.New("model returned empty response")

	// ErrEmptyEmbedding indicates the embedding service returned no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")
)
