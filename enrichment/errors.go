package enrichment

import "errors"

var (
	// ErrMessageRepositoryRequired is returned when a message repository is not provided.
	ErrMessageRepositoryRequired = errors.New("message repository required")

	// ErrMediaScoreRepositoryRequired is returned when a media score repository is not provided.
	ErrMediaScoreRepositoryRequired = errors.New("media score repository required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidRequest is returned when an enrichment request is missing fields.
	ErrInvalidRequest = errors.New("invalid enrichment request")

	// ErrClassificationFailed is returned when the classifier call fails or returns no content.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrUnparseableResponse is returned when model output is not a JSON object.
	ErrUnparseableResponse = errors.New("unparseable model response")

	// ErrIndexingFailed is returned when a study note could not be embedded or stored.
	ErrIndexingFailed = errors.New("semantic indexing failed")

	// ErrUnroutableCategory is returned when the router is given a category outside the enumeration.
	ErrUnroutableCategory = errors.New("unroutable category")
)
