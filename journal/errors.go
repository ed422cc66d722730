package journal

import "errors"

var (
	// ErrMessageRepositoryRequired is returned when a message repository is not provided.
	ErrMessageRepositoryRequired = errors.New("message repository required")

	// ErrMediaScoreRepositoryRequired is returned when a media score repository is not provided.
	ErrMediaScoreRepositoryRequired = errors.New("media score repository required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrPublisherRequired is returned when an event publisher is not provided.
	ErrPublisherRequired = errors.New("event publisher required")

	// ErrPublishFailed is returned when a message was stored but its
	// message/created event could not be published.
	ErrPublishFailed = errors.New("publish message event")
)
