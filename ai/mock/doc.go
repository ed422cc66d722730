// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider().(*mock.MockProvider)
//	provider.GetMockClassifier().Response = `{"category":"STUDY","mood":"REFLECTIVE","summary":"Read ch. 3"}`
//
//	// Custom behavior injection
//	provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("embedding service down")
//	}
//
//	// Check call counts
//	count := provider.GetMockScorer().CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockChatModel: Returns its Response field ("{}" unless set)
//   - MockProvider: Aggregates a mock embedder, classifier and scorer
package mock
