package enrichment

import (
	"context"
	"fmt"

	"github.com/poiesic/secondbrain/core"
)

// Route names the secondary enrichment a category receives.
type Route int

const (
	// RouteNone means the classification write is the only enrichment.
	RouteNone Route = iota
	// RouteIndex sends the message to the semantic indexer.
	RouteIndex
	// RouteScore sends the message to the opinion scorer.
	RouteScore
)

func (r Route) String() string {
	switch r {
	case RouteIndex:
		return "index"
	case RouteScore:
		return "score"
	default:
		return "none"
	}
}

// RouteFor maps a normalized category to its route.
// Every category in core.Categories has an explicit case.
func RouteFor(category core.Category) (Route, error) {
	switch category {
	case core.CategoryStudy:
		return RouteIndex, nil
	case core.CategoryMedia:
		return RouteScore, nil
	case core.CategoryIdea, core.CategoryRant, core.CategoryTask,
		core.CategoryLog, core.CategoryQuote, core.CategoryOther:
		return RouteNone, nil
	default:
		return RouteNone, fmt.Errorf("%w: %q", ErrUnroutableCategory, category)
	}
}

// Indexer stores a searchable representation of a message.
type Indexer interface {
	Index(ctx context.Context, userID, messageID, content string) error
}

// Scorer attaches an opinion score to a message.
type Scorer interface {
	Score(ctx context.Context, messageID, content string) error
}

// Router runs the secondary enrichment selected by RouteFor.
type Router struct {
	indexer Indexer
	scorer  Scorer
}

// NewRouter creates a Router dispatching to indexer and scorer.
func NewRouter(indexer Indexer, scorer Scorer) *Router {
	return &Router{indexer: indexer, scorer: scorer}
}

// Dispatch routes req by category and runs the selected enricher.
// It returns the route taken.
func (r *Router) Dispatch(ctx context.Context, req Request, category core.Category) (Route, error) {
	route, err := RouteFor(category)
	if err != nil {
		return route, err
	}

	switch route {
	case RouteIndex:
		err = r.indexer.Index(ctx, req.UserID, req.MessageID, req.Content)
	case RouteScore:
		err = r.scorer.Score(ctx, req.MessageID, req.Content)
	case RouteNone:
	}
	return route, err
}
