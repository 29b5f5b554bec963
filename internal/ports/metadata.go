package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// MetadataSource is the remote show/episode catalogue.
// Errors wrap ErrTransport or ErrNotFound.
type MetadataSource interface {
	Search(ctx context.Context, query string) ([]domain.Candidate, error)
	// Episodes returns the full episode list of a show, in source order.
	Episodes(ctx context.Context, showID int64) ([]domain.Episode, error)
}
