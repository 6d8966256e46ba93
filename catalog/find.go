package catalog

import (
	"context"
	"fmt"

	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/title"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// FindClosest returns the catalog entry whose name is nearest to the given
// free-text title, by Levenshtein distance over normalized names.
func (c *Client) FindClosest(ctx context.Context, name string) (*Media, error) {
	page, err := c.Search(ctx, name, 1)
	if err != nil {
		return nil, err
	}

	if len(page.Results) == 0 {
		return nil, fmt.Errorf("no results found in the catalog for %q", name)
	}

	normalized := title.Normalize(name)
	closest := lo.MinBy(page.Results, func(a, b *Media) bool {
		return levenshtein.Distance(
			normalized,
			title.Normalize(a.Name()),
		) < levenshtein.Distance(
			normalized,
			title.Normalize(b.Name()),
		)
	})

	log.Info("Found closest match: " + closest.Name())
	return closest, nil
}
