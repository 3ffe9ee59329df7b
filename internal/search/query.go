package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a history search.
type Params struct {
	UserID string
	Query  string
	Tone   string // optional exact filter
	Limit  int
}

// Hit is one matching history record.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Result holds search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search runs a full-text query scoped to one user.
func (s *HistoryIndex) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, 0, false)
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(fieldOriginal)
	req.Highlight.AddField(fieldRewritten)

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	owner := bleve.NewTermQuery(params.UserID)
	owner.SetField(fieldUserID)
	queries := []query.Query{owner}

	if q := strings.TrimSpace(params.Query); q != "" {
		original := bleve.NewMatchQuery(q)
		original.SetField(fieldOriginal)
		original.SetBoost(2)

		rewritten := bleve.NewMatchQuery(q)
		rewritten.SetField(fieldRewritten)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField(fieldOriginal)
		fuzzy.SetFuzziness(1)

		queries = append(queries, bleve.NewDisjunctionQuery(original, rewritten, fuzzy))
	}

	if params.Tone != "" {
		tone := bleve.NewTermQuery(params.Tone)
		tone.SetField(fieldTone)
		queries = append(queries, tone)
	}

	return bleve.NewConjunctionQuery(queries...)
}
