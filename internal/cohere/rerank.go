package cohere

import (
	"context"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank calls /v1/rerank and returns results in the service's order.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.RerankResult, error) {
	var out rerankResponse
	err := c.rest.Post(ctx, "/v1/rerank", rerankRequest{
		Model:     c.cfg.RerankModel,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}, &out)
	if err != nil {
		return nil, err
	}
	results := make([]domain.RerankResult, len(out.Results))
	for i, r := range out.Results {
		results[i] = domain.RerankResult{Index: r.Index, Score: r.RelevanceScore}
	}
	return results, nil
}
