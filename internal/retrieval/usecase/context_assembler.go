package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"crm-assistant-backend/internal/retrieval/domain"

	"golang.org/x/sync/errgroup"
)

const NoRelevantInformation = "No relevant information found."

func (u *retrievalUsecase) GetContext(ctx context.Context, ownerID, query string, limit int) *domain.RetrievalContext {
	rc := domain.NewRetrievalContext()
	types := u.Types()
	if limit <= 0 || len(types) == 0 || u.skipQuery(query) {
		rc.Summary = Summarize(nil)
		return rc
	}

	perType := int(math.Ceil(float64(limit) / float64(len(types))))
	qvec := u.embedQuery(ctx, query)

	lists := make([][]domain.QueryResult, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range types {
		g.Go(func() error {
			results, err := u.rank(gctx, u.stores[kind], ownerID, query, qvec, perType)
			if err != nil {
				log.Printf("[Retrieval] %s search failed for owner %s: %v", kind, ownerID, err)
				return nil
			}
			lists[i] = results
			return nil
		})
	}
	_ = g.Wait()

	order := make(map[domain.EntityType]int, len(types))
	var all []domain.QueryResult
	for i, kind := range types {
		order[kind] = i
		all = append(all, lists[i]...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Relevance == b.Relevance && a.SourceTimestamp.Equal(b.SourceTimestamp) && a.Type != b.Type {
			return order[a.Type] < order[b.Type]
		}
		return before(a.Relevance, b.Relevance, a.SourceTimestamp, b.SourceTimestamp, a.ID, b.ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	rc.Results = all
	for _, r := range all {
		rc.ResultsByType[r.Type] = append(rc.ResultsByType[r.Type], r)
	}
	rc.Summary = Summarize(all)
	return rc
}

// Summarize describes how many results of each type were found, e.g.
// "2 relevant emails, 1 relevant note."
func Summarize(results []domain.QueryResult) string {
	counts := make(map[domain.EntityType]int)
	for _, r := range results {
		counts[r.Type]++
	}

	var parts []string
	for _, kind := range domain.EntityTypes {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d relevant %s", n, kind.Noun(n)))
		}
	}
	if len(parts) == 0 {
		return NoRelevantInformation
	}
	return strings.Join(parts, ", ") + "."
}

// FormatForPrompt renders a context as plain text for a model prompt.
func FormatForPrompt(rc *domain.RetrievalContext) string {
	var b strings.Builder
	b.WriteString(rc.Summary)
	for _, r := range rc.Results {
		fmt.Fprintf(&b, "\n[%s] %s (%d%% relevant)", r.Type, r.DisplayContent, int(math.Round(r.Relevance*100)))
	}
	return b.String()
}
