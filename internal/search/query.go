package search

import "fmt"

// BuildQuery translates f into an Elasticsearch search body. Every filter
// narrows the result; list filters match when any value matches.
func BuildQuery(f Filter) map[string]any {
	var filters []any
	if f.Track != "" {
		filters = append(filters, term("category", string(f.Track)))
	}
	if f.RemoteOnly {
		filters = append(filters, term("workMode", "remote"))
	}
	if len(f.BenefitsAny) > 0 {
		filters = append(filters, terms("benefitTags", f.BenefitsAny))
	}
	if len(f.ShiftsAny) > 0 {
		filters = append(filters, terms("shifts", f.ShiftsAny))
	}
	if len(f.ContractTypes) > 0 {
		vals := make([]string, 0, len(f.ContractTypes))
		for _, c := range f.ContractTypes {
			vals = append(vals, string(c))
		}
		filters = append(filters, terms("employmentType", vals))
	}
	if f.RadiusKm > 0 && f.Origin != nil {
		filters = append(filters, map[string]any{
			"geo_distance": map[string]any{
				"distance": fmt.Sprintf("%gkm", f.RadiusKm),
				"location": *f.Origin,
			},
		})
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if f.Query != "" {
		boolQuery["must"] = []any{map[string]any{
			"multi_match": map[string]any{
				"query":  f.Query,
				"fields": []string{"title^3", "skills^2", "description"},
			},
		}}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	body := map[string]any{
		"from":             f.Offset,
		"size":             limit,
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
		"sort":             buildSort(f),
	}
	return body
}

func buildSort(f Filter) []any {
	newest := map[string]any{"publishedAt": map[string]any{"order": "desc", "unmapped_type": "date"}}
	switch f.OrderBy {
	case OrderNewest:
		return []any{newest}
	case OrderSalary:
		return []any{
			map[string]any{"salaryMax": map[string]any{"order": "desc", "missing": "_last"}},
			newest,
		}
	case OrderDistance:
		return []any{map[string]any{
			"_geo_distance": map[string]any{
				"location": *f.Origin,
				"order":    "asc",
				"unit":     "km",
			},
		}}
	case OrderRelevance:
		return []any{"_score", newest}
	}
	// Default: featured postings first, then by relevance and recency.
	return []any{
		map[string]any{"featured": map[string]any{"order": "desc"}},
		"_score",
		newest,
	}
}

func term(field, value string) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func terms(field string, values []string) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}
