package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobmate/posting-service/internal/posting"
)

// Order values accepted by Filter.OrderBy.
const (
	OrderRelevance = "relevance"
	OrderNewest    = "newest"
	OrderSalary    = "salary"
	OrderDistance  = "distance"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Filter is a candidate search request.
type Filter struct {
	Query         string
	Track         posting.Category
	RemoteOnly    bool
	BenefitsAny   []string
	ShiftsAny     []string
	ContractTypes []posting.EmploymentType
	RadiusKm      float64
	Origin        *GeoPoint
	OrderBy       string
	Offset        int
	Limit         int
}

// ParseFilter reads a Filter from query parameters. List parameters accept
// repeated keys and comma-separated values.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Query:       strings.TrimSpace(q.Get("q")),
		BenefitsAny: list(q, "benefits_any"),
		ShiftsAny:   list(q, "shifts_any"),
		OrderBy:     q.Get("order_by"),
		Limit:       defaultLimit,
	}

	if t := q.Get("track"); t != "" {
		switch c := posting.Category(t); c {
		case posting.CategoryInternship, posting.CategoryApprenticeship, posting.CategoryProfessional:
			f.Track = c
		default:
			return Filter{}, fmt.Errorf("unknown track %q", t)
		}
	}
	for _, ct := range list(q, "contract_types") {
		f.ContractTypes = append(f.ContractTypes, posting.EmploymentType(ct))
	}

	if s := q.Get("remote_only"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Filter{}, fmt.Errorf("remote_only must be a boolean, got %q", s)
		}
		f.RemoteOnly = v
	}

	var err error
	if f.RadiusKm, err = floatParam(q, "radius_km"); err != nil {
		return Filter{}, err
	}
	if q.Has("lat") != q.Has("lon") {
		return Filter{}, fmt.Errorf("lat and lon must be given together")
	}
	if q.Has("lat") {
		lat, err := floatParam(q, "lat")
		if err != nil {
			return Filter{}, err
		}
		lon, err := floatParam(q, "lon")
		if err != nil {
			return Filter{}, err
		}
		f.Origin = &GeoPoint{Lat: lat, Lon: lon}
	}
	if f.Offset, err = intParam(q, "offset", 0); err != nil {
		return Filter{}, err
	}
	if f.Limit, err = intParam(q, "limit", defaultLimit); err != nil {
		return Filter{}, err
	}

	return f, f.Validate()
}

// Validate checks the combination of parameters.
func (f Filter) Validate() error {
	switch f.OrderBy {
	case "", OrderRelevance, OrderNewest, OrderSalary:
	case OrderDistance:
		if f.Origin == nil {
			return fmt.Errorf("order_by=distance needs lat and lon")
		}
	default:
		return fmt.Errorf("unknown order_by %q", f.OrderBy)
	}
	if f.RadiusKm < 0 {
		return fmt.Errorf("radius_km must not be negative")
	}
	if f.RadiusKm > 0 && f.Origin == nil {
		return fmt.Errorf("radius_km needs lat and lon")
	}
	if f.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if f.Limit < 1 || f.Limit > maxLimit {
		return fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func floatParam(q url.Values, key string) (float64, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, s)
	}
	return v, nil
}

func intParam(q url.Values, key string, fallback int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return v, nil
}
