package services

import (
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSpecFilter  = errors.New("invalid specification filter")
	ErrInvalidPriceFilter = errors.New("invalid price filter")
	ErrInvalidIDList      = errors.New("invalid id list")
)

// ParseSpecFilter parses "color:red|blue,size:15". Pairs are ANDed,
// values of one pair are ORed.
func ParseSpecFilter(raw string) ([]models.SpecFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var filters []models.SpecFilter
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, values, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpecFilter, pair)
		}
		var vals []string
		for _, v := range strings.Split(values, "|") {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("%w: %q has no values", ErrInvalidSpecFilter, pair)
		}
		filters = append(filters, models.SpecFilter{Name: name, Values: vals})
	}
	return filters, nil
}

// ParsePriceRange parses "100..500", "100..", "..500" or an exact "100".
func ParsePriceRange(raw string) (*models.PriceRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	lo, hi, isRange := strings.Cut(raw, "..")
	if !isRange {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceFilter, raw)
		}
		return &models.PriceRange{Min: &v, Max: &v}, nil
	}
	r := &models.PriceRange{}
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := decimal.NewFromString(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceFilter, raw)
		}
		r.Min = &v
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := decimal.NewFromString(hi)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriceFilter, raw)
		}
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceFilter, raw)
	}
	if r.Min != nil && r.Max != nil && r.Min.GreaterThan(*r.Max) {
		return nil, fmt.Errorf("%w: lower bound above upper bound", ErrInvalidPriceFilter)
	}
	return r, nil
}

// ParseIDList parses a comma separated list of UUIDs keeping order and
// dropping duplicates.
func ParseIDList(raw string) ([]uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIDList, part)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// NormalizePage clamps limit/offset pagination parameters.
func NormalizePage(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
