package costquery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/cost-sentinel/pkg/models/domain"
)

// Normalize flattens provider-native cost rows into CostRows. Each raw row is
// positional: element 0 is the date, the last element is the cost. Shape is
// inferred from arity: 3 elements means a single grouping dimension, 4 or
// more means region then service (callers must request groupings in that
// order). Rows shorter than 3 or without a date are dropped silently; rows
// whose cost fails numeric conversion are dropped with a warning. Normalize
// never fails, it degrades to an empty result.
func Normalize(ctx context.Context, raw [][]any) []domain.CostRow {
	logger := zerolog.Ctx(ctx)

	rows := make([]domain.CostRow, 0, len(raw))
	for _, r := range raw {
		if len(r) < 3 {
			continue
		}

		date := dateString(r[0])
		if date == "" {
			continue
		}

		cost, ok := costValue(r[len(r)-1])
		if !ok {
			logger.Warn().Str("date", date).Msgf("dropping cost row with unparsable amount %v", r[len(r)-1])
			continue
		}
		if cost < 0 {
			logger.Warn().Str("date", date).Float64("cost", cost).Msg("dropping cost row with negative amount")
			continue
		}

		if len(r) == 3 {
			rows = append(rows, domain.CostRow{
				Date:      date,
				Dimension: stringValue(r[1]),
				Cost:      cost,
			})
		} else {
			rows = append(rows, domain.CostRow{
				Date:    date,
				Region:  stringValue(r[1]),
				Service: stringValue(r[2]),
				Cost:    cost,
			})
		}
	}

	return rows
}

// dateString normalizes the date element to an ISO date. Cost Management
// serializes usage dates as numeric yyyymmdd; string dates pass through.
func dateString(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case float64:
		return isoFromCompact(strconv.FormatInt(int64(d), 10))
	case int64:
		return isoFromCompact(strconv.FormatInt(d, 10))
	case json.Number:
		return isoFromCompact(d.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isoFromCompact(s string) string {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func costValue(v any) (float64, bool) {
	switch c := v.(type) {
	case nil:
		return 0.0, true
	case float64:
		return c, true
	case int64:
		return float64(c), true
	case json.Number:
		f, err := c.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(c, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	if v == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%v", v)
}
