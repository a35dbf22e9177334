package analysis

import (
	"math"
	"sort"
	"strconv"
)

// previewRows bounds the number of sample records included in a Result.
const previewRows = 5

// topValueCount bounds the number of most-frequent values reported per
// categorical column.
const topValueCount = 5

// Result is the analysis summary published for a successfully processed task.
type Result struct {
	RowCount    int              `json:"row_count"`
	ColumnCount int              `json:"column_count"`
	Columns     []string         `json:"columns"`
	Summary     Summary          `json:"summary"`
	Preview     []map[string]any `json:"preview"`
}

// Summary holds the per-column profiles, split by column type. Columns with
// no non-missing values appear in neither map.
type Summary struct {
	Numeric     map[string]NumericProfile     `json:"numeric,omitempty"`
	Categorical map[string]CategoricalProfile `json:"categorical,omitempty"`
}

// NumericProfile carries population statistics over the non-missing values of
// a column whose values are all numeric.
type NumericProfile struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CategoricalProfile describes a non-numeric column.
type CategoricalProfile struct {
	UniqueCount int          `json:"unique_count"`
	TopValues   []ValueCount `json:"top_values"`
}

// ValueCount pairs a categorical value with its occurrence count. TopValues
// is ordered by descending count; ties keep first-encountered order.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func summarize(t *table) *Result {
	result := &Result{
		RowCount:    len(t.rows),
		ColumnCount: len(t.columns),
		Columns:     append([]string{}, t.columns...),
	}

	numericColumns := make(map[int]bool, len(t.columns))
	for i, col := range t.columns {
		values := make([]string, 0, len(t.rows))
		for _, row := range t.rows {
			if !row[i].missing {
				values = append(values, row[i].text)
			}
		}
		if len(values) == 0 {
			continue
		}

		if floats, ok := asNumeric(values); ok {
			if result.Summary.Numeric == nil {
				result.Summary.Numeric = map[string]NumericProfile{}
			}
			result.Summary.Numeric[col] = numericProfile(floats)
			numericColumns[i] = true
			continue
		}

		if result.Summary.Categorical == nil {
			result.Summary.Categorical = map[string]CategoricalProfile{}
		}
		result.Summary.Categorical[col] = categoricalProfile(values)
	}

	result.Preview = preview(t, numericColumns)
	return result
}

func asNumeric(values []string) ([]float64, bool) {
	floats := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		floats[i] = f
	}
	return floats, true
}

func numericProfile(values []float64) NumericProfile {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSquares float64
	for _, v := range values {
		d := v - mean
		sumSquares += d * d
	}

	return NumericProfile{
		Mean:   mean,
		Median: median(sorted),
		StdDev: math.Sqrt(sumSquares / float64(len(values))),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func categoricalProfile(values []string) CategoricalProfile {
	counts := map[string]int{}
	order := make([]string, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	// Stable sort keeps first-encountered order for equal counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topValueCount {
		order = order[:topValueCount]
	}

	top := make([]ValueCount, len(order))
	for i, v := range order {
		top[i] = ValueCount{Value: v, Count: counts[v]}
	}

	return CategoricalProfile{
		UniqueCount: len(counts),
		TopValues:   top,
	}
}

func preview(t *table, numericColumns map[int]bool) []map[string]any {
	limit := len(t.rows)
	if limit > previewRows {
		limit = previewRows
	}

	rows := make([]map[string]any, limit)
	for r := 0; r < limit; r++ {
		record := make(map[string]any, len(t.columns))
		for i, col := range t.columns {
			c := t.rows[r][i]
			switch {
			case c.missing:
				record[col] = nil
			case c.raw != nil:
				record[col] = c.raw
			case numericColumns[i]:
				f, _ := strconv.ParseFloat(c.text, 64)
				record[col] = f
			default:
				record[col] = c.text
			}
		}
		rows[r] = record
	}
	return rows
}
