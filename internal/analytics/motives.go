package analytics

import (
	"sort"
	"strings"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// NotInformed labels records without a motive
const NotInformed = "Not informed"

// MotivePalette is cycled by rank when coloring motives
var MotivePalette = []string{
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
}

// MotiveLabel returns the display label for a record's motive
func MotiveLabel(r types.AttendanceRecord) string {
	m := strings.TrimSpace(r.MotiveOrEmpty())
	if m == "" {
		return NotInformed
	}
	return m
}

// BuildMotiveFrequency counts records per motive, most frequent first.
// Ties keep first-appearance order.
func BuildMotiveFrequency(records []types.AttendanceRecord) []types.MotiveCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, r := range records {
		label := MotiveLabel(r)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	result := make([]types.MotiveCount, 0, len(order))
	for _, name := range order {
		result = append(result, types.MotiveCount{Name: name, Value: counts[name]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Value > result[j].Value
	})
	for i := range result {
		result[i].Color = MotivePalette[i%len(MotivePalette)]
	}

	return result
}

// TopMotives returns at most n entries of the motive distribution
func TopMotives(records []types.AttendanceRecord, n int) []types.MotiveCount {
	all := BuildMotiveFrequency(records)
	if len(all) > n {
		return all[:n]
	}
	return all
}
