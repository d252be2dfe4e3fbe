package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

const (
	// MinPhoneLength is the shortest phone string accepted as a client key
	MinPhoneLength = 8

	// DetractorThreshold is the highest average rating of a detractor
	DetractorThreshold = 2.5

	// NoRating is shown when a client was never rated
	NoRating = "N/A"

	topVolumeSize  = 10
	topRatedSize   = 5
	detractorsSize = 5
)

// GenericNames are placeholder customer names that never win over a real one
var GenericNames = []string{
	"cliente",
	"client",
	"customer",
	"contato",
	"desconhecido",
	"unknown",
	"sem nome",
	"n/a",
	"null",
	"undefined",
}

// IsGenericName reports whether name is a placeholder: a listed token, at
// most two characters long, or made of no letters at all (e.g. a phone
// number typed into the name field).
func IsGenericName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if utf8.RuneCountInString(n) <= 2 {
		return true
	}
	for _, g := range GenericNames {
		if n == g {
			return true
		}
	}
	for _, r := range n {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// betterName reports whether candidate should replace current
func betterName(current, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || IsGenericName(candidate) {
		return false
	}
	if current == "" || IsGenericName(current) {
		return true
	}
	return utf8.RuneCountInString(candidate) > utf8.RuneCountInString(current)
}

type clientAcc struct {
	summary      types.ClientSummary
	motiveCounts map[string]int
	motiveOrder  []string
}

// BuildClientRollup groups records by phone, in first-appearance order.
// Phones shorter than MinPhoneLength are skipped.
func BuildClientRollup(records []types.AttendanceRecord) []types.ClientSummary {
	byPhone := make(map[string]*clientAcc)
	order := make([]string, 0)

	for _, r := range records {
		phone := strings.TrimSpace(r.Phone)
		if utf8.RuneCountInString(phone) < MinPhoneLength {
			continue
		}

		acc, ok := byPhone[phone]
		if !ok {
			acc = &clientAcc{
				summary:      types.ClientSummary{Phone: phone},
				motiveCounts: make(map[string]int),
			}
			byPhone[phone] = acc
			order = append(order, phone)
		}

		s := &acc.summary
		s.Contacts++

		name := strings.TrimSpace(r.CustomerName)
		if s.Name == "" {
			s.Name = name
		} else if betterName(s.Name, name) {
			s.Name = name
		}

		if r.Rating != nil && *r.Rating >= 1 && *r.Rating <= 5 {
			s.RatingSum += *r.Rating
			s.RatingCount++
		}

		if !r.CreatedAt.Before(s.LastContact) {
			s.LastContact = r.CreatedAt
			s.LastAgent = r.AgentID
		}

		if m := strings.TrimSpace(r.MotiveOrEmpty()); m != "" {
			if _, seen := acc.motiveCounts[m]; !seen {
				acc.motiveOrder = append(acc.motiveOrder, m)
			}
			acc.motiveCounts[m]++
		}
	}

	result := make([]types.ClientSummary, 0, len(order))
	for _, phone := range order {
		acc := byPhone[phone]
		s := acc.summary

		if s.RatingCount > 0 {
			avg := math.Round(float64(s.RatingSum)/float64(s.RatingCount)*10) / 10
			s.AverageRating = &avg
			s.RatingLabel = fmt.Sprintf("%.1f", avg)
		} else {
			s.RatingLabel = NoRating
		}

		s.DominantMotive = dominantMotive(acc.motiveOrder, acc.motiveCounts)
		result = append(result, s)
	}
	return result
}

// BuildClientMap builds the volume, rating and detractor rankings. The search
// term filters clients by name or phone before slicing.
func BuildClientMap(records []types.AttendanceRecord, search string) types.ClientMap {
	all := BuildClientRollup(records)

	term := strings.ToLower(strings.TrimSpace(search))
	clients := make([]types.ClientSummary, 0, len(all))
	for _, c := range all {
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(c.Phone, term) {
			continue
		}
		clients = append(clients, c)
	}

	volume := make([]types.ClientSummary, len(clients))
	copy(volume, clients)
	sort.SliceStable(volume, func(i, j int) bool {
		return volume[i].Contacts > volume[j].Contacts
	})

	rated := make([]types.ClientSummary, 0, len(clients))
	detractors := make([]types.ClientSummary, 0)
	for _, c := range clients {
		if c.RatingCount == 0 {
			continue
		}
		rated = append(rated, c)
		if rawAverage(c) <= DetractorThreshold {
			detractors = append(detractors, c)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return rawAverage(rated[i]) > rawAverage(rated[j])
	})
	sort.SliceStable(detractors, func(i, j int) bool {
		return rawAverage(detractors[i]) < rawAverage(detractors[j])
	})

	return types.ClientMap{
		TotalClients: len(clients),
		TopVolume:    head(volume, topVolumeSize),
		TopRated:     head(rated, topRatedSize),
		Detractors:   head(detractors, detractorsSize),
	}
}

func rawAverage(c types.ClientSummary) float64 {
	if c.RatingCount == 0 {
		return 0
	}
	return float64(c.RatingSum) / float64(c.RatingCount)
}

// dominantMotive returns the most frequent motive; ties go to the one seen
// first.
func dominantMotive(order []string, counts map[string]int) string {
	best, bestCount := NotInformed, 0
	for _, m := range order {
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}
	return best
}

func head(s []types.ClientSummary, n int) []types.ClientSummary {
	if len(s) > n {
		return s[:n]
	}
	return s
}
