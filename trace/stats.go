package trace

import (
	"sort"
	"time"
)

// Stats summarizes one journal.
type Stats struct {
	Records    int
	Bytes      int
	ByCategory map[string]int
	ByLabel    map[string]int
	FromKernel int
	FromHost   int
	First      time.Time
	Last       time.Time
}

// Summarize folds records into summary statistics.
func Summarize(recs []Record) Stats {
	s := Stats{
		ByCategory: make(map[string]int),
		ByLabel:    make(map[string]int),
	}
	for i, rec := range recs {
		s.Records++
		s.Bytes += len(rec.Raw)
		s.ByCategory[rec.Category]++
		s.ByLabel[rec.Label]++
		switch rec.Direction {
		case DirKernel:
			s.FromKernel++
		case DirHost:
			s.FromHost++
		}
		if i == 0 || rec.Ts.Before(s.First) {
			s.First = rec.Ts
		}
		if i == 0 || rec.Ts.After(s.Last) {
			s.Last = rec.Ts
		}
	}
	return s
}

// Categories returns the seen categories in descending count order, ties
// broken by name.
func (s Stats) Categories() []string {
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByCategory[names[i]] != s.ByCategory[names[j]] {
			return s.ByCategory[names[i]] > s.ByCategory[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
