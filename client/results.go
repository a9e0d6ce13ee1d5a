package client

import (
	"math"
	"sort"
)

type OptionResult struct {
	Index   int
	Text    string
	Votes   int
	Percent int
}

// Results returns counts and percentages in option order. Visible to every
// participant.
func (s *Session) Results() ([]OptionResult, error) {
	snapshot := s.Snapshot()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	results := make([]OptionResult, 0, len(snapshot.Options))
	for i, o := range snapshot.Options {
		percent := 0
		if snapshot.TotalVotes > 0 {
			percent = int(math.Round(float64(o.Votes) / float64(snapshot.TotalVotes) * 100))
		}
		results = append(results, OptionResult{
			Index:   i,
			Text:    o.Text,
			Votes:   o.Votes,
			Percent: percent,
		})
	}
	return results, nil
}

// RankedResults returns the options sorted by vote count, highest first.
// Part of the owner-only results view, so it is gated on the ownership
// capability.
func (s *Session) RankedResults() ([]OptionResult, error) {
	if !s.IsOwner() {
		return nil, ErrNotOwner
	}

	results, err := s.Results()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	return results, nil
}
