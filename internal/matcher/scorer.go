package matcher

import (
	"math"
	"strings"
)

// Scoring thresholds and weights
const (
	MinArtistCoverage   = 0.35
	TitleOverride       = 0.9
	MinTitleSimilarity  = 0.55
	TitleWeight         = 0.60
	ArtistWeight        = 0.30
	DurationWeight      = 0.10
	MusicSourceBonus    = 0.05
	LowTrustSourceBonus = 0.02
	DefaultSourceBonus  = 0.03
)

// ExcludedHints mark derivative uploads rather than the canonical recording
var ExcludedHints = []string{
	"karaoke", "instrumental", "live", "remix", "cover", "nightcore",
	"8d", "slowed", "sped up", "reverb", "edit", "version",
}

// Source classifies where a candidate came from
type Source string

const (
	SourceMusic    Source = "music"
	SourceLowTrust Source = "lowtrust"
	SourceDefault  Source = "default"
)

// Bonus returns the fixed score increment for the source class
func (s Source) Bonus() float64 {
	switch s {
	case SourceMusic:
		return MusicSourceBonus
	case SourceLowTrust:
		return LowTrustSourceBonus
	default:
		return DefaultSourceBonus
	}
}

// Target describes the track being looked for
type Target struct {
	Title           string
	Artists         []string
	DurationSeconds float64
}

// Candidate is one search result to be judged against a Target
type Candidate struct {
	Title    string
	Uploader string
	Duration float64
	Source   Source
	Locator  string
}

// Result is the outcome of an accepted candidate
type Result struct {
	Candidate    Candidate
	Score        float64
	DurationDiff float64
	TitleSim     float64
	Coverage     float64
}

// Score judges a candidate against the target. It returns false when the
// candidate is rejected. Durations <= 0 count as unknown and are scored
// as the worst acceptable difference.
func Score(target Target, c Candidate, tolerance float64) (Result, bool) {
	if tolerance < 0 {
		tolerance = 0
	}
	title := strings.TrimSpace(c.Title)
	if strings.TrimSpace(c.Locator) == "" {
		return Result{}, false
	}
	if title == "" && c.Duration <= 0 {
		return Result{}, false
	}

	diff := tolerance
	if c.Duration > 0 && target.DurationSeconds > 0 {
		diff = math.Abs(c.Duration - target.DurationSeconds)
	}
	if diff > tolerance {
		return Result{}, false
	}

	targetTitle := Normalize(target.Title)
	candTitle := Normalize(c.Title)
	candText := strings.TrimSpace(candTitle + " " + Normalize(c.Uploader))

	if hasExcludedHint(normalizeKeepBrackets(c.Title + " " + c.Uploader)) {
		return Result{}, false
	}

	titleSim := Similarity(targetTitle, candTitle)
	coverage := artistCoverage(target.Artists, candText)

	if coverage < MinArtistCoverage && titleSim < TitleOverride {
		return Result{}, false
	}
	if titleSim < MinTitleSimilarity {
		return Result{}, false
	}

	durationScore := 1 - diff/math.Max(tolerance, 1)
	score := TitleWeight*titleSim + ArtistWeight*coverage + DurationWeight*durationScore + c.Source.Bonus()

	return Result{
		Candidate:    c,
		Score:        score,
		DurationDiff: diff,
		TitleSim:     titleSim,
		Coverage:     coverage,
	}, true
}

// hasExcludedHint reports whether any hint appears as a whole word or phrase
func hasExcludedHint(candidate string) bool {
	for _, hint := range ExcludedHints {
		if containsPhrase(candidate, hint) {
			return true
		}
	}
	return false
}

func artistCoverage(artists []string, text string) float64 {
	if len(artists) == 0 {
		return 0
	}
	found := 0
	for _, a := range artists {
		if containsPhrase(text, Normalize(a)) {
			found++
		}
	}
	return float64(found) / float64(len(artists))
}

// Best scores every candidate and returns the highest scoring one.
// Ties go to the smaller duration difference, then to the earlier candidate.
func Best(target Target, candidates []Candidate, tolerance float64) (Result, bool) {
	var best Result
	found := false
	for _, c := range candidates {
		r, ok := Score(target, c, tolerance)
		if !ok {
			continue
		}
		if !found || r.Score > best.Score || (r.Score == best.Score && r.DurationDiff < best.DurationDiff) {
			best = r
			found = true
		}
	}
	return best, found
}
