package matcher

import (
	"math"
	"testing"
)

var shapeOfYou = Target{Title: "Shape of You", Artists: []string{"Ed Sheeran"}, DurationSeconds: 234}

func TestScore_AcceptsOfficialUpload(t *testing.T) {
	c := Candidate{
		Title:    "Ed Sheeran - Shape of You (Official Video)",
		Uploader: "Ed Sheeran",
		Duration: 235,
		Source:   SourceDefault,
		Locator:  "https://www.youtube.com/watch?v=JGwWNGJdvx8",
	}
	r, ok := Score(shapeOfYou, c, 2)
	if !ok {
		t.Fatal("expected candidate to be accepted")
	}
	if r.DurationDiff != 1 {
		t.Errorf("expected durationDiff 1, got %v", r.DurationDiff)
	}
	if r.Coverage != 1 {
		t.Errorf("expected full artist coverage, got %v", r.Coverage)
	}
	if r.Score <= 0 || r.Score > 1.05 {
		t.Errorf("score out of range: %v", r.Score)
	}
}

func TestScore_RejectsCover(t *testing.T) {
	c := Candidate{Title: "Shape of You - Piano Cover", Duration: 234, Locator: "https://youtu.be/x"}
	if _, ok := Score(shapeOfYou, c, 2); ok {
		t.Error("expected cover to be rejected")
	}
}

func TestScore_RejectsBracketedHint(t *testing.T) {
	target := Target{Title: "Blinding Lights", Artists: []string{"The Weeknd"}, DurationSeconds: 200}
	c := Candidate{
		Title:    "Blinding Lights (Karaoke Version)",
		Uploader: "The Weeknd",
		Duration: 200,
		Locator:  "https://youtu.be/y",
	}
	if _, ok := Score(target, c, 5); ok {
		t.Error("expected karaoke upload to be rejected")
	}
}

func TestScore_ExcludedHintsAsWholeWordsOnly(t *testing.T) {
	target := Target{Title: "Oliver", Artists: []string{"Someone"}, DurationSeconds: 180}
	// "live" inside "oliver" is not a whole word
	c := Candidate{Title: "Oliver", Uploader: "Someone", Duration: 180, Locator: "u"}
	if _, ok := Score(target, c, 2); !ok {
		t.Error("expected substring of an excluded word to be accepted")
	}

	for _, hint := range ExcludedHints {
		c := Candidate{Title: "Oliver " + hint, Uploader: "Someone", Duration: 180, Locator: "u"}
		if _, ok := Score(target, c, 2); ok {
			t.Errorf("expected hint %q to reject the candidate", hint)
		}
	}
}

func TestScore_HintRejectedEvenWhenTargetTitleHasIt(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		cand   Candidate
	}{
		{
			"title word",
			Target{Title: "Cover Me", Artists: []string{"Bruce Springsteen"}, DurationSeconds: 207},
			Candidate{Title: "Cover Me", Uploader: "Bruce Springsteen", Duration: 207, Locator: "u"},
		},
		{
			"bracketed remix",
			Target{Title: "Levels (Skrillex Remix)", Artists: []string{"Avicii"}, DurationSeconds: 300},
			Candidate{Title: "Avicii - Levels (Skrillex Remix)", Uploader: "Avicii", Duration: 301, Locator: "u"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, ok := Score(tt.target, tt.cand, 2); ok {
				t.Errorf("expected rejection, got score %.3f", r.Score)
			}
		})
	}
}

func TestScore_RejectsWhenDurationExceedsTolerance(t *testing.T) {
	for tol := 0.0; tol <= 10; tol++ {
		for _, delta := range []float64{0.5, 1, 30} {
			c := Candidate{
				Title:    "Shape of You",
				Uploader: "Ed Sheeran",
				Duration: shapeOfYou.DurationSeconds + tol + delta,
				Locator:  "u",
			}
			if _, ok := Score(shapeOfYou, c, tol); ok {
				t.Errorf("tolerance %v delta %v: expected rejection", tol, delta)
			}
		}
	}
}

func TestScore_ZeroToleranceExactMatch(t *testing.T) {
	c := Candidate{Title: "Shape of You", Uploader: "Ed Sheeran", Duration: 234, Locator: "u"}
	r, ok := Score(shapeOfYou, c, 0)
	if !ok {
		t.Fatal("expected exact duration to be accepted with zero tolerance")
	}
	if r.DurationDiff != 0 {
		t.Errorf("expected zero diff, got %v", r.DurationDiff)
	}
}

func TestScore_MissingLocatorOrData(t *testing.T) {
	if _, ok := Score(shapeOfYou, Candidate{Title: "Shape of You", Duration: 234}, 2); ok {
		t.Error("expected candidate without locator to be rejected")
	}
	if _, ok := Score(shapeOfYou, Candidate{Locator: "u"}, 2); ok {
		t.Error("expected candidate without title and duration to be rejected")
	}
}

func TestScore_TitleOverrideWithoutArtist(t *testing.T) {
	c := Candidate{Title: "Shape of You", Uploader: "Random Channel", Duration: 234, Locator: "u"}
	r, ok := Score(shapeOfYou, c, 2)
	if !ok {
		t.Fatal("expected near-identical title to override missing artist")
	}
	if r.Coverage != 0 {
		t.Errorf("expected zero coverage, got %v", r.Coverage)
	}

	weak := Candidate{Title: "Shape of You Lyrics", Uploader: "Random Channel", Duration: 234, Locator: "u"}
	if _, ok := Score(shapeOfYou, weak, 2); ok {
		t.Error("expected low coverage and non-identical title to be rejected")
	}
}

func TestScore_RejectsLowTitleSimilarity(t *testing.T) {
	c := Candidate{Title: "Ed Sheeran - Perfect", Uploader: "Ed Sheeran", Duration: 234, Locator: "u"}
	if _, ok := Score(shapeOfYou, c, 2); ok {
		t.Error("expected different song by the same artist to be rejected")
	}
}

func TestScore_Weights(t *testing.T) {
	c := Candidate{Title: "Shape of You", Uploader: "Ed Sheeran", Duration: 234, Source: SourceMusic, Locator: "u"}
	r, ok := Score(shapeOfYou, c, 4)
	if !ok {
		t.Fatal("expected acceptance")
	}
	want := TitleWeight*1 + ArtistWeight*1 + DurationWeight*1 + MusicSourceBonus
	if math.Abs(r.Score-want) > 1e-9 {
		t.Errorf("expected score %v, got %v", want, r.Score)
	}
}

func TestScore_UnknownDurationIsPessimistic(t *testing.T) {
	c := Candidate{Title: "Shape of You", Uploader: "Ed Sheeran", Locator: "u"}
	r, ok := Score(shapeOfYou, c, 5)
	if !ok {
		t.Fatal("expected candidate with unknown duration to be accepted")
	}
	if r.DurationDiff != 5 {
		t.Errorf("expected diff equal to tolerance, got %v", r.DurationDiff)
	}
}

func TestSourceBonus(t *testing.T) {
	if SourceMusic.Bonus() <= SourceDefault.Bonus() || SourceDefault.Bonus() <= SourceLowTrust.Bonus() {
		t.Error("expected music > default > low trust")
	}
	if Source("").Bonus() != DefaultSourceBonus {
		t.Error("expected unknown source to get the default bonus")
	}
}

func TestBest(t *testing.T) {
	candidates := []Candidate{
		{Title: "Shape of You - Piano Cover", Duration: 234, Locator: "cover"},
		{Title: "Ed Sheeran - Shape of You", Uploader: "Ed Sheeran", Duration: 236, Locator: "far"},
		{Title: "Ed Sheeran - Shape of You", Uploader: "Ed Sheeran", Duration: 234, Locator: "close"},
		{Title: "Shape of You", Uploader: "Ed Sheeran - Topic", Duration: 234, Source: SourceMusic, Locator: "music"},
	}
	r, ok := Best(shapeOfYou, candidates, 3)
	if !ok {
		t.Fatal("expected a match")
	}
	if r.Candidate.Locator != "music" {
		t.Errorf("expected music upload to win, got %s", r.Candidate.Locator)
	}
}

func TestBest_TieBrokenByDurationDiff(t *testing.T) {
	// same text, same absolute diff on either side of the target
	target := Target{Title: "Song", Artists: []string{"Band"}, DurationSeconds: 100}
	candidates := []Candidate{
		{Title: "Song", Uploader: "Band", Duration: 101, Locator: "first"},
		{Title: "Song", Uploader: "Band", Duration: 99, Locator: "second"},
	}
	r, ok := Best(target, candidates, 2)
	if !ok || r.Candidate.Locator != "first" {
		t.Errorf("expected first of equal candidates, got %+v", r)
	}

	candidates = append(candidates, Candidate{Title: "Song", Uploader: "Band", Duration: 100, Locator: "exact"})
	r, _ = Best(target, candidates, 2)
	if r.Candidate.Locator != "exact" {
		t.Errorf("expected exact duration to win, got %s", r.Candidate.Locator)
	}
}

func TestBest_NoCandidates(t *testing.T) {
	if _, ok := Best(shapeOfYou, nil, 2); ok {
		t.Error("expected no match for empty input")
	}
}
