package stats

// Status compares current consistency against the habit target
type Status string

const (
	StatusOnTrack  Status = "ON_TRACK"
	StatusOffTrack Status = "OFF_TRACK"
)

// Grade is the letter band of a consistency percentage
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Recommendation is the three-way classification behind advice text
type Recommendation string

const (
	RecommendFoundation Recommendation = "foundation"
	RecommendMomentum   Recommendation = "momentum"
	RecommendMastery    Recommendation = "mastery"
)

// gradeBands are evaluated top-down; each lower bound is inclusive
var gradeBands = []struct {
	min   int
	grade Grade
}{
	{90, GradeA},
	{80, GradeB},
	{60, GradeC},
	{40, GradeD},
}

// GradeFor maps a consistency percentage to its letter grade
func GradeFor(consistency int) Grade {
	for _, band := range gradeBands {
		if consistency >= band.min {
			return band.grade
		}
	}
	return GradeF
}

// StatusFor is ON_TRACK when consistency meets or exceeds the target
func StatusFor(consistency, target int) Status {
	if consistency >= target {
		return StatusOnTrack
	}
	return StatusOffTrack
}

// RecommendationFor classifies consistency into <50, <80 and >=80 bands
func RecommendationFor(consistency int) Recommendation {
	switch {
	case consistency < 50:
		return RecommendFoundation
	case consistency < 80:
		return RecommendMomentum
	default:
		return RecommendMastery
	}
}

// Message is the default advice text for the band
func (r Recommendation) Message() string {
	switch r {
	case RecommendFoundation:
		return "Start smaller: shrink the habit until you can do it every day."
	case RecommendMomentum:
		return "Good momentum. Anchor the habit to an existing routine to close the gap."
	default:
		return "Excellent consistency. Consider raising the bar or adding a streak goal."
	}
}
