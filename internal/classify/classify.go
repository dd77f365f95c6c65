// Package classify assigns animals to the sex-specific age brackets used by the
// census bulletin.
package classify

import (
	"math"
	"time"

	"herd-census/internal/domain"
)

type bound struct {
	upTo    float64
	bracket domain.AgeBracket
}

// Upper bounds are inclusive; the last entry of each table is open-ended.
var (
	femaleBounds = []bound{
		{7, domain.BracketFemale0To7},
		{12, domain.BracketFemale7To12},
		{18, domain.BracketFemale12To18},
		{24, domain.BracketFemale18To24},
		{math.Inf(1), domain.BracketFemaleOver24},
	}
	maleBounds = []bound{
		{7, domain.BracketMale0To7},
		{15, domain.BracketMale7To15},
		{18, domain.BracketMale15To18},
		{22, domain.BracketMale18To22},
		{math.Inf(1), domain.BracketMaleOver22},
	}
)

// Classify returns the bracket of an age in months. It returns false for
// domain.SexUnknown and for negative or NaN ages.
func Classify(ageMonths float64, sex domain.Sex) (domain.AgeBracket, bool) {
	if math.IsNaN(ageMonths) || ageMonths < 0 {
		return "", false
	}
	var table []bound
	switch sex {
	case domain.SexFemale:
		table = femaleBounds
	case domain.SexMale:
		table = maleBounds
	default:
		return "", false
	}
	for _, b := range table {
		if ageMonths <= b.upTo {
			return b.bracket, true
		}
	}
	return "", false
}

// MonthsBetween returns the age in months at ref of an animal born at birth:
// whole calendar months plus the elapsed fraction of the running month. It is
// negative when birth is after ref.
func MonthsBetween(birth, ref time.Time) float64 {
	birth = truncateDay(birth)
	ref = truncateDay(ref)
	if ref.Before(birth) {
		return ref.Sub(birth).Hours() / 24 / 30.4375
	}

	whole := (ref.Year()-birth.Year())*12 + int(ref.Month()) - int(birth.Month())
	anchor := birth.AddDate(0, whole, 0)
	for anchor.After(ref) {
		whole--
		anchor = birth.AddDate(0, whole, 0)
	}
	next := birth.AddDate(0, whole+1, 0)
	frac := ref.Sub(anchor).Hours() / next.Sub(anchor).Hours()
	return float64(whole) + frac
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
