package usecase

import (
	"sort"
	"strings"

	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/adapter"
)

// Static institution tiers used to order the recommendation section.
// Tier 1 is the most selective; unknown institutions fall into tier 3.
var institutionTiers = map[string]int{
	"tsinghua university":    1,
	"peking university":      1,
	"fudan university":       1,
	"zhejiang university":    1,
	"shanghai jiao tong":     1,
	"nanjing university":     2,
	"wuhan university":       2,
	"sun yat-sen university": 2,
	"sichuan university":     2,
	"tongji university":      2,
	"xiamen university":      2,
}

const defaultTier = 3

func tierOf(name string) int {
	key := strings.ToLower(strings.TrimSpace(name))
	for prefix, tier := range institutionTiers {
		if strings.HasPrefix(key, prefix) {
			return tier
		}
	}
	return defaultTier
}

// rankInstitutions orders the user's target institutions by tier, breaking
// ties alphabetically, and attaches a rationale derived from the reading.
func rankInstitutions(institutions []string, reading *adapter.Reading) []model.Recommendation {
	out := make([]model.Recommendation, 0, len(institutions))
	for _, name := range institutions {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, model.Recommendation{
			Institution: name,
			Tier:        tierOf(name),
			Rationale:   rationaleFor(tierOf(name), reading),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Institution < out[j].Institution
	})
	return out
}

func rationaleFor(tier int, reading *adapter.Reading) string {
	if reading == nil {
		return "No reading available."
	}
	switch {
	case reading.StudyLuck >= 70 && tier == 1:
		return "Strong study fortune this cycle; a reach school is worth the attempt."
	case reading.StudyLuck >= 40:
		return "Moderate study fortune; a solid match given the reading."
	default:
		return "Study fortune is subdued; treat this as a safety choice."
	}
}
