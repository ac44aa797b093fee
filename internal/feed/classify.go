package feed

import (
	"strings"

	"github.com/telemat/epgsync/internal/models"
	"github.com/telemat/epgsync/internal/slug"
)

// Classifier infers a channel's distribution type and region from its
// display name. The inference is heuristic and feed-specific, so it is
// pluggable: the sync orchestrator takes whichever classifier it is given.
type Classifier func(displayName string) (models.ChannelType, *string)

// Name fragments checked against the slugged display name. The lists are
// tuned for Polish feeds; swap the classifier for other markets.
var (
	terrestrialNames = []string{
		"tvp-1", "tvp-2", "tvp-3", "tvp-info", "tvp-sport", "tvp-kultura",
		"polsat", "tvn", "tv-4", "tv-puls", "tv-6", "metro", "zoom-tv",
	}

	satelliteNames = []string{
		"cyfrowy-polsat", "canal-digital", "nc-plus", "platforma-canal",
		"orange-tv", "polsat-box",
	}

	regionKeywords = map[string]string{
		"warszawa":  "mazowieckie",
		"krakow":    "malopolskie",
		"katowice":  "slaskie",
		"gdansk":    "pomorskie",
		"poznan":    "wielkopolskie",
		"wroclaw":   "dolnoslaskie",
		"lodz":      "lodzkie",
		"szczecin":  "zachodniopomorskie",
		"lublin":    "lubelskie",
		"bialystok": "podlaskie",
		"rzeszow":   "podkarpackie",
		"olsztyn":   "warminsko-mazurskie",
		"bydgoszcz": "kujawsko-pomorskie",
		"kielce":    "swietokrzyskie",
		"opole":     "opolskie",
		"gorzow":    "lubuskie",
	}
)

// DefaultClassifier matches the slugged display name against the known
// terrestrial/satellite name lists and the region keyword table. Channels
// matching a region keyword are regional; unmatched names default to cable.
func DefaultClassifier() Classifier {
	return func(displayName string) (models.ChannelType, *string) {
		normalized := slug.Make(displayName)

		for keyword, region := range regionKeywords {
			if strings.Contains(normalized, keyword) {
				r := region
				return models.ChannelTypeRegional, &r
			}
		}

		for _, name := range satelliteNames {
			if strings.Contains(normalized, name) {
				return models.ChannelTypeSatellite, nil
			}
		}

		for _, name := range terrestrialNames {
			if strings.Contains(normalized, name) {
				return models.ChannelTypeTerrestrial, nil
			}
		}

		return models.ChannelTypeCable, nil
	}
}
