package icons

import "strings"

// Icon is a member of the closed vocabulary the rendering layer supports.
type Icon string

const (
	Wallet            Icon = "wallet-outline"
	Cash              Icon = "cash-outline"
	TrendingUp        Icon = "trending-up-outline"
	TrendingDown      Icon = "trending-down-outline"
	AlertCircle       Icon = "alert-circle-outline"
	Warning           Icon = "warning-outline"
	CheckmarkCircle   Icon = "checkmark-circle-outline"
	InformationCircle Icon = "information-circle-outline"
	PieChart          Icon = "pie-chart-outline"
	Calendar          Icon = "calendar-outline"
	Bulb              Icon = "bulb-outline"
	Sparkles          Icon = "sparkles-outline"
)

// Default is returned when no resolution step matches.
const Default = InformationCircle

// vocabulary keeps a fixed order so fuzzy matching is deterministic.
var vocabulary = []Icon{
	Wallet,
	Cash,
	TrendingUp,
	TrendingDown,
	AlertCircle,
	Warning,
	CheckmarkCircle,
	InformationCircle,
	PieChart,
	Calendar,
	Bulb,
	Sparkles,
}

var members = func() map[Icon]struct{} {
	m := make(map[Icon]struct{}, len(vocabulary))
	for _, icon := range vocabulary {
		m[icon] = struct{}{}
	}
	return m
}()

// legacyAliases maps icon names from older Ionicons generations onto the
// current vocabulary.
var legacyAliases = map[string]Icon{
	"ion-md-cash":                Wallet,
	"ion-md-wallet":              Wallet,
	"ion-md-card":                Wallet,
	"ion-md-trending-up":         TrendingUp,
	"ion-md-trending-down":       TrendingDown,
	"ion-md-alert":               AlertCircle,
	"ion-md-warning":             Warning,
	"ion-md-checkmark-circle":    CheckmarkCircle,
	"ion-md-information-circle":  InformationCircle,
	"ion-md-pie":                 PieChart,
	"ion-md-stats":               PieChart,
	"ion-md-calendar":            Calendar,
	"ion-md-bulb":                Bulb,
	"ion-ios-cash":               Wallet,
	"ion-ios-wallet":             Wallet,
	"ion-ios-trending-up":        TrendingUp,
	"ion-ios-trending-down":      TrendingDown,
	"ion-ios-alert":              AlertCircle,
	"ion-ios-warning":            Warning,
	"ion-ios-checkmark-circle":   CheckmarkCircle,
	"ion-ios-information-circle": InformationCircle,
	"ion-ios-pie":                PieChart,
	"ion-ios-calendar":           Calendar,
	"ion-ios-bulb":               Bulb,
}

// Member reports whether candidate is already part of the vocabulary.
func Member(candidate Icon) bool {
	_, ok := members[candidate]
	return ok
}

// Normalize resolves an arbitrary icon name to a vocabulary member.
// Resolution order: exact match, legacy alias table, fuzzy substring
// match, Default. Idempotent: the exact-match step short-circuits any
// previously normalized value.
func Normalize(candidate string) Icon {
	name := strings.ToLower(strings.TrimSpace(candidate))
	if name == "" {
		return Default
	}
	if Member(Icon(name)) {
		return Icon(name)
	}
	if alias, ok := legacyAliases[name]; ok {
		return alias
	}

	stem := strings.TrimPrefix(name, "ion-md-")
	stem = strings.TrimPrefix(stem, "ion-ios-")
	stem = strings.TrimSuffix(stem, "-outline")
	stem = strings.TrimSuffix(stem, "-sharp")
	if stem != "" {
		for _, icon := range vocabulary {
			if strings.Contains(string(icon), stem) {
				return icon
			}
		}
		for _, icon := range vocabulary {
			if strings.Contains(stem, strings.TrimSuffix(string(icon), "-outline")) {
				return icon
			}
		}
	}
	return Default
}
