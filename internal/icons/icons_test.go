package icons

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExactMatch(t *testing.T) {
	for _, icon := range vocabulary {
		assert.Equal(t, icon, Normalize(string(icon)))
	}
}

func TestNormalizeLegacyAliases(t *testing.T) {
	cases := map[string]Icon{
		"ion-md-cash":         Wallet,
		"ion-md-trending-up":  TrendingUp,
		"ion-ios-warning":     Warning,
		"ion-md-bulb":         Bulb,
		"ION-MD-CASH":         Wallet,
		"  ion-md-calendar  ": Calendar,
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "input %q", input)
	}
}

func TestNormalizeFuzzyMatch(t *testing.T) {
	assert.Equal(t, Wallet, Normalize("wallet"))
	assert.Equal(t, InformationCircle, Normalize("info"))
	assert.Equal(t, AlertCircle, Normalize("alert"))
	assert.Equal(t, TrendingUp, Normalize("ion-md-trending-up-sharp"))
}

func TestNormalizeDefault(t *testing.T) {
	assert.Equal(t, Default, Normalize(""))
	assert.Equal(t, Default, Normalize("   "))
	assert.Equal(t, Default, Normalize("zzzz-not-an-icon-zzzz"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"ion-md-cash", "wallet", "garbage", "", "pie-chart-outline"}
	for _, input := range inputs {
		once := Normalize(input)
		assert.True(t, Member(once), "Normalize(%q) = %q not in vocabulary", input, once)
		assert.Equal(t, once, Normalize(string(once)), "input %q", input)
	}
}
