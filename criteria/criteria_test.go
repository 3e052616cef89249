package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteria_LevelThreshold(t *testing.T) {
	assert.Equal(t, Match, PrivacyLow.Matches(PrivacyHigh))
	assert.Equal(t, Match, PrivacyMedium.Matches(PrivacyMedium))
	assert.Equal(t, NoMatch, PrivacyHigh.Matches(PrivacyLow))
	assert.Equal(t, Match, CapabilityBasic.Matches(CapabilitySmart))
	assert.Equal(t, NoMatch, CapabilitySmart.Matches(CapabilityAdvanced))
}

func TestCriteria_FlagEquality(t *testing.T) {
	assert.Equal(t, Match, ProviderOpenAI.Matches(ProviderOpenAI))
	assert.Equal(t, NoMatch, ProviderOpenAI.Matches(ProviderAnthropic))
}

func TestCriteria_SetEquality(t *testing.T) {
	assert.Equal(t, Match, FeatureTools.Matches(FeatureTools))
	assert.Equal(t, Abstain, FeatureTools.Matches(FeatureStream))
}

func TestCriteria_CrossKindAbstains(t *testing.T) {
	pairs := [][2]Criteria{
		{PrivacyLow, ProviderOpenAI},
		{ProviderOpenAI, FeatureTools},
		{CapabilitySmart, PrivacyHigh},
		{FeatureStream, CapabilityBasic},
	}
	for _, p := range pairs {
		assert.Equal(t, Abstain, p[0].Matches(p[1]), "%s vs %s", p[0], p[1])
	}
}

func TestCriteria_StringAndEqual(t *testing.T) {
	assert.Equal(t, "privacy:high", PrivacyHigh.String())
	assert.True(t, PrivacyHigh.Equal(New(KindPrivacy, "other-name", 4)))
	assert.False(t, PrivacyHigh.Equal(CapabilityAdvanced))
	assert.Equal(t, "NO_MATCH", NoMatch.String())
}

func TestCollection_Matches(t *testing.T) {
	tests := []struct {
		name       string
		required   Collection
		candidates []Criteria
		want       bool
	}{
		{"empty requirements match anything", NewCollection(), []Criteria{ProviderOpenAI}, true},
		{"empty both", NewCollection(), nil, true},
		{"empty candidates", NewCollection(PrivacyLow), nil, false},
		{"threshold satisfied", NewCollection(PrivacyLow), []Criteria{PrivacyHigh}, true},
		{"threshold violated", NewCollection(PrivacyHigh), []Criteria{PrivacyLow}, false},
		{"provider conflict vetoes", NewCollection(PrivacyLow, ProviderOpenAI), []Criteria{PrivacyHigh, ProviderAnthropic}, false},
		{"unrelated kind does not block", NewCollection(ProviderOpenAI), []Criteria{PrivacyHigh}, true},
		{"feature offered among others", NewCollection(FeatureTools), []Criteria{FeatureStream, FeatureTools}, true},
		{"feature missing from offered set", NewCollection(FeatureTools), []Criteria{FeatureStream}, false},
		{"feature kind not offered", NewCollection(FeatureTools), []Criteria{PrivacyHigh}, true},
		{"two features both offered", NewCollection(FeatureTools, FeatureStream), []Criteria{FeatureStream, FeatureTools, FeatureJSONOutput}, true},
		{"two features one missing", NewCollection(FeatureTools, FeatureStream), []Criteria{FeatureTools, FeatureJSONOutput}, false},
		{
			"full rule",
			NewCollection(PrivacyMedium, CapabilityAdvanced, FeatureTools),
			[]Criteria{PrivacyHigh, CapabilitySmart, ProviderOpenAI, FeatureTools, FeatureStream},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.required.Matches(tt.candidates))
		})
	}
}

func TestCollection_WithDoesNotMutate(t *testing.T) {
	base := NewCollection(PrivacyLow)
	extended := base.WithFeatures(FeatureTools, FeatureStream)

	assert.Equal(t, []Criteria{PrivacyLow}, base.All())
	assert.Equal(t, []Criteria{PrivacyLow, FeatureTools, FeatureStream}, extended.All())

	again := base.With(ProviderOpenAI)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, again.Len())
	assert.False(t, extended.Contains(ProviderOpenAI))
}

func TestCollection_WithFeaturesIgnoresOtherKinds(t *testing.T) {
	c := NewCollection().WithFeatures(FeatureTools, ProviderOpenAI)
	assert.Equal(t, []Criteria{FeatureTools}, c.All())
}

func TestCollection_WithDeduplicates(t *testing.T) {
	c := NewCollection(FeatureTools).With(FeatureTools, FeatureStream)
	assert.Equal(t, "[feature:tools, feature:stream]", c.String())
}

func TestCollection_AllReturnsCopy(t *testing.T) {
	c := NewCollection(PrivacyLow)
	all := c.All()
	all[0] = PrivacyHigh
	assert.True(t, c.Contains(PrivacyLow))
}

func TestParse(t *testing.T) {
	c, err := Parse(" Privacy:HIGH ")
	require.NoError(t, err)
	assert.Equal(t, PrivacyHigh, c)

	all, err := ParseAll([]string{"provider:openai", "feature:tools", "capability:smart"})
	require.NoError(t, err)
	assert.Equal(t, []Criteria{ProviderOpenAI, FeatureTools, CapabilitySmart}, all)

	for _, bad := range []string{"privacy", "color:red", "privacy:extreme", ":high"} {
		_, err := Parse(bad)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr, bad)
	}
}
