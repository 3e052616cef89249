package criteria

// Privacy levels. Higher values keep data closer to the caller.
var (
	PrivacyLow    = New(KindPrivacy, "low", 1)
	PrivacyMedium = New(KindPrivacy, "medium", 2)
	PrivacyHigh   = New(KindPrivacy, "high", 4)
)

// Capability levels of a model.
var (
	CapabilityBasic        = New(KindCapability, "basic", 1)
	CapabilityIntermediate = New(KindCapability, "intermediate", 2)
	CapabilityAdvanced     = New(KindCapability, "advanced", 4)
	CapabilitySmart        = New(KindCapability, "smart", 8)
)

// Provider identities.
var (
	ProviderOpenAI      = New(KindProvider, "openai", 1)
	ProviderAnthropic   = New(KindProvider, "anthropic", 2)
	ProviderMistral     = New(KindProvider, "mistral", 3)
	ProviderOllama      = New(KindProvider, "ollama", 4)
	ProviderGoogle      = New(KindProvider, "google", 5)
	ProviderStability   = New(KindProvider, "stability", 6)
	ProviderFireworksAI = New(KindProvider, "fireworksai", 7)
)

// Feature flags an adapter may offer.
var (
	FeatureTools            = New(KindFeature, "tools", 1)
	FeatureStream           = New(KindFeature, "stream", 2)
	FeatureImageToText      = New(KindFeature, "image_to_text", 3)
	FeatureJSONOutput       = New(KindFeature, "json_output", 4)
	FeatureStructuredOutput = New(KindFeature, "structured_output", 5)
	FeatureTextToImage      = New(KindFeature, "text_to_image", 6)
)

var known = []Criteria{
	PrivacyLow, PrivacyMedium, PrivacyHigh,
	CapabilityBasic, CapabilityIntermediate, CapabilityAdvanced, CapabilitySmart,
	ProviderOpenAI, ProviderAnthropic, ProviderMistral, ProviderOllama, ProviderGoogle,
	ProviderStability, ProviderFireworksAI,
	FeatureTools, FeatureStream, FeatureImageToText, FeatureJSONOutput,
	FeatureStructuredOutput, FeatureTextToImage,
}

// Known returns every predefined criteria value.
func Known() []Criteria {
	out := make([]Criteria, len(known))
	copy(out, known)
	return out
}
