package language

// displayNames maps supported language tags to their display names.
// The set matches the languages the translation UI offers.
var displayNames = map[string]string{
	"en-US": "English (US)",
	"es-US": "Spanish (US)",
	"fr-FR": "French",
	"de-DE": "German",
	"it-IT": "Italian",
	"pt-BR": "Portuguese (Brazil)",
	"ja-JP": "Japanese",
	"ko-KR": "Korean",
	"zh-CN": "Chinese (Simplified)",
}

// DisplayName resolves a language tag to its human-readable name.
// Unknown tags are returned as-is so the upstream model still receives
// a usable language reference.
func DisplayName(tag string) string {
	if name, ok := displayNames[tag]; ok {
		return name
	}
	return tag
}

// IsSupported reports whether the tag is in the supported-language registry.
func IsSupported(tag string) bool {
	_, ok := displayNames[tag]
	return ok
}

// Supported returns a copy of the tag → display-name registry.
func Supported() map[string]string {
	out := make(map[string]string, len(displayNames))
	for tag, name := range displayNames {
		out[tag] = name
	}
	return out
}
