package translate

// Language is one entry of GET /api/languages
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

const defaultFlag = "🌐"

// supported keeps the order the language picker shows
var supported = []Language{
	{"en", "English", "🇺🇸"},
	{"hi", "Hindi", "🇮🇳"},
	{"bn", "Bengali", "🇧🇩"},
	{"te", "Telugu", "🇮🇳"},
	{"mr", "Marathi", "🇮🇳"},
	{"ta", "Tamil", "🇮🇳"},
	{"gu", "Gujarati", "🇮🇳"},
	{"ur", "Urdu", "🇵🇰"},
	{"kn", "Kannada", "🇮🇳"},
	{"or", "Odia", "🇮🇳"},
	{"pa", "Punjabi", "🇮🇳"},
	{"as", "Assamese", "🇮🇳"},
	{"ml", "Malayalam", "🇮🇳"},
	{"fr", "French", "🇫🇷"},
	{"es", "Spanish", "🇪🇸"},
	{"de", "German", "🇩🇪"},
	{"it", "Italian", "🇮🇹"},
	{"pt", "Portuguese", "🇵🇹"},
	{"ru", "Russian", "🇷🇺"},
	{"ja", "Japanese", "🇯🇵"},
	{"ko", "Korean", "🇰🇷"},
	{"zh", "Chinese", "🇨🇳"},
	{"ar", "Arabic", "🇸🇦"},
}

var byCode = func() map[string]Language {
	m := make(map[string]Language, len(supported))
	for _, l := range supported {
		m[l.Code] = l
	}
	return m
}()

// Languages returns a copy of the supported language list
func Languages() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	for i := range out {
		if out[i].Flag == "" {
			out[i].Flag = defaultFlag
		}
	}
	return out
}

// Lookup finds a supported language by its code
func Lookup(code string) (Language, bool) {
	l, ok := byCode[code]
	return l, ok
}
