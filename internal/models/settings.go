package models

// Shortcuts are the keyboard bindings shown by the UI.
type Shortcuts struct {
	Toggle   string `json:"toggle"`
	Settings string `json:"settings"`
}

// Settings is the user configuration consumed by the core.
// Transparency is always a 0-1 fraction.
type Settings struct {
	APIKey             string            `json:"apiKey"`
	ProviderKeys       map[string]string `json:"providerKeys,omitempty"`
	APIProvider        string            `json:"apiProvider"`
	TargetLanguage     string            `json:"targetLanguage"`
	AutoTranslate      bool              `json:"autoTranslate"`
	PositionPreference string            `json:"positionPreference"`
	FontSize           int               `json:"fontSize"`
	Transparency       float64           `json:"transparency"`
	Shortcuts          Shortcuts         `json:"shortcuts"`
}

// KeyFor returns the credential for provider, falling back to the shared key.
func (s *Settings) KeyFor(provider string) string {
	if k, ok := s.ProviderKeys[provider]; ok && k != "" {
		return k
	}
	return s.APIKey
}

// Masked returns a copy safe to hand to the UI.
func (s Settings) Masked() Settings {
	out := s
	if out.APIKey != "" {
		out.APIKey = "***"
	}
	if len(s.ProviderKeys) > 0 {
		out.ProviderKeys = make(map[string]string, len(s.ProviderKeys))
		for p, k := range s.ProviderKeys {
			if k != "" {
				k = "***"
			}
			out.ProviderKeys[p] = k
		}
	}
	return out
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	APIKey             *string           `json:"apiKey,omitempty"`
	ProviderKeys       map[string]string `json:"providerKeys,omitempty"`
	APIProvider        *string           `json:"apiProvider,omitempty"`
	TargetLanguage     *string           `json:"targetLanguage,omitempty"`
	AutoTranslate      *bool             `json:"autoTranslate,omitempty"`
	PositionPreference *string           `json:"positionPreference,omitempty"`
	FontSize           *int              `json:"fontSize,omitempty"`
	Transparency       *float64          `json:"transparency,omitempty"`
	Shortcuts          *Shortcuts        `json:"shortcuts,omitempty"`
}
