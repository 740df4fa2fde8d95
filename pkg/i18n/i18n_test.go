package i18n

import "testing"

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   Locale
	}{
		{"", LocaleEs},
		{"es", LocaleEs},
		{"es-AR,es;q=0.9,en-US;q=0.8", LocaleEs},
		{"en-US,en;q=0.9", LocaleEn},
		{"fr-FR,fr;q=0.9", LocaleEs}, // unsupported → fallback
		{"fr-FR,en;q=0.5", LocaleEn},
		{"EN", LocaleEn},
	}

	for _, tt := range tests {
		got := ParseAcceptLanguage(tt.header)
		if got != tt.want {
			t.Errorf("ParseAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestBundleTranslation(t *testing.T) {
	b := NewDefaultBundle()

	if got := b.T(LocaleEs, "contact.self"); got != "No puedes agregarte a ti mismo" {
		t.Errorf("es contact.self = %q", got)
	}
	if got := b.T(LocaleEn, "contact.self"); got != "You cannot add yourself" {
		t.Errorf("en contact.self = %q", got)
	}
	if got := b.T(LocaleEn, "unknown.key"); got != "unknown.key" {
		t.Errorf("unknown key = %q, want key itself", got)
	}
	if got := b.T(LocaleEs, "rate_limit.exceeded", 30); got != "Límite de solicitudes excedido. Reintenta en 30 segundos" {
		t.Errorf("rate_limit with args = %q", got)
	}
}

func TestBundleFallback(t *testing.T) {
	b := NewBundle(LocaleEs)
	b.LoadMessages(LocaleEs, map[string]string{"only.es": "solo"})
	b.LoadMessages(LocaleEn, map[string]string{"both": "both"})
	b.LoadMessages(LocaleEn, map[string]string{"extra": "extra"})

	if got := b.T(LocaleEn, "only.es"); got != "solo" {
		t.Errorf("fallback = %q", got)
	}
	if got := b.T(LocaleEn, "both"); got != "both" {
		t.Errorf("merge lost existing key: %q", got)
	}
	if len(b.SupportedLocales()) != 2 {
		t.Errorf("locales = %v", b.SupportedLocales())
	}
}

func TestAllLocalesHaveSameKeys(t *testing.T) {
	for key := range esMessages {
		if _, ok := enMessages[key]; !ok {
			t.Errorf("missing en translation for %q", key)
		}
	}
	for key := range enMessages {
		if _, ok := esMessages[key]; !ok {
			t.Errorf("missing es translation for %q", key)
		}
	}
}
