package i18n

import (
	"io/fs"
	"testing"
)

func loadLocales(t *testing.T) {
	t.Helper()
	localesFS, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		t.Fatalf("failed to open embedded locales: %v", err)
	}
	// Load sync.Once ile korunur — testler arasında tekrar çağrılması güvenli
	if err := Load(localesFS); err != nil {
		t.Fatalf("failed to load locales: %v", err)
	}
}

func TestLocalizerTranslates(t *testing.T) {
	loadLocales(t)

	en := NewLocalizer("en")
	if got := en.T("cooldown.none"); got != "No command cooldowns are set." {
		t.Errorf("unexpected english translation: %q", got)
	}

	tr := NewLocalizer("tr")
	if got := tr.T("cooldown.none"); got != "Ayarlanmış komut cooldown'u yok." {
		t.Errorf("unexpected turkish translation: %q", got)
	}
}

func TestLocalizerFallsBack(t *testing.T) {
	loadLocales(t)

	// Desteklenmeyen dil → varsayılan (en)
	loc := NewLocalizer("de")
	if got := loc.T("cooldown.none"); got != "No command cooldowns are set." {
		t.Errorf("unsupported language must fall back to english, got %q", got)
	}

	// Bilinmeyen anahtar → anahtarın kendisi
	if got := loc.T("no.such.key"); got != "no.such.key" {
		t.Errorf("unknown key must return itself, got %q", got)
	}
}

func TestTWithParams(t *testing.T) {
	loadLocales(t)

	loc := NewLocalizer("en")
	got := loc.TWithParams("cooldown.set", map[string]string{"command": "mute", "seconds": "30"})
	if got != "Cooldown for mute is now 30 seconds." {
		t.Errorf("unexpected interpolation: %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"tr-TR,tr;q=0.9,en-US;q=0.8", "tr"},
		{"de-DE,de;q=0.9", "en"},
		{"EN-us", "en"},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.header); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
