package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("underrun", nil); msg == "underrun" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("underrun", nil); msg == "not enough bytes" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeAndData(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown code should echo, got %q", msg)
	}
	msg := T("underrun", map[string]string{"want": "4", "have": "2"})
	if msg != "not enough bytes (want 4, have 2)" {
		t.Fatalf("unexpected message %q", msg)
	}
	SetLanguage("fr")
	if msg := T("codec", nil); msg != "transformation failed" {
		t.Fatalf("unsupported language should fall back to en, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("codec", nil); msg != "X:codec" {
		t.Fatalf("custom translator not used: %q", msg)
	}
}
