package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "want" or "have").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var messages = map[string]map[string]string{
	"en": {
		"schema_definition":  "invalid construct definition",
		"underrun":           "not enough bytes",
		"shape_mismatch":     "value does not match the construct",
		"no_matching_case":   "no matching case",
		"codec":              "transformation failed",
		"embed_conflict":     "embedded field conflicts with existing value",
		"indeterminate_size": "size cannot be determined statically",
		"validation":         "validation failed",
	},
	"ja": {
		"schema_definition":  "コンストラクト定義が不正です",
		"underrun":           "バイト数が不足しています",
		"shape_mismatch":     "値がコンストラクトの形に一致しません",
		"no_matching_case":   "一致するケースがありません",
		"codec":              "変換に失敗しました",
		"embed_conflict":     "埋め込みフィールドが既存の値と衝突しています",
		"indeterminate_size": "サイズを静的に決定できません",
		"validation":         "検証に失敗しました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := messages[t.lang][code]
	if !ok {
		return code
	}
	if want, ok := data["want"]; ok {
		if have, ok := data["have"]; ok {
			msg += " (" + strings.Join([]string{"want " + want, "have " + have}, ", ") + ")"
		}
	}
	return msg
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := messages[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
