package parley

import "strings"

// MapTranslator resolves locale strings from an in-memory table, falling
// back to the default locale and finally to the key itself. Template
// parameters appear as "{name}" in the stored strings.
type MapTranslator struct {
	fallback string
	table    map[string]map[string]string
}

// NewMapTranslator builds a translator over locale -> key -> template.
// The engine's own message keys are pre-seeded for the default locale and
// can be overridden by the table.
func NewMapTranslator(table map[string]map[string]string) *MapTranslator {
	t := &MapTranslator{
		fallback: DefaultLocale,
		table: map[string]map[string]string{
			DefaultLocale: {
				KeyInactivityNotice: "This menu was closed due to inactivity.",
				KeyInvalidInput:     "That input was not valid. Try again, or type \"exit\" to quit.",
				KeyNoPagination:     "(more pages hidden: missing reaction permissions)",
			},
		},
	}
	for locale, entries := range table {
		if t.table[locale] == nil {
			t.table[locale] = make(map[string]string)
		}
		for key, value := range entries {
			t.table[locale][key] = value
		}
	}
	return t
}

// Translate implements Translator.
func (t *MapTranslator) Translate(locale, key string, params map[string]string) string {
	value, ok := t.table[locale][key]
	if !ok {
		value, ok = t.table[t.fallback][key]
	}
	if !ok {
		return key
	}
	for name, repl := range params {
		value = strings.ReplaceAll(value, "{"+name+"}", repl)
	}
	return value
}
