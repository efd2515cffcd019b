// Package i18n renders user-facing notification text.
package i18n

import (
	"embed"

	"eventstaff-backend/internal/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// DefaultLocale is used when the configured locale cannot be parsed.
const DefaultLocale = "pt"

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle   *i18n.Bundle
	fallback language.Tag
}

// NewTranslator builds a Translator whose fallback language is locale.
func NewTranslator(locale string) *Translator {
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("Unknown locale, using default", "locale", locale, "default", DefaultLocale)
		tag = language.Portuguese
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.pt.toml", "active.en.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Error("Failed to load message catalog", "file", file, "error", err)
		}
	}

	return &Translator{bundle: bundle, fallback: tag}
}

// T renders key for locale, falling back to the default language and finally
// to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.fallback.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		logger.Warn("Localize failed", "key", key, "locales", languages, "error", err)
		return key
	}
	return msg
}
