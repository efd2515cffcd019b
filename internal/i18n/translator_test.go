package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator(t *testing.T) {
	tr := NewTranslator("pt")

	t.Run("DefaultLocale", func(t *testing.T) {
		assert.Equal(t, "Nova candidatura", tr.T("", "new_application_title", nil))
	})

	t.Run("Template", func(t *testing.T) {
		msg := tr.T("en", "new_application_message", map[string]any{
			"UserName": "Ana", "FunctionName": "Waiter", "EventTitle": "Gala",
		})
		assert.Equal(t, "Ana applied for Waiter at Gala.", msg)
	})

	t.Run("UnknownLocaleFallsBack", func(t *testing.T) {
		assert.Equal(t, "aprovada", tr.T("fr", "status_APPROVED", nil))
	})

	t.Run("MissingKey", func(t *testing.T) {
		assert.Equal(t, "does_not_exist", tr.T("pt", "does_not_exist", nil))
	})
}
