package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageLocaleLookup(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, "Save", c.Message("en", "btn_accept"))
	assert.Equal(t, "Сохранить", c.Message("ru", "btn_accept"))
}

func TestMessageFallsBackToEnglish(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, c.Message("en", "help"), c.Message("de", "help"))
	assert.Equal(t, c.Message("en", "help"), c.Message("", "help"))
	assert.Equal(t, c.Message("en", "help"), c.Message("  EN  ", "help"))
}

func TestMessageUnknownKeyReturnsKey(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, "no_such_key", c.Message("en", "no_such_key"))
}

func TestBothLocalesCoverSameKeys(t *testing.T) {
	c := NewCatalog()
	for key := range c.messages["en"] {
		_, ok := c.messages["ru"][key]
		assert.True(t, ok, "ru missing %q", key)
	}
	for key := range c.messages["ru"] {
		_, ok := c.messages["en"][key]
		assert.True(t, ok, "en missing %q", key)
	}
}
