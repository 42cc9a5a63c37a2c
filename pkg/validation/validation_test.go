package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "libreconsent/pkg/domain-errors"
)

func TestIsConsentID(t *testing.T) {
	valid := strings.Repeat("0a", 32)
	assert.True(t, IsConsentID(valid))

	for _, v := range []string{
		"",
		strings.Repeat("0a", 31),
		strings.Repeat("0a", 33),
		strings.Repeat("0A", 32), // uppercase hex is rejected
		strings.Repeat("0g", 32),
	} {
		assert.False(t, IsConsentID(v), "%q", v)
	}
}

func TestValidateNotBlank(t *testing.T) {
	type req struct {
		Name string `validate:"notblank"`
	}

	assert.NoError(t, Validate(&req{Name: "ok"}))

	for _, name := range []string{"", "   "} {
		err := Validate(&req{Name: name})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "%q", name)
		assert.Contains(t, err.Error(), "name must not be blank")
	}
}

func TestErrorMessageFieldNames(t *testing.T) {
	type req struct {
		RetentionMonths int `validate:"required,min=1,max=120"`
	}

	err := Validate(&req{})
	assert.Contains(t, err.Error(), "retention_months is required")

	err = Validate(&req{RetentionMonths: 500})
	assert.Contains(t, err.Error(), "retention_months must be at most 120")
}
