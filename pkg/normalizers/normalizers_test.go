package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	assert.Equal(t, "jane doe", Canonical("  Jane Doe\t"))
	assert.Equal(t, "", Canonical("   "))
}

func TestApply_UnknownNormalizer(t *testing.T) {
	assert.Equal(t, "Value", Apply("Value", "does_not_exist"))
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "123456789", ApplyChain(" 123-45-6789 ", NameTrim, NameDigitsOnly))
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"José-María", "jose maria"},
		{"  Austin,   TX ", "austin tx"},
		{"O'Brien", "o brien"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"travis", "county", "tx"}, Tokens("Travis County, TX"))
	assert.Empty(t, Tokens("  "))
}

func TestNormalizeSSN(t *testing.T) {
	assert.Equal(t, "123456789", NormalizeSSN("123-45-6789"))
	assert.Equal(t, "", NormalizeSSN("12345"))
}

func TestRemovePunctuation(t *testing.T) {
	assert.Equal(t, "Austin TX", RemovePunctuation("Austin, TX."))
}
