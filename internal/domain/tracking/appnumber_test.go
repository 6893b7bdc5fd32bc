package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uspto-tools/pairwatch/pkg/errors"
)

func TestNormalizeApplicationNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"17/940,142", "17940142"},
		{"17 940 142", "17940142"},
		{"  17940142  ", "17940142"},
		{"17940142", "17940142"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeApplicationNumber(tt.in), "input %q", tt.in)
	}
}

func TestValidateApplicationNumber(t *testing.T) {
	n, err := ValidateApplicationNumber("17/940,142")
	require.NoError(t, err)
	assert.Equal(t, "17940142", n)

	_, err = ValidateApplicationNumber("   ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))

	_, err = ValidateApplicationNumber("US17940142")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestFormatApplicationNumber(t *testing.T) {
	assert.Equal(t, "17/940,142", FormatApplicationNumber("17940142"))
	assert.Equal(t, "17/940,142", FormatApplicationNumber("17/940,142"))
	// Too short for the SS/NNN,NNN layout.
	assert.Equal(t, "1234567", FormatApplicationNumber("1234567"))
}

func TestExternalURLs(t *testing.T) {
	assert.Equal(t,
		"https://patentcenter.uspto.gov/applications/17940142",
		PatentCenterURL("17/940,142"))
	assert.Equal(t,
		"https://patentcenter.uspto.gov/applications/17940142/ifw/docs",
		PatentCenterDocumentsURL("17940142"))
	assert.Equal(t,
		"https://portal.uspto.gov/pair/PublicPair?appNumber=17940142",
		PublicPairURL("17940142"))
}
