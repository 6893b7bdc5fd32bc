package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeSourceNotFound, "application 17940142 not found")
	require.NotNil(t, err)
	assert.Equal(t, CodeSourceNotFound, err.Code)
	assert.Equal(t, "[SRC_002] application 17940142 not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestErrorWithDetail(t *testing.T) {
	err := New(CodeDatabaseError, "upsert failed").WithDetail("app=17940142")
	assert.Equal(t, "[DB_001] upsert failed: app=17940142", err.Error())

	// WithDetail must not mutate the receiver.
	base := New(CodeDatabaseError, "upsert failed")
	_ = base.WithDetail("x")
	assert.Empty(t, base.Detail)
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(cause, CodeSourceNetwork, "fetch metadata")

	require.NotNil(t, err)
	assert.Equal(t, CodeSourceNetwork, err.Code)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestWrapPreservesCodeForUnknown(t *testing.T) {
	inner := New(CodeSourceAuth, "401 from upstream")
	outer := Wrap(inner, CodeUnknown, "refresh failed")
	assert.Equal(t, CodeSourceAuth, outer.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(CodeSourceRateLimited, "429")
	wrapped := fmt.Errorf("cycle: %w", Wrap(inner, CodeUnknown, "stage failed"))

	assert.True(t, IsCode(wrapped, CodeSourceRateLimited))
	assert.False(t, IsCode(wrapped, CodeSourceAuth))
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"auth", New(CodeSourceAuth, "x"), IsAuth, true},
		{"auth negative", New(CodeSourceNetwork, "x"), IsAuth, false},
		{"rate limited", New(CodeSourceRateLimited, "x"), IsRateLimited, true},
		{"network", New(CodeSourceNetwork, "x"), IsNetwork, true},
		{"malformed source", New(CodeSourceMalformed, "x"), IsMalformed, true},
		{"malformed parser", New(CodeParseMalformed, "x"), IsMalformed, true},
		{"not found generic", NotFound("x"), IsNotFound, true},
		{"not found patent", New(CodePatentNotFound, "x"), IsNotFound, true},
		{"not found upstream", New(CodeSourceNotFound, "x"), IsNotFound, true},
		{"not found negative", New(CodeInternal, "x"), IsNotFound, false},
		{"plain error", stderrors.New("boom"), IsAuth, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeSourceAuth, GetCode(New(CodeSourceAuth, "x")))
}
