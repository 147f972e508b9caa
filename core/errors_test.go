package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	errParent := errors.New("parent region is not selected")

	tests := []struct {
		name      string
		err       error
		wantMsg   string
		wantCause error
		wantMap   map[string]string
	}{
		{name: "input", err: NewValidationError(errParent), wantMsg: "parent region is not selected", wantCause: errParent},
		{name: "field", err: NewFieldError("academic_year", "this field is required"), wantMsg: "academic_year: this field is required",
			wantMap: map[string]string{"academic_year": "this field is required"}},
		{name: "fields", err: NewValidationError(nil, FieldError{"a", "x"}, FieldError{"b", "y"}), wantMsg: "a: x",
			wantMap: map[string]string{"a": "x", "b": "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.wantMsg)
			vErr, ok := tt.err.(*ValidationError)
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, tt.wantMap, vErr.FieldMap())
			if tt.wantCause != nil {
				assert.ErrorIs(t, tt.err, tt.wantCause)
			}
		})
	}
}
