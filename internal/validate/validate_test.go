package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type items struct {
	Items []map[string]any `validate:"required,dive,quantity"`
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		item     map[string]any
		expected bool
	}{
		{name: "given whole json number should pass", item: map[string]any{"id": "A", "cantidad": float64(2)}, expected: true},
		{name: "given int should pass", item: map[string]any{"id": "A", "cantidad": 3}, expected: true},
		{name: "given zero should pass", item: map[string]any{"id": "A", "cantidad": float64(0)}, expected: true},
		{name: "given missing cantidad should pass", item: map[string]any{"id": "A"}, expected: true},
		{name: "given null cantidad should pass", item: map[string]any{"id": "A", "cantidad": nil}, expected: true},
		{name: "given nil item should pass", item: nil, expected: true},
		{name: "given fraction should fail", item: map[string]any{"id": "A", "cantidad": 1.5}, expected: false},
		{name: "given numeric string should fail", item: map[string]any{"id": "A", "cantidad": "5"}, expected: false},
		{name: "given boolean should fail", item: map[string]any{"id": "A", "cantidad": true}, expected: false},
		{name: "given object should fail", item: map[string]any{"id": "A", "cantidad": map[string]any{"n": 1}}, expected: false},
	}

	validate := New()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate.Struct(items{Items: []map[string]any{test.item}})
			assert.Equal(t, test.expected, err == nil, "error=%v", err)
		})
	}
}
