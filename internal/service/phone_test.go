package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"05321234567", "5321234567", true},
		{"5321234567", "5321234567", true},
		{"+90 532 123 45 67", "5321234567", true},
		{"905321234567", "5321234567", true},
		{"0090-532-123-4567", "5321234567", true},
		{"(0532) 123.45.67", "5321234567", true},
		{"0212 123 45 67", "", false},
		{"532123456", "", false},
		{"53212345678", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := NormalizePhone(tc.raw, "90")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
