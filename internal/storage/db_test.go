package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain ascii untouched", in: "hello", want: "hello"},
		{name: "emoji untouched", in: "thanks 😊", want: "thanks 😊"},
		{name: "invalid byte dropped", in: "bad\xffbyte", want: "badbyte"},
		{name: "truncated multibyte dropped", in: "cut\xe2\x82", want: "cut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUTF8(tt.in))
		})
	}
}
