package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantIntent     string
		wantDM         string
		wantConfidence float32
		wantErr        bool
	}{
		{
			name:           "clean json",
			raw:            `{"intent":"interested_in_services","dm_message":"Hey Maria, happy to help!","confidence":0.96}`,
			wantIntent:     "interested_in_services",
			wantDM:         "Hey Maria, happy to help!",
			wantConfidence: 0.96,
		},
		{
			name:           "json wrapped in prose",
			raw:            "Sure! Here's the analysis:\n{\"intent\":\"positive\",\"dm_message\":\"Hey Jake, thanks!\",\"confidence\":0.9}\nLet me know if you need more.",
			wantIntent:     "positive",
			wantDM:         "Hey Jake, thanks!",
			wantConfidence: 0.9,
		},
		{
			name:           "markdown fenced",
			raw:            "```json\n{\"intent\":\"negative\",\"dm_message\":\"\",\"confidence\":0.92}\n```",
			wantIntent:     "negative",
			wantConfidence: 0.92,
		},
		{
			name:           "trailing comma repaired",
			raw:            `{"intent":"other","dm_message":"","confidence":0.5,}`,
			wantIntent:     "other",
			wantConfidence: 0.5,
		},
		{
			name:           "unknown intent coerced to other",
			raw:            `{"intent":"spam","dm_message":"","confidence":0.7}`,
			wantIntent:     "other",
			wantConfidence: 0.7,
		},
		{
			name:           "uppercase intent normalized",
			raw:            `{"intent":"NEGATIVE","dm_message":"","confidence":0.8}`,
			wantIntent:     "negative",
			wantConfidence: 0.8,
		},
		{
			name:           "confidence clamped to one",
			raw:            `{"intent":"positive","dm_message":"Hey!","confidence":1.7}`,
			wantIntent:     "positive",
			wantDM:         "Hey!",
			wantConfidence: 1,
		},
		{
			name:    "no json at all",
			raw:     "I cannot classify this comment.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := parseVerdict(tt.raw)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, verdict.Intent)
			assert.Equal(t, tt.wantDM, verdict.DMMessage)
			assert.InDelta(t, tt.wantConfidence, verdict.Confidence, 0.001)
		})
	}
}

func TestFallbackChatReply(t *testing.T) {
	t.Run("greet starts with name", func(t *testing.T) {
		reply := FallbackChatReply(true, "Maria")

		assert.NotEmpty(t, reply)
		assert.True(t, strings.HasPrefix(reply, "Hey Maria, "))
	})

	t.Run("no greet has no leading name", func(t *testing.T) {
		reply := FallbackChatReply(false, "Maria")

		assert.NotEmpty(t, reply)
		assert.NotContains(t, reply, "Hey Maria")
	})

	t.Run("greet without name still non-empty", func(t *testing.T) {
		assert.NotEmpty(t, FallbackChatReply(true, ""))
	})
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Maria", FirstName("Maria Lee"))
	assert.Equal(t, "Maria", FirstName("  Maria "))
	assert.Equal(t, "", FirstName(""))
	assert.Equal(t, "", FirstName("   "))
}
