package webhook

import "testing"

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "parenthesized us number",
			text:     "Call me at (555) 123-4567 please",
			expected: "5551234567",
		},
		{
			name:     "international with plus and spaces",
			text:     "+1 555 123 4567",
			expected: "+15551234567",
		},
		{
			name:     "too few digits",
			text:     "order #12345",
			expected: "",
		},
		{
			name:     "no digits at all",
			text:     "hey, do you do essays?",
			expected: "",
		},
		{
			name:     "dotted separators",
			text:     "my number is 555.123.4567",
			expected: "5551234567",
		},
		{
			name:     "bare digit run",
			text:     "03001234567 whatsapp me",
			expected: "03001234567",
		},
		{
			name:     "first qualifying match wins",
			text:     "id 1234 then +92 300 1234567",
			expected: "+923001234567",
		},
		{
			name:     "empty input",
			text:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPhone(tt.text); got != tt.expected {
				t.Errorf("ExtractPhone(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}
