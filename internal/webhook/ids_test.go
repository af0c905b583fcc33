package webhook

import "testing"

func TestTrailingID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{
			name:     "compound comment id",
			id:       "10112233_44556677",
			expected: "44556677",
		},
		{
			name:     "no separator",
			id:       "44556677",
			expected: "44556677",
		},
		{
			name:     "multiple separators take last segment",
			id:       "page_post_comment",
			expected: "comment",
		},
		{
			name:     "empty id",
			id:       "",
			expected: "",
		},
		{
			name:     "trailing separator",
			id:       "10112233_",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrailingID(tt.id); got != tt.expected {
				t.Errorf("TrailingID(%q) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}

func TestLeadingID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{
			name:     "compound post id yields page id",
			id:       "987654_10112233",
			expected: "987654",
		},
		{
			name:     "no separator",
			id:       "987654",
			expected: "987654",
		},
		{
			name:     "multiple separators take first segment",
			id:       "page_post_comment",
			expected: "page",
		},
		{
			name:     "empty id",
			id:       "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeadingID(tt.id); got != tt.expected {
				t.Errorf("LeadingID(%q) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}
