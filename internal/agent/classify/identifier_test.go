package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "two letters with long number",
			text:  "PL10000004252600772 status?",
			want:  "PL10000004252600772",
			found: true,
		},
		{
			// The first rule must capture the full token even though the
			// bare-digits rule would also match a substring.
			name:  "specific rule wins over loose digit rule",
			text:  "my number is AB12345678901234 thanks",
			want:  "AB12345678901234",
			found: true,
		},
		{
			name:  "letter prefix with medium number",
			text:  "check WTR123456 please",
			want:  "WTR123456",
			found: true,
		},
		{
			name:  "bare long number",
			text:  "application 123456789 from last week",
			want:  "123456789",
			found: true,
		},
		{
			name:  "single letter prefix",
			text:  "token T1234567",
			want:  "T1234567",
			found: true,
		},
		{
			name:  "split number with slash",
			text:  "my ref is 2024/00123",
			want:  "2024/00123",
			found: true,
		},
		{
			name:  "split number with hyphen",
			text:  "ref 12345-6789",
			want:  "12345-6789",
			found: true,
		},
		{
			name:  "no identifier",
			text:  "how do I get a marriage certificate?",
			found: false,
		},
		{
			name:  "short digits alone do not match",
			text:  "call me at 12345",
			found: false,
		},
		{
			name:  "lowercase prefix does not match letter rules",
			text:  "pl1234 is not an id",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractIdentifier(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIdentifierIsDeterministic(t *testing.T) {
	text := "PL10000004252600772 and also 99887766554433"
	first, _ := ExtractIdentifier(text)
	for i := 0; i < 10; i++ {
		got, found := ExtractIdentifier(text)
		assert.True(t, found)
		assert.Equal(t, first, got)
	}
}
