package git

import (
	"testing"
)

func TestTrailerFilter(t *testing.T) {
	tests := []struct {
		name     string
		trailers []string
		expected string
	}{
		{
			"no_trailers",
			nil,
			"cat",
		},
		{
			"one_trailer",
			[]string{"Acked-by: Jane Doe <jane@example.com>"},
			`cat; printf '%s\n' 'Acked-by: Jane Doe <jane@example.com>'`,
		},
		{
			"two_trailers",
			[]string{
				"Acked-by: Jane Doe <jane@example.com>",
				"Tested-by: Arnd Example <arnd@example.com>",
			},
			`cat; printf '%s\n' 'Acked-by: Jane Doe <jane@example.com>'` +
				`; printf '%s\n' 'Tested-by: Arnd Example <arnd@example.com>'`,
		},
		{
			"single_quote_in_trailer",
			[]string{"Acked-by: Jane O'Doe <jane@example.com>"},
			`cat; printf '%s\n' 'Acked-by: Jane O'\''Doe <jane@example.com>'`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			filter := TrailerFilter(test.trailers)
			if filter != test.expected {
				t.Errorf(
					"expected filter\n%s\nbut got\n%s",
					test.expected,
					filter,
				)
			}
		})
	}
}

func TestShellQuote(t *testing.T) {
	quoted := shellQuote("it's")
	if quoted != `'it'\''s'` {
		t.Errorf("got %s", quoted)
	}
}
