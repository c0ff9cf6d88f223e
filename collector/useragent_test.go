package collector

import "testing"

func TestUAParser(t *testing.T) {
	p := NewUAParser()

	tests := []struct {
		name string
		raw  string
		want UserAgent
	}{
		{
			name: "chrome",
			raw:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
			want: UserAgent{Family: "Chrome", Major: "91", Minor: "0", Patch: "4472"},
		},
		{
			name: "firefox",
			raw:  "Mozilla/5.0 (X11; Linux x86_64; rv:115.0) Gecko/20100101 Firefox/115.0",
			want: UserAgent{Family: "Firefox", Major: "115", Minor: "0"},
		},
		{
			name: "unrecognized",
			raw:  "definitely not a browser",
			want: UserAgent{Family: "Other"},
		},
		{
			name: "empty",
			raw:  "",
			want: UserAgent{Family: "Other"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Parse(tc.raw)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestUAParser_Identity(t *testing.T) {
	p := NewUAParser()

	ua, err := p.Parse("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := ua.String(); got != "Chrome 91.0.4472" {
		t.Errorf("String() = %q, want \"Chrome 91.0.4472\"", got)
	}
}
