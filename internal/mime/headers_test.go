package mime

import "testing"

func TestUnfoldHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no folding", "Subject: hello\r\nFrom: a@b.com", "Subject: hello\r\nFrom: a@b.com"},
		{"crlf fold", "Subject: hello\r\n world\r\nFrom: a@b.com", "Subject: hello world\r\nFrom: a@b.com"},
		{"lf fold", "Subject: hello\n world", "Subject: hello world"},
		{"tab fold", "Subject: hello\r\n\tworld", "Subject: hello world"},
		{"multiple fold spaces collapsed to one", "Subject: hello\r\n   world", "Subject: hello world"},
		{"bare newline not followed by space stays", "Subject: hello\r\nFrom: a", "Subject: hello\r\nFrom: a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnfoldHeaders(tt.input); got != tt.want {
				t.Errorf("UnfoldHeaders(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	block := "Subject: hello world\r\nFrom: a@b.com\r\nX-Dup: one\r\nX-Dup: two\r\n"
	headers := ParseHeaders(block)

	if got := HeaderValue(headers, "subject"); got != "hello world" {
		t.Errorf("Subject = %q, want %q", got, "hello world")
	}
	if got := HeaderValue(headers, "From"); got != "a@b.com" {
		t.Errorf("From = %q, want %q", got, "a@b.com")
	}
	if vals := headers["x-dup"]; len(vals) != 2 || vals[0] != "one" || vals[1] != "two" {
		t.Errorf("X-Dup = %v, want [one two]", vals)
	}
	if got := HeaderValue(headers, "missing"); got != "" {
		t.Errorf("missing header = %q, want empty", got)
	}
}

func TestParseHeadersDecodesEncodedWords(t *testing.T) {
	block := "Subject: =?UTF-8?B?aGVsbG8=?=\r\n"
	headers := ParseHeaders(block)
	if got := HeaderValue(headers, "subject"); got != "hello" {
		t.Errorf("Subject = %q, want %q", got, "hello")
	}
}

func TestParseHeadersSkipsMalformedLines(t *testing.T) {
	block := "Subject: hello\r\nnotaheader\r\nFrom: a@b.com\r\n"
	headers := ParseHeaders(block)
	if got := HeaderValue(headers, "subject"); got != "hello" {
		t.Errorf("Subject = %q, want %q", got, "hello")
	}
	if got := HeaderValue(headers, "from"); got != "a@b.com" {
		t.Errorf("From = %q, want %q", got, "a@b.com")
	}
}
