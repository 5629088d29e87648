package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestMailboxName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"INBOX", false},
		{"Sent Items", false},
		{"", true},
		{"bad\x00name", true},
		{"bad\x7Fname", true},
		{strings.Repeat("a", 1001), true},
		{strings.Repeat("a", 1000), false},
	}
	for _, tt := range tests {
		err := MailboxName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("MailboxName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidMailboxName) {
			t.Errorf("MailboxName(%q) error = %v, want ErrInvalidMailboxName", tt.name, err)
		}
	}
}

func TestSequenceSet(t *testing.T) {
	tests := []struct {
		seqSet  string
		wantErr bool
	}{
		{"1", false},
		{"1:*", false},
		{"4,9,12:20", false},
		{"*", false},
		{"*:1", false},
		{"", true},
		{"  ", true},
		{"abc", true},
		{"1,,2", true},
		{"1:2:3", true},
		{"1:*,5,9:10", false},
	}
	for _, tt := range tests {
		err := SequenceSet(tt.seqSet)
		if (err != nil) != tt.wantErr {
			t.Errorf("SequenceSet(%q) error = %v, wantErr %v", tt.seqSet, err, tt.wantErr)
		}
	}
}

func TestSequenceSetTrimsWhitespace(t *testing.T) {
	if err := SequenceSet("  1:10  "); err != nil {
		t.Errorf("expected whitespace-trimmed sequence set to be valid, got %v", err)
	}
}

func TestTagPrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"A", false},
		{"TAG", false},
		{"a1", false},
		{"", true},
		{"A.B", true},
		{"A B", true},
		{"A*", true},
	}
	for _, tt := range tests {
		err := TagPrefix(tt.prefix)
		if (err != nil) != tt.wantErr {
			t.Errorf("TagPrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
		}
	}
}
