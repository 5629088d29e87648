package respparser

import "testing"

func TestParseLinesFullTranscript(t *testing.T) {
	lines := []string{
		"* 23 EXISTS",
		"* 1 RECENT",
		`* FLAGS (\Seen \Deleted)`,
		`* 23 FETCH (UID 44 FLAGS (\Seen) BODY[HEADER] "Subject: hi\r\n\r\n")`,
		"A001 OK FETCH completed",
	}
	b := ParseLines(lines)
	if b.Tagged == nil || b.Tagged.Status != OK {
		t.Fatalf("Tagged = %+v, want OK", b.Tagged)
	}
	if len(b.Untagged) != 4 {
		t.Fatalf("got %d untagged responses, want 4: %+v", len(b.Untagged), b.Untagged)
	}
	fetch := b.Untagged[3]
	if fetch.Type != "FETCH" || fetch.Fetch.SeqNo != 23 {
		t.Fatalf("untagged[3] = %+v, want FETCH seq 23", fetch)
	}
	header, ok := fetch.Fetch.Attributes["BODY[HEADER]"]
	if !ok {
		t.Fatalf("BODY[HEADER] key missing: %+v", fetch.Fetch.Attributes)
	}
	if header.Text == "" {
		t.Errorf("BODY[HEADER] text empty, want subject line content")
	}
}

func TestParseLinesWithContinuation(t *testing.T) {
	lines := []string{"+ Ready for literal data"}
	b := ParseLines(lines)
	if b.Continuation == nil || *b.Continuation != "Ready for literal data" {
		t.Errorf("Continuation = %v, unexpected", b.Continuation)
	}
}

func TestParseLinesBareContinuation(t *testing.T) {
	lines := []string{"+"}
	b := ParseLines(lines)
	if b.Continuation == nil || *b.Continuation != "" {
		t.Errorf("Continuation = %v, want empty string", b.Continuation)
	}
}
