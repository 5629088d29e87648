package mime

import (
	"reflect"
	"testing"
)

func TestParseContentType(t *testing.T) {
	typ, subtype, params := ParseContentType(`Text/Plain; charset="UTF-8"; format=flowed`)
	if typ != "text" || subtype != "plain" {
		t.Errorf("type/subtype = %s/%s, want text/plain", typ, subtype)
	}
	want := map[string]string{"charset": "UTF-8", "format": "flowed"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %v, want %v", params, want)
	}
}

func TestParseContentTypeNoSubtype(t *testing.T) {
	typ, subtype, _ := ParseContentType("message")
	if typ != "message" || subtype != "" {
		t.Errorf("type/subtype = %s/%s, want message/", typ, subtype)
	}
}

func TestParseContentTypeNoParams(t *testing.T) {
	typ, subtype, params := ParseContentType("text/html")
	if typ != "text" || subtype != "html" {
		t.Errorf("type/subtype = %s/%s, want text/html", typ, subtype)
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want empty", params)
	}
}

func TestExtractBoundary(t *testing.T) {
	ct := `multipart/mixed; boundary="----=_Part_0_1"`
	boundary, ok := ExtractBoundary(ct)
	if !ok || boundary != "----=_Part_0_1" {
		t.Errorf("boundary = %q, ok=%v, want %q, true", boundary, ok, "----=_Part_0_1")
	}
}

func TestExtractBoundaryMissing(t *testing.T) {
	if _, ok := ExtractBoundary("text/plain"); ok {
		t.Error("expected ok=false for missing boundary")
	}
}

func TestExtractHeaderParamCaseInsensitive(t *testing.T) {
	val, ok := ExtractHeaderParam(`attachment; FILENAME=report.pdf`, "filename")
	if !ok || val != "report.pdf" {
		t.Errorf("filename = %q, ok=%v, want %q, true", val, ok, "report.pdf")
	}
}
