package respparser

import (
	"math/big"
	"strings"

	"github.com/fenilsonani/imapclient/internal/wire"
)

// parseFetch interprets the "(key value key value ...)" body of an
// untagged "N FETCH (...)" response per spec §4.2's FETCH attribute
// interpreter.
func parseFetch(seqno uint32, body string) *FetchData {
	toks, _ := wire.Tokenize(body)
	data := &FetchData{SeqNo: seqno, Attributes: map[string]AttrValue{}}
	if len(toks) == 0 || toks[0].Kind != wire.List {
		return data
	}
	items := toks[0].Items
	for i := 0; i+1 < len(items); i += 2 {
		key := strings.ToUpper(items[i].String())
		data.Attributes[key] = attrValueOf(key, items[i+1])
	}
	return data
}

func attrValueOf(key string, tok wire.Token) AttrValue {
	if key == "ENVELOPE" || key == "BODYSTRUCTURE" {
		if tok.Kind == wire.Nil {
			return AttrValue{Kind: AttrNil, IsNil: true}
		}
		t := tok
		return AttrValue{Kind: AttrRaw, Raw: &t}
	}
	switch tok.Kind {
	case wire.Nil:
		return AttrValue{Kind: AttrNil, IsNil: true}
	case wire.List:
		list := make([]string, 0, len(tok.Items))
		for _, it := range tok.Items {
			list = append(list, it.String())
		}
		if key == "MODSEQ" && len(list) == 1 {
			if n, ok := new(big.Int).SetString(list[0], 10); ok {
				return AttrValue{Kind: AttrNum, Num: n}
			}
		}
		return AttrValue{Kind: AttrList, List: list}
	default:
		if key == "MODSEQ" {
			if n, ok := new(big.Int).SetString(tok.Text, 10); ok {
				return AttrValue{Kind: AttrNum, Num: n}
			}
		}
		return AttrValue{Kind: AttrText, Text: tok.Text}
	}
}
