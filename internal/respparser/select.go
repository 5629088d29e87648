package respparser

import (
	"math/big"
	"strconv"
	"strings"
)

// SelectFold is the result of folding an ordered batch of untagged
// responses produced by SELECT/EXAMINE into mailbox state, per spec
// §4.2's SELECT interpreter.
type SelectFold struct {
	Total          int64
	New            int64
	Flags          []string
	PermanentFlags []string
	UIDValidity    int64
	UIDNext        int64
	Unseen         int64
	HighestModseq  *big.Int
	NoModseq       bool
	ReadOnly       *bool // nil when the tagged OK carried no READ-WRITE/READ-ONLY code
}

// FoldSelect applies one untagged response to a running SelectFold.
func FoldSelect(fold *SelectFold, u Untagged) {
	switch u.Type {
	case "EXISTS":
		fold.Total = u.Number
	case "RECENT":
		fold.New = u.Number
	case "FLAGS":
		fold.Flags = u.Flags
	case "OK":
		applyOKCode(fold, u.Code)
	}
}

// ApplyTaggedCode folds the response code (if any) carried by the
// tagged OK that completes a SELECT/EXAMINE, e.g. "[READ-WRITE] done" —
// the code clients most often need from the tagged line rather than an
// untagged one.
func ApplyTaggedCode(fold *SelectFold, taggedText string) {
	code, _ := extractBracketCode(taggedText)
	applyOKCode(fold, code)
}

func applyOKCode(fold *SelectFold, code string) {
	if code == "" {
		return
	}
	fields := strings.Fields(code)
	if len(fields) == 0 {
		return
	}
	switch strings.ToUpper(fields[0]) {
	case "UIDVALIDITY":
		if len(fields) > 1 {
			if n, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				fold.UIDValidity = n
			}
		}
	case "UIDNEXT":
		if len(fields) > 1 {
			if n, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				fold.UIDNext = n
			}
		}
	case "UNSEEN":
		if len(fields) > 1 {
			if n, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				fold.Unseen = n
			}
		}
	case "HIGHESTMODSEQ":
		if len(fields) > 1 {
			if n, ok := new(big.Int).SetString(fields[1], 10); ok {
				fold.HighestModseq = n
				fold.NoModseq = false
			}
		}
	case "NOMODSEQ":
		fold.HighestModseq = nil
		fold.NoModseq = true
	case "PERMANENTFLAGS":
		inner := strings.TrimPrefix(code, "PERMANENTFLAGS")
		inner = strings.TrimSpace(inner)
		inner = strings.TrimPrefix(inner, "(")
		inner = strings.TrimSuffix(inner, ")")
		if inner != "" {
			fold.PermanentFlags = strings.Fields(inner)
		} else {
			fold.PermanentFlags = []string{}
		}
	case "READ-WRITE":
		ro := false
		fold.ReadOnly = &ro
	case "READ-ONLY":
		ro := true
		fold.ReadOnly = &ro
	}
}
