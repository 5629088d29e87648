package respparser

import "testing"

func TestFoldSelectFullSequence(t *testing.T) {
	var fold SelectFold
	lines := []string{
		"* 172 EXISTS",
		"* 1 RECENT",
		`* FLAGS (\Answered \Flagged \Deleted \Seen \Draft)`,
		"* OK [UIDVALIDITY 3857529045] UIDs valid",
		"* OK [UIDNEXT 4392] Predicted next UID",
		"* OK [UNSEEN 12] Message 12 is first unseen",
		`* OK [PERMANENTFLAGS (\Deleted \Seen \*)] Limited`,
		"* OK [HIGHESTMODSEQ 90210] Highest",
	}
	for _, line := range lines {
		u := ParseUntagged(line[2:])
		FoldSelect(&fold, u)
	}
	ApplyTaggedCode(&fold, "[READ-WRITE] SELECT completed")

	if fold.Total != 172 || fold.New != 1 {
		t.Errorf("Total/New = %d/%d, want 172/1", fold.Total, fold.New)
	}
	if len(fold.Flags) != 5 {
		t.Errorf("Flags = %+v, want 5 entries", fold.Flags)
	}
	if fold.UIDValidity != 3857529045 {
		t.Errorf("UIDValidity = %d, want 3857529045", fold.UIDValidity)
	}
	if fold.UIDNext != 4392 {
		t.Errorf("UIDNext = %d, want 4392", fold.UIDNext)
	}
	if fold.Unseen != 12 {
		t.Errorf("Unseen = %d, want 12", fold.Unseen)
	}
	if len(fold.PermanentFlags) != 3 {
		t.Errorf("PermanentFlags = %+v, want 3 entries", fold.PermanentFlags)
	}
	if fold.HighestModseq == nil || fold.HighestModseq.String() != "90210" {
		t.Errorf("HighestModseq = %v, want 90210", fold.HighestModseq)
	}
	if fold.ReadOnly == nil || *fold.ReadOnly {
		t.Errorf("ReadOnly = %v, want false (READ-WRITE)", fold.ReadOnly)
	}
}

func TestFoldSelectNoModseq(t *testing.T) {
	var fold SelectFold
	fold.HighestModseq = nil
	u := ParseUntagged("OK [NOMODSEQ] no mod-sequences")
	FoldSelect(&fold, u)
	if !fold.NoModseq || fold.HighestModseq != nil {
		t.Errorf("fold = %+v, want NoModseq=true", fold)
	}
}

func TestApplyTaggedCodeReadOnly(t *testing.T) {
	var fold SelectFold
	ApplyTaggedCode(&fold, "[READ-ONLY] EXAMINE completed")
	if fold.ReadOnly == nil || !*fold.ReadOnly {
		t.Errorf("ReadOnly = %v, want true", fold.ReadOnly)
	}
}

func TestApplyTaggedCodeNoCodeLeavesReadOnlyNil(t *testing.T) {
	var fold SelectFold
	ApplyTaggedCode(&fold, "SELECT completed")
	if fold.ReadOnly != nil {
		t.Errorf("ReadOnly = %v, want nil", fold.ReadOnly)
	}
}

func TestFoldSelectEmptyPermanentFlags(t *testing.T) {
	var fold SelectFold
	u := ParseUntagged("OK [PERMANENTFLAGS ()] no permanent flags")
	FoldSelect(&fold, u)
	if fold.PermanentFlags == nil || len(fold.PermanentFlags) != 0 {
		t.Errorf("PermanentFlags = %+v, want empty non-nil slice", fold.PermanentFlags)
	}
}
