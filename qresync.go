package imap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fenilsonani/imapclient/internal/respparser"
)

// SequenceMatch is the RFC 7162 seq-match-data pair: a sequence-set of
// message sequence numbers the client remembers, paired positionally
// with the UIDs it believes they map to.
type SequenceMatch struct {
	KnownSequenceSet string
	KnownUIDSet      string
}

// QresyncParams carries the client's cached mailbox state used to
// request CONDSTORE/QRESYNC backfill on SELECT/EXAMINE (RFC 7162 §3.2.5).
type QresyncParams struct {
	UIDValidity     int64
	LastKnownModseq int64
	KnownUIDs       string // optional sequence-set of previously known UIDs
	SequenceMatch   *SequenceMatch
}

func (p QresyncParams) render() string {
	s := strconv.FormatInt(p.UIDValidity, 10) + " " + strconv.FormatInt(p.LastKnownModseq, 10)
	if p.KnownUIDs != "" {
		s += " " + p.KnownUIDs
		if p.SequenceMatch != nil {
			s += fmt.Sprintf(" (%s %s)", p.SequenceMatch.KnownSequenceSet, p.SequenceMatch.KnownUIDSet)
		}
	}
	return s
}

// QresyncResult is returned by OpenBoxWithQresync: the folded mailbox
// plus every VANISHED UID reported during the SELECT/EXAMINE batch.
type QresyncResult struct {
	Mailbox        *Mailbox
	Vanished       []uint32
	VanishedEarlier bool
}

func collectVanished(untagged []respparser.Untagged) (uids []uint32, earlier bool) {
	for _, u := range untagged {
		if u.Type != "VANISHED" || u.Vanished == nil {
			continue
		}
		uids = append(uids, u.Vanished.UIDs...)
		if u.Vanished.Earlier {
			earlier = true
		}
	}
	return uids, earlier
}

func parseCapabilityFields(code string) []string {
	if !strings.HasPrefix(strings.ToUpper(code), "CAPABILITY") {
		return nil
	}
	fields := strings.Fields(code)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
