// Package respparser turns IMAP response lines into structured responses.
package respparser

import (
	"math/big"

	"github.com/fenilsonani/imapclient/internal/wire"
)

// Status is the three-way outcome carried by tagged and many untagged
// responses.
type Status string

const (
	OK      Status = "OK"
	NO      Status = "NO"
	BAD     Status = "BAD"
	BYE     Status = "BYE"
	PREAUTH Status = "PREAUTH"
)

// Tagged is a direct reply to one client command.
type Tagged struct {
	Tag    string
	Status Status
	Text   string // verbatim remainder, including any leading [CODE ...]
}

// Untagged is a server push not addressed to any single command.
type Untagged struct {
	Type string // uppercase atom, e.g. EXISTS, FETCH, LIST, CAPABILITY
	Raw  string

	Number        int64          // EXISTS / RECENT / EXPUNGE
	Code          string         // bracket content for OK/NO/BAD/BYE/PREAUTH, without brackets
	Text          string         // trailing human text for OK/NO/BAD/BYE/PREAUTH
	Capabilities  []string       // CAPABILITY
	Flags         []string       // FLAGS
	List          *ListData      // LIST / LSUB
	Search        *SearchData    // SEARCH
	Vanished      *VanishedData  // VANISHED
	Fetch         *FetchData     // FETCH
	Extra         string         // fall-through: everything after the type atom
}

// ListData is the payload of an untagged LIST/LSUB response.
type ListData struct {
	Attributes []string
	Delimiter  *byte // nil when the server sent NIL
	Name       string
}

// SearchData is the payload of an untagged SEARCH response, optionally
// carrying the CONDSTORE (MODSEQ n) trailer.
type SearchData struct {
	UIDs          []uint32
	HighestModseq *big.Int
}

// VanishedData is the payload of a QRESYNC VANISHED response.
type VanishedData struct {
	Earlier bool
	UIDs    []uint32
}

// FetchData is the payload of an untagged FETCH response.
type FetchData struct {
	SeqNo      uint32
	Attributes map[string]AttrValue
}

// AttrValue is a normalized FETCH attribute value: exactly one of the
// fields below is meaningful, selected by Kind.
type AttrValue struct {
	Kind  AttrKind
	Text  string     // Atom/Quoted/raw verbatim text
	List  []string   // parenthesized list of atom/quoted values
	Num   *big.Int   // MODSEQ and other arbitrary-precision numbers
	Raw   *wire.Token // ENVELOPE/BODYSTRUCTURE: the untouched nested token tree
	IsNil bool
}

type AttrKind int

const (
	AttrText AttrKind = iota
	AttrList
	AttrNum
	AttrNil
	// AttrRaw preserves a nested List token verbatim, for attributes
	// whose structure attrValueOf's flattening would destroy (ENVELOPE's
	// address lists, BODYSTRUCTURE's recursive part tree).
	AttrRaw
)
