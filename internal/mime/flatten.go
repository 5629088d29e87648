package mime

import "strconv"

// FlatPart is one leaf of a flattened MIME tree, indexed by its IMAP
// part number ("1", "1.1", "2", ...).
type FlatPart struct {
	Which string
	Size  int64
	Body  []byte
}

// FlattenMIMEParts walks root's tree and returns its leaf parts in
// order, each labeled with its dotted IMAP part number. A non-multipart
// root is emitted as a single part labeled "TEXT", per RFC 3501's
// convention for unstructured messages.
func FlattenMIMEParts(root *Part) []FlatPart {
	if root == nil {
		return nil
	}
	if !root.IsMultipart() {
		return []FlatPart{{Which: "TEXT", Size: int64(len(root.Body)), Body: root.Body}}
	}
	var out []FlatPart
	flattenInto(root, "", &out)
	return out
}

func flattenInto(p *Part, prefix string, out *[]FlatPart) {
	for i, child := range p.Parts {
		which := strconv.Itoa(i + 1)
		if prefix != "" {
			which = prefix + "." + which
		}
		if child.IsMultipart() {
			flattenInto(&child, which, out)
			continue
		}
		*out = append(*out, FlatPart{Which: which, Size: int64(len(child.Body)), Body: child.Body})
	}
}
