package protocol

import "github.com/fenilsonani/imapclient/internal/respparser"

// Result is what a completed command resolves to: the tagged outcome
// plus every untagged response that arrived while the command was
// outstanding.
type Result struct {
	Tag      string
	Status   respparser.Status
	Text     string
	Untagged []respparser.Untagged
}

type commandOutcome struct {
	result Result
	err    error
}

// pendingCommand is the engine's bookkeeping for one in-flight tag:
// the command text (for error messages), the untagged accumulator, and
// the channel its outcome is delivered on.
type pendingCommand struct {
	tag         string
	commandText string
	untagged    []respparser.Untagged
	resolve     chan commandOutcome
}
