package command

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-sasl"
)

// Login builds "LOGIN user pass".
func Login(user, pass string) string {
	return "LOGIN " + QuoteString(user) + " " + QuoteString(pass)
}

// XOAuth2InitialResponse builds the base64 SASL initial response for
// XOAUTH2 via go-sasl's client, per RFC 7628: base64 of
// "user=<u>\x01auth=Bearer <token>\x01\x01".
func XOAuth2InitialResponse(user, accessToken string) (string, error) {
	client := sasl.NewXoauth2Client(user, accessToken)
	_, ir, err := client.Start()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ir), nil
}

// AuthenticateXOAuth2 builds "AUTHENTICATE XOAUTH2 <payload>".
func AuthenticateXOAuth2(user, accessToken string) (string, error) {
	payload, err := XOAuth2InitialResponse(user, accessToken)
	if err != nil {
		return "", err
	}
	return "AUTHENTICATE XOAUTH2 " + payload, nil
}

// XOAuth2ContinuationDiagnostic decodes a server continuation's base64
// body into the human-readable diagnostic text go-sasl extracts from the
// {"status":"..."} JSON the server sends when it rejects the credential.
func XOAuth2ContinuationDiagnostic(user, accessToken, base64Body string) string {
	raw, err := base64.StdEncoding.DecodeString(base64Body)
	if err != nil {
		return base64Body
	}
	client := sasl.NewXoauth2Client(user, accessToken)
	_, err = client.Next(raw)
	if err != nil {
		return err.Error()
	}
	return string(raw)
}

func Logout() string      { return "LOGOUT" }
func Noop() string        { return "NOOP" }
func Capability() string  { return "CAPABILITY" }
func Expunge() string     { return "EXPUNGE" }
func Close() string       { return "CLOSE" }
func Unselect() string    { return "UNSELECT" }

// List builds "LIST ref pattern".
func List(ref, pattern string) string {
	return "LIST " + QuoteString(ref) + " " + QuoteString(pattern)
}

// Lsub builds "LSUB ref pattern".
func Lsub(ref, pattern string) string {
	return "LSUB " + QuoteString(ref) + " " + QuoteString(pattern)
}

// Select builds "SELECT mbox" or, with qresync set, the RFC 7162 QRESYNC
// variant.
func Select(mbox string, qresync string) string {
	if qresync == "" {
		return "SELECT " + QuoteString(mbox)
	}
	return "SELECT " + QuoteString(mbox) + " (QRESYNC (" + qresync + "))"
}

// Examine is Select's read-only counterpart.
func Examine(mbox string, qresync string) string {
	if qresync == "" {
		return "EXAMINE " + QuoteString(mbox)
	}
	return "EXAMINE " + QuoteString(mbox) + " (QRESYNC (" + qresync + "))"
}

func Create(mbox string) string { return "CREATE " + QuoteString(mbox) }
func Delete(mbox string) string { return "DELETE " + QuoteString(mbox) }
func Rename(oldName, newName string) string {
	return "RENAME " + QuoteString(oldName) + " " + QuoteString(newName)
}
func Status(mbox string, items []string) string {
	return "STATUS " + QuoteString(mbox) + " (" + strings.Join(items, " ") + ")"
}

// Store builds "STORE seq +FLAGS (...)" / "-FLAGS" depending on add.
func Store(seq string, add bool, flags []string) string {
	sign := "+FLAGS"
	if !add {
		sign = "-FLAGS"
	}
	return "STORE " + seq + " " + sign + " (" + strings.Join(flags, " ") + ")"
}

// Copy builds "COPY seq mbox".
func Copy(seq, mbox string) string {
	return "COPY " + seq + " " + QuoteString(mbox)
}

// WithUID prefixes a sequence/UID-addressed command with "UID " as
// required for every SEARCH/FETCH/STORE/COPY issued by the session
// facade (spec invariant 5, testable property 10).
func WithUID(cmd string) string {
	return "UID " + cmd
}
