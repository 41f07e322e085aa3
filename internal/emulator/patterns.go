package emulator

import "regexp"

// Argument grammars accepted by the typed action surface. Host and
// hostport follow the RFC 2396 host productions; the text pattern is
// the emulator's printable subset plus its escape forms.
const (
	domainLabel = `[a-zA-Z0-9]|(?:[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])`
	topLabel    = `[a-zA-Z]|(?:[a-zA-Z][a-zA-Z0-9\-]*[a-zA-Z0-9])`
	hostname    = `(?:(?:` + domainLabel + `)\.)*(?:` + topLabel + `)(?:\.?)`
	ipv4        = `[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`
	hostExpr    = `(?:` + hostname + `)|(?:` + ipv4 + `)`
	portExpr    = `[0-9]{1,5}`
)

var (
	hostPattern     = regexp.MustCompile(`^(?:` + hostExpr + `)$`)
	hostportPattern = regexp.MustCompile(`^(` + hostExpr + `)(?:[:](` + portExpr + `))?$`)
	hexPattern      = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	keyPattern      = regexp.MustCompile(`^(?:(?:(?:[a-zA-Z][a-zA-Z_]*)?[a-zA-Z])|(?:0[0-9]{2,3}))$`)
	textPattern     = regexp.MustCompile(`^(?:[ -Z\[\]^-~]|(?:\\[bfnrtT])|(?:\\pa[0-9])|(?:\\pf[0-9]{2})|(?:\\[eux](?:[0-9a-fA-F]{2}|[0-9a-fA-F]{4})))*$`)
	hostFilePattern = regexp.MustCompile(`^[ !#-~]+$`)
	execTimePattern = regexp.MustCompile(`^(?:0|[1-9][0-9]*)(?:\.[0-9]{1,3})?$`)
)
