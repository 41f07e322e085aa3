package emulator

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction selects which way a file transfer moves.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// HostKind names the host file system flavor.
type HostKind string

const (
	HostTSO  HostKind = "tso"
	HostVM   HostKind = "vm"
	HostCICS HostKind = "cics"
)

// TransferMode selects text or binary transfer.
type TransferMode string

const (
	TransferASCII  TransferMode = "ascii"
	TransferBinary TransferMode = "binary"
)

// CrHandling controls carriage-return rewriting for ascii transfers.
type CrHandling string

const (
	CrRemove CrHandling = "remove"
	CrAdd    CrHandling = "add"
	CrKeep   CrHandling = "keep"
)

// Remap controls character-set remapping for ascii transfers.
type Remap string

const (
	RemapYes Remap = "yes"
	RemapNo  Remap = "no"
)

// ExistAction controls what happens when the target file exists.
type ExistAction string

const (
	ExistKeep    ExistAction = "keep"
	ExistReplace ExistAction = "replace"
	ExistAppend  ExistAction = "append"
)

// Recfm names the record format of the host file.
type Recfm string

const (
	RecfmFixed     Recfm = "fixed"
	RecfmVariable  Recfm = "variable"
	RecfmUndefined Recfm = "undefined"
)

// Allocation names the space-allocation unit for tso hosts.
type Allocation string

const (
	AllocationTracks    Allocation = "tracks"
	AllocationCylinders Allocation = "cylinders"
	AllocationAvblock   Allocation = "avblock"
)

type transferOption struct {
	key   string
	value string
}

// FileTransfer accumulates Transfer options and submits them as one
// action. Options keep first-set order on the wire; setting an option
// twice overwrites the value in place. The builder occupies the
// session's builder slot until End or Cancel.
type FileTransfer struct {
	session *Session
	options []transferOption
	ended   bool
	err     error
}

func newFileTransfer(s *Session, localFile, hostFile string) *FileTransfer {
	return &FileTransfer{
		session: s,
		options: []transferOption{
			{key: "HostFile", value: hostFile},
			{key: "LocalFile", value: localFile},
		},
	}
}

// Cancel releases the session's builder slot without transferring.
func (ft *FileTransfer) Cancel() {
	ft.session.cancelBuilder()
	ft.ended = true
}

// LocalFile returns the local file path.
func (ft *FileTransfer) LocalFile() string { return ft.option("LocalFile") }

// HostFile returns the host file name.
func (ft *FileTransfer) HostFile() string { return ft.option("HostFile") }

func (ft *FileTransfer) Direction(d Direction) *FileTransfer {
	return ft.set("Direction", string(d))
}

func (ft *FileTransfer) Host(h HostKind) *FileTransfer {
	return ft.set("Host", string(h))
}

func (ft *FileTransfer) Mode(m TransferMode) *FileTransfer {
	return ft.set("Mode", string(m))
}

func (ft *FileTransfer) Cr(c CrHandling) *FileTransfer {
	return ft.set("Cr", string(c))
}

func (ft *FileTransfer) Remap(r Remap) *FileTransfer {
	return ft.set("Remap", string(r))
}

func (ft *FileTransfer) Exist(e ExistAction) *FileTransfer {
	return ft.set("Exist", string(e))
}

func (ft *FileTransfer) Recfm(r Recfm) *FileTransfer {
	return ft.set("Recfm", string(r))
}

func (ft *FileTransfer) Lrecl(n int64) *FileTransfer {
	return ft.setNonNegative("Lrecl", n)
}

func (ft *FileTransfer) Blksize(n int64) *FileTransfer {
	return ft.setNonNegative("Blksize", n)
}

func (ft *FileTransfer) Allocation(a Allocation) *FileTransfer {
	return ft.set("Allocation", string(a))
}

func (ft *FileTransfer) PrimarySpace(n int64) *FileTransfer {
	return ft.setNonNegative("PrimarySpace", n)
}

func (ft *FileTransfer) SecondarySpace(n int64) *FileTransfer {
	return ft.setNonNegative("SecondarySpace", n)
}

func (ft *FileTransfer) Avblock(n int64) *FileTransfer {
	return ft.setNonNegative("Avblock", n)
}

// BufferSize sets the DFT buffer size, in [256,32768].
func (ft *FileTransfer) BufferSize(n int) *FileTransfer {
	if n < 256 || n > 32768 {
		return ft.fail(fmt.Errorf("invalid BufferSize (must be in [256..32768]): %d", n))
	}
	return ft.set("BufferSize", strconv.Itoa(n))
}

// End validates the accumulated options and performs the transfer.
// Every violated cross-field constraint is reported, not just the
// first.
func (ft *FileTransfer) End() error {
	if ft.ended {
		return fmt.Errorf("file transfer already ended: %s", ft)
	}
	if ft.err != nil {
		return ft.err
	}
	if err := ft.checkOptions(); err != nil {
		return err
	}
	action := ft.String()
	if err := ft.session.finishTransfer(action); err != nil {
		return err
	}
	ft.ended = true
	return nil
}

// String renders the Transfer action in option order. Values holding
// spaces, commas, or closing parentheses are quoted together with
// their key.
func (ft *FileTransfer) String() string {
	var sb strings.Builder
	sb.WriteString("Transfer")
	sep := byte('(')
	for _, o := range ft.options {
		sb.WriteByte(sep)
		if strings.ContainsAny(o.value, " ,)") {
			sb.WriteByte('"')
			sb.WriteString(o.key)
			sb.WriteByte('=')
			sb.WriteString(o.value)
			sb.WriteByte('"')
		} else {
			sb.WriteString(o.key)
			sb.WriteByte('=')
			sb.WriteString(o.value)
		}
		sep = ','
	}
	sb.WriteByte(')')
	return sb.String()
}

func (ft *FileTransfer) checkOptions() error {
	mode := TransferMode(ft.optionOr("Mode", string(TransferASCII)))
	host := HostKind(ft.optionOr("Host", string(HostTSO)))
	recfm := Recfm(ft.option("Recfm"))
	allocation := Allocation(ft.option("Allocation"))
	hasRecfm := recfm != ""
	hasAllocation := allocation != ""
	hasPrimary := ft.has("PrimarySpace")
	hasSecondary := ft.has("SecondarySpace")

	c := &checker{}
	c.check(!ft.has("Cr") || mode == TransferASCII,
		"Cr can only be specified for ascii Mode")
	c.check(!ft.has("Remap") || mode == TransferASCII,
		"Remap can only be specified for ascii Mode")
	c.check(!hasRecfm || host == HostTSO || host == HostVM,
		"Recfm can only be specified for tso or vm Host")
	c.check(recfm != RecfmUndefined || host == HostTSO,
		"Undefined Recfm can only be specified for tso Host")
	c.check(!ft.has("Lrecl") || hasRecfm,
		"Lrecl can only be specified if Recfm is specified")
	c.check(!ft.has("Lrecl") || recfm == RecfmFixed || recfm == RecfmVariable,
		"Lrecl can only be specified for fixed or variable Recfm")
	c.check(!ft.has("Blksize") || host == HostTSO || host == HostVM,
		"Blksize can only be specified for tso or vm Host")
	c.check(!hasAllocation || host == HostTSO,
		"Allocation can only be specified for tso Host")
	c.check(!hasPrimary || host == HostTSO,
		"PrimarySpace can only be specified for tso Host")
	c.check(!hasSecondary || host == HostTSO,
		"SecondarySpace can only be specified for tso Host")
	c.check(hasAllocation == hasPrimary,
		"Both or neither of Allocation and PrimarySpace must be specified")
	c.check(!hasSecondary || hasAllocation,
		"SecondarySpace can only be specified if Allocation is specified")
	c.check((allocation == AllocationAvblock) == ft.has("Avblock"),
		"Both or neither of avblock Allocation and Avblock must be specified")
	c.check(!ft.has("Avblock") || host == HostTSO,
		"Avblock can only be specified for tso Host")
	return c.verify(ft.String())
}

func (ft *FileTransfer) set(key, value string) *FileTransfer {
	for i := range ft.options {
		if ft.options[i].key == key {
			ft.options[i].value = value
			return ft
		}
	}
	ft.options = append(ft.options, transferOption{key: key, value: value})
	return ft
}

func (ft *FileTransfer) setNonNegative(key string, n int64) *FileTransfer {
	if n < 0 {
		return ft.fail(fmt.Errorf("%s must not be negative: %d", key, n))
	}
	return ft.set(key, strconv.FormatInt(n, 10))
}

// fail records the first setter error; End reports it instead of
// sending anything.
func (ft *FileTransfer) fail(err error) *FileTransfer {
	if ft.err == nil {
		ft.err = err
	}
	return ft
}

func (ft *FileTransfer) has(key string) bool {
	return ft.option(key) != ""
}

func (ft *FileTransfer) option(key string) string {
	for _, o := range ft.options {
		if o.key == key {
			return o.value
		}
	}
	return ""
}

func (ft *FileTransfer) optionOr(key, fallback string) string {
	if v := ft.option(key); v != "" {
		return v
	}
	return fallback
}

// checker collects constraint violations so they surface together.
type checker struct {
	violations []string
}

func (c *checker) check(ok bool, message string) {
	if !ok {
		c.violations = append(c.violations, message)
	}
}

func (c *checker) verify(subject string) error {
	if len(c.violations) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s:\n\t%s", subject, strings.Join(c.violations, "\n\t"))
}
