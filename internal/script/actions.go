package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user/go3270/internal/emulator"
)

// Action describes one catalogue entry: the canonical name, its
// timeout class, whether it is gated behind Unsafe mode, and the
// dispatch function mapping a parsed Call onto the typed session
// surface.
type Action struct {
	Name     string
	Blocking bool
	Unsafe   bool
	Run      func(s *emulator.Session, c Call) ([]string, error)
}

// Named resolves an action name case-insensitively.
func Named(name string) (*Action, error) {
	for i := range catalogue {
		if strings.EqualFold(catalogue[i].Name, name) {
			return &catalogue[i], nil
		}
	}
	return nil, fmt.Errorf("no action named %q", name)
}

// All returns the catalogue in declaration order.
func All() []Action {
	return append([]Action(nil), catalogue...)
}

var catalogue = buildCatalogue()

// buildCatalogue merges the keystroke/navigation partition with the
// script-specific partition. A handful of names appear in both; the
// first declaration wins and the later duplicate is dropped.
func buildCatalogue() []Action {
	var out []Action
	seen := map[string]bool{}
	for _, a := range append(basicActions(), scriptActions()...) {
		key := strings.ToLower(a.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func want(c Call, n int) error {
	if c.Len() != n {
		noun := "arguments"
		if n == 1 {
			noun = "argument"
		}
		return fmt.Errorf("invalid %s: expected %d %s", c, n, noun)
	}
	return nil
}

func ints(c Call, from int) ([]int, error) {
	out := make([]int, 0, c.Len()-from)
	for i := from; i < c.Len(); i++ {
		n, err := c.Int(i)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// plain wraps a no-argument session method.
func plain(name string, blocking bool, f func(*emulator.Session) error) Action {
	return Action{
		Name:     name,
		Blocking: blocking,
		Run: func(s *emulator.Session, c Call) ([]string, error) {
			if err := want(c, 0); err != nil {
				return nil, err
			}
			if err := f(s); err != nil {
				return nil, err
			}
			return s.Data(), nil
		},
	}
}

func basicActions() []Action {
	return []Action{
		plain("Attn", true, (*emulator.Session).Attn),
		plain("BackSpace", false, (*emulator.Session).BackSpace),
		plain("BackTab", false, (*emulator.Session).BackTab),
		plain("CircumNot", false, (*emulator.Session).CircumNot),
		plain("Clear", false, (*emulator.Session).Clear),
		{
			Name:     "Connect",
			Blocking: true,
			Run:      runConnect,
		},
		plain("CursorSelect", true, (*emulator.Session).CursorSelect),
		plain("Delete", false, (*emulator.Session).Delete),
		plain("DeleteField", false, (*emulator.Session).DeleteField),
		plain("DeleteWord", false, (*emulator.Session).DeleteWord),
		{
			Name:     "Disconnect",
			Blocking: true,
			Run:      runDisconnect,
		},
		plain("Down", false, (*emulator.Session).Down),
		plain("Dup", false, (*emulator.Session).Dup),
		plain("Enter", true, (*emulator.Session).Enter),
		plain("Erase", false, (*emulator.Session).Erase),
		plain("EraseEOF", false, (*emulator.Session).EraseEOF),
		plain("EraseInput", false, (*emulator.Session).EraseInput),
		{
			Name:   "Execute",
			Unsafe: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				if _, err := s.Execute(c.Get(0)); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("FieldEnd", false, (*emulator.Session).FieldEnd),
		plain("FieldMark", false, (*emulator.Session).FieldMark),
		{
			Name: "HexString",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				if err := s.HexString(c.Get(0)); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("Home", false, (*emulator.Session).Home),
		plain("Insert", false, (*emulator.Session).Insert),
		plain("Interrupt", true, (*emulator.Session).Interrupt),
		{
			Name: "Key",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				if err := s.Key(c.Get(0)); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("Left", false, (*emulator.Session).Left),
		plain("Left2", false, (*emulator.Session).Left2),
		plain("MonoCase", false, (*emulator.Session).MonoCase),
		{
			Name: "MoveCursor",
			Run:  runMoveCursor,
		},
		plain("NewLine", false, (*emulator.Session).NewLine),
		plain("NextWord", false, (*emulator.Session).NextWord),
		{
			Name:     "PA",
			Blocking: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				n, err := c.Int(0)
				if err != nil {
					return nil, err
				}
				if err := s.PA(n); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		{
			Name:     "PF",
			Blocking: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				n, err := c.Int(0)
				if err != nil {
					return nil, err
				}
				if err := s.PF(n); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("PreviousWord", false, (*emulator.Session).PreviousWord),
		{
			Name: "PrintText",
			Run:  runPrintText,
		},
		plain("Quit", false, (*emulator.Session).Quit),
		plain("Redraw", false, (*emulator.Session).Redraw),
		plain("Reset", false, (*emulator.Session).Reset),
		plain("Right", false, (*emulator.Session).Right),
		plain("Right2", false, (*emulator.Session).Right2),
		{
			Name:   "Script",
			Unsafe: true,
			Run:    runScript,
		},
		{
			Name:     "String",
			Blocking: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := s.String(c.Args()...); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("SysReq", true, (*emulator.Session).SysReq),
		plain("Tab", false, (*emulator.Session).Tab),
		{
			Name: "Toggle",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if c.Len() != 1 && c.Len() != 2 {
					return nil, fmt.Errorf("invalid %s: expected 1 or 2 arguments", c)
				}
				option, err := emulator.ToggleOptionNamed(c.Get(0))
				if err != nil {
					return nil, err
				}
				if c.Len() == 1 {
					if err := s.Toggle(option); err != nil {
						return nil, err
					}
					return s.Data(), nil
				}
				mode, err := emulator.ToggleModeNamed(c.Get(1))
				if err != nil {
					return nil, err
				}
				if err := s.Toggle(option, mode); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		plain("ToggleInsert", false, (*emulator.Session).ToggleInsert),
		plain("ToggleReverse", false, (*emulator.Session).ToggleReverse),
		{
			Name:     "Transfer",
			Blocking: true,
			Run:      runTransfer,
		},
		plain("Up", false, (*emulator.Session).Up),
	}
}

func scriptActions() []Action {
	return []Action{
		{
			Name: "AnsiText",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 0); err != nil {
					return nil, err
				}
				return s.AnsiText()
			},
		},
		{
			Name: "Ascii",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				coords, err := ints(c, 0)
				if err != nil {
					return nil, err
				}
				return s.Ascii(coords...)
			},
		},
		{
			Name: "AsciiField",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 0); err != nil {
					return nil, err
				}
				line, err := s.AsciiField()
				if err != nil {
					return nil, err
				}
				return []string{line}, nil
			},
		},
		{
			Name:     "Connect",
			Blocking: true,
			Run:      runConnect,
		},
		{
			Name: "CloseScript",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				status, err := c.Int(0)
				if err != nil {
					return nil, err
				}
				if err := s.CloseScript(status); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		{
			Name: "ContinueScript",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if c.Len() > 1 {
					return nil, fmt.Errorf("invalid %s: expected at most 1 argument", c)
				}
				if err := s.ContinueScript(c.Args()...); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		{
			Name:     "Disconnect",
			Blocking: true,
			Run:      runDisconnect,
		},
		{
			Name: "Ebcdic",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				coords, err := ints(c, 0)
				if err != nil {
					return nil, err
				}
				return s.Ebcdic(coords...)
			},
		},
		{
			Name: "EbcdicField",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 0); err != nil {
					return nil, err
				}
				line, err := s.EbcdicField()
				if err != nil {
					return nil, err
				}
				return []string{line}, nil
			},
		},
		{
			Name: "Info",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				if err := s.Info(c.Get(0)); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		{
			Name: "Expect",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				switch c.Len() {
				case 1:
					if err := s.Expect(c.Get(0)); err != nil {
						return nil, err
					}
				case 2:
					timeout, err := c.Int(1)
					if err != nil {
						return nil, err
					}
					if err := s.Expect(c.Get(0), timeout); err != nil {
						return nil, err
					}
				default:
					return nil, fmt.Errorf("invalid %s: expected 1 or 2 arguments", c)
				}
				return s.Data(), nil
			},
		},
		{
			Name: "MoveCursor",
			Run:  runMoveCursor,
		},
		{
			Name:     "PauseScript",
			Blocking: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				var line string
				var err error
				switch c.Len() {
				case 0:
					line, err = s.PauseScript()
				case 1:
					var secs int
					if secs, err = c.Int(0); err != nil {
						return nil, err
					}
					line, err = s.PauseScriptFor(time.Duration(secs) * time.Second)
				default:
					return nil, fmt.Errorf("invalid %s: expected at most 1 argument", c)
				}
				if err != nil {
					return nil, err
				}
				return []string{line}, nil
			},
		},
		{
			Name: "PrintText",
			Run:  runPrintText,
		},
		{
			Name: "Query",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				switch c.Len() {
				case 0:
					return s.Query()
				case 1:
					keyword, err := emulator.QueryKeywordNamed(c.Get(0))
					if err != nil {
						return nil, err
					}
					line, err := s.QueryOne(keyword)
					if err != nil {
						return nil, err
					}
					return []string{line}, nil
				default:
					return nil, fmt.Errorf("invalid %s: expected at most 1 argument", c)
				}
			},
		},
		{
			Name: "ReadBuffer",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				mode, err := emulator.ReadBufferModeNamed(c.Get(0))
				if err != nil {
					return nil, err
				}
				return s.ReadBuffer(mode)
			},
		},
		{
			Name:   "Script",
			Unsafe: true,
			Run:    runScript,
		},
		{
			Name: "Snap",
			Run:  runSnap,
		},
		{
			Name:   "Source",
			Unsafe: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				return s.Source(c.Get(0))
			},
		},
		{
			Name: "Title",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				if err := s.Title(c.Get(0)); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
		{
			Name:     "Transfer",
			Blocking: true,
			Run:      runTransfer,
		},
		{
			Name:     "Wait",
			Blocking: true,
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				switch c.Len() {
				case 1:
					mode, err := emulator.WaitModeNamed(c.Get(0))
					if err != nil {
						return nil, err
					}
					if err := s.Wait(mode); err != nil {
						return nil, err
					}
				case 2:
					secs, err := c.Int(0)
					if err != nil {
						return nil, err
					}
					mode, err := emulator.WaitModeNamed(c.Get(1))
					if err != nil {
						return nil, err
					}
					if err := s.WaitFor(time.Duration(secs)*time.Second, mode); err != nil {
						return nil, err
					}
				default:
					return nil, fmt.Errorf("invalid %s: expected 1 or 2 arguments", c)
				}
				return s.Data(), nil
			},
		},
		{
			Name: "WindowState",
			Run: func(s *emulator.Session, c Call) ([]string, error) {
				if err := want(c, 1); err != nil {
					return nil, err
				}
				mode, err := emulator.WindowModeNamed(c.Get(0))
				if err != nil {
					return nil, err
				}
				if err := s.WindowState(mode); err != nil {
					return nil, err
				}
				return s.Data(), nil
			},
		},
	}
}

// Run functions shared by both partitions: these names are declared
// in each and must dispatch identically no matter which entry wins.

func runConnect(s *emulator.Session, c Call) ([]string, error) {
	if err := want(c, 1); err != nil {
		return nil, err
	}
	if err := s.Connect(c.Get(0)); err != nil {
		return nil, err
	}
	return s.Data(), nil
}

func runDisconnect(s *emulator.Session, c Call) ([]string, error) {
	if err := want(c, 0); err != nil {
		return nil, err
	}
	if err := s.Disconnect(); err != nil {
		return nil, err
	}
	return s.Data(), nil
}

func runMoveCursor(s *emulator.Session, c Call) ([]string, error) {
	if err := want(c, 2); err != nil {
		return nil, err
	}
	row, err := c.Int(0)
	if err != nil {
		return nil, err
	}
	col, err := c.Int(1)
	if err != nil {
		return nil, err
	}
	if err := s.MoveCursor(row, col); err != nil {
		return nil, err
	}
	return s.Data(), nil
}

func runScript(s *emulator.Session, c Call) ([]string, error) {
	if c.Len() < 1 {
		return nil, fmt.Errorf("invalid %s: expected a command", c)
	}
	if _, err := s.Script(c.Get(0), c.Args()[1:]...); err != nil {
		return nil, err
	}
	return s.Data(), nil
}

// runPrintText interprets the PrintText option list. A single bare
// argument is treated as a print command, which keeps the whole action
// behind the Unsafe gate inside the session.
func runPrintText(s *emulator.Session, c Call) ([]string, error) {
	var (
		modi    bool
		caption string
		hasCap  bool
		label   string
		value   string
	)
	for i := 0; i < c.Len(); i++ {
		arg := c.Get(i)
		switch {
		case strings.EqualFold(arg, "modi"):
			if modi {
				return nil, fmt.Errorf("invalid %s: duplicate modi", c)
			}
			modi = true
		case strings.EqualFold(arg, "caption"):
			if hasCap || i+1 >= c.Len() {
				return nil, fmt.Errorf("invalid %s", c)
			}
			i++
			caption = c.Get(i)
			hasCap = true
		case strings.EqualFold(arg, "rtf"),
			strings.EqualFold(arg, "file"),
			strings.EqualFold(arg, "html"),
			strings.EqualFold(arg, "string"),
			strings.EqualFold(arg, "command"):
			if label != "" || i+1 >= c.Len() {
				return nil, fmt.Errorf("invalid %s", c)
			}
			label = strings.ToLower(arg)
			i++
			value = c.Get(i)
		case i == 0 && c.Len() == 1:
			label = "command"
			value = arg
		default:
			return nil, fmt.Errorf("invalid %s", c)
		}
	}
	if label == "" {
		return nil, fmt.Errorf("invalid %s: no output target", c)
	}

	pt := s.PrintText()
	if modi {
		pt.Modi()
	}
	if hasCap {
		pt.Caption(caption)
	}
	var err error
	switch label {
	case "command":
		err = pt.Command(value)
	case "rtf":
		err = pt.RTF(value)
	case "html":
		err = pt.HTML(value)
	default: // file, string
		err = pt.File(value)
	}
	if err != nil {
		pt.Cancel()
		return nil, err
	}
	return s.Data(), nil
}

var transferOptionNames = []string{
	"Direction", "HostFile", "LocalFile", "Host", "Mode", "Cr", "Remap",
	"Exist", "Recfm", "Lrecl", "Blksize", "Allocation", "PrimarySpace",
	"SecondarySpace", "Avblock", "BufferSize",
}

// runTransfer turns key=value arguments into a FileTransfer and
// submits it.
func runTransfer(s *emulator.Session, c Call) ([]string, error) {
	type pair struct{ key, value string }
	var pairs []pair
	for i := 0; i < c.Len(); i++ {
		arg := c.Get(i)
		eq := strings.IndexByte(arg, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("invalid transfer argument %d: %q", i, arg)
		}
		name := strings.TrimSpace(arg[:eq])
		value := strings.TrimSpace(arg[eq+1:])
		key, err := transferOptionName(name)
		if err != nil {
			return nil, err
		}
		replaced := false
		for j := range pairs {
			if pairs[j].key == key {
				pairs[j].value = value
				replaced = true
				break
			}
		}
		if !replaced {
			pairs = append(pairs, pair{key: key, value: value})
		}
	}

	var localFile, hostFile string
	for _, p := range pairs {
		switch p.key {
		case "LocalFile":
			localFile = p.value
		case "HostFile":
			hostFile = p.value
		}
	}
	if localFile == "" {
		return nil, fmt.Errorf("invalid %s: missing LocalFile", c)
	}
	if hostFile == "" {
		return nil, fmt.Errorf("invalid %s: missing HostFile", c)
	}

	ft, err := s.Transfer(localFile, hostFile)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if err := applyTransferOption(ft, p.key, p.value); err != nil {
			ft.Cancel()
			return nil, err
		}
	}
	if err := ft.End(); err != nil {
		ft.Cancel()
		return nil, err
	}
	return s.Data(), nil
}

func transferOptionName(name string) (string, error) {
	for _, known := range transferOptionNames {
		if strings.EqualFold(known, name) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown transfer option: %q", name)
}

func applyTransferOption(ft *emulator.FileTransfer, key, value string) error {
	bad := func() error {
		return fmt.Errorf("invalid %s: %q", key, value)
	}
	parseInt64 := func() (int64, error) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, bad()
		}
		return n, nil
	}
	switch key {
	case "HostFile", "LocalFile":
		// Consumed when the builder is opened.
	case "Direction":
		d, err := lookupValue(value, emulator.DirectionSend, emulator.DirectionReceive)
		if err != nil {
			return err
		}
		ft.Direction(d)
	case "Host":
		h, err := lookupValue(value, emulator.HostTSO, emulator.HostVM, emulator.HostCICS)
		if err != nil {
			return err
		}
		ft.Host(h)
	case "Mode":
		m, err := lookupValue(value, emulator.TransferASCII, emulator.TransferBinary)
		if err != nil {
			return err
		}
		ft.Mode(m)
	case "Cr":
		cr, err := lookupValue(value, emulator.CrRemove, emulator.CrAdd, emulator.CrKeep)
		if err != nil {
			return err
		}
		ft.Cr(cr)
	case "Remap":
		r, err := lookupValue(value, emulator.RemapYes, emulator.RemapNo)
		if err != nil {
			return err
		}
		ft.Remap(r)
	case "Exist":
		e, err := lookupValue(value, emulator.ExistKeep, emulator.ExistReplace, emulator.ExistAppend)
		if err != nil {
			return err
		}
		ft.Exist(e)
	case "Recfm":
		r, err := lookupValue(value, emulator.RecfmFixed, emulator.RecfmVariable, emulator.RecfmUndefined)
		if err != nil {
			return err
		}
		ft.Recfm(r)
	case "Lrecl":
		n, err := parseInt64()
		if err != nil {
			return err
		}
		ft.Lrecl(n)
	case "Blksize":
		n, err := parseInt64()
		if err != nil {
			return err
		}
		ft.Blksize(n)
	case "Allocation":
		a, err := lookupValue(value, emulator.AllocationTracks, emulator.AllocationCylinders, emulator.AllocationAvblock)
		if err != nil {
			return err
		}
		ft.Allocation(a)
	case "PrimarySpace":
		n, err := parseInt64()
		if err != nil {
			return err
		}
		ft.PrimarySpace(n)
	case "SecondarySpace":
		n, err := parseInt64()
		if err != nil {
			return err
		}
		ft.SecondarySpace(n)
	case "Avblock":
		n, err := parseInt64()
		if err != nil {
			return err
		}
		ft.Avblock(n)
	case "BufferSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad()
		}
		ft.BufferSize(n)
	default:
		return fmt.Errorf("unknown transfer option: %q", key)
	}
	return nil
}

func lookupValue[T ~string](value string, allowed ...T) (T, error) {
	for _, a := range allowed {
		if strings.EqualFold(string(a), value) {
			return a, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, expected one of %v", value, allowed)
}

// runSnap dispatches the snapshot sub-protocol: the first argument
// selects the nested operation, each with its own arity rule.
func runSnap(s *emulator.Session, c Call) ([]string, error) {
	if c.Len() == 0 {
		if err := s.Snap().Save(); err != nil {
			return nil, err
		}
		return s.Data(), nil
	}
	sel := c.Get(0)
	switch {
	case strings.EqualFold(sel, "Ascii"):
		coords, err := ints(c, 1)
		if err != nil {
			return nil, err
		}
		return s.Snap().Ascii(coords...)
	case strings.EqualFold(sel, "Cols"):
		if err := want(c, 1); err != nil {
			return nil, err
		}
		cols, err := s.Snap().Cols()
		if err != nil {
			return nil, err
		}
		return []string{strconv.Itoa(cols)}, nil
	case strings.EqualFold(sel, "Ebcdic"):
		coords, err := ints(c, 1)
		if err != nil {
			return nil, err
		}
		return s.Snap().Ebcdic(coords...)
	case strings.EqualFold(sel, "ReadBuffer"):
		if err := want(c, 2); err != nil {
			return nil, err
		}
		mode, err := emulator.ReadBufferModeNamed(c.Get(1))
		if err != nil {
			return nil, err
		}
		return s.Snap().ReadBuffer(mode)
	case strings.EqualFold(sel, "Rows"):
		if err := want(c, 1); err != nil {
			return nil, err
		}
		rows, err := s.Snap().Rows()
		if err != nil {
			return nil, err
		}
		return []string{strconv.Itoa(rows)}, nil
	case strings.EqualFold(sel, "Save"):
		if err := want(c, 1); err != nil {
			return nil, err
		}
		if err := s.Snap().Save(); err != nil {
			return nil, err
		}
		return s.Data(), nil
	case strings.EqualFold(sel, "Status"):
		if err := want(c, 1); err != nil {
			return nil, err
		}
		st, err := s.Snap().Status()
		if err != nil {
			return nil, err
		}
		return []string{st.Raw}, nil
	case strings.EqualFold(sel, "Wait"):
		switch c.Len() {
		case 2:
			if !strings.EqualFold(c.Get(1), string(emulator.WaitOutput)) {
				return nil, fmt.Errorf("invalid %s: only the Output mode may be snapped", c)
			}
			if err := s.Snap().Wait(emulator.WaitOutput); err != nil {
				return nil, err
			}
		case 3:
			if !strings.EqualFold(c.Get(2), string(emulator.WaitOutput)) {
				return nil, fmt.Errorf("invalid %s: only the Output mode may be snapped", c)
			}
			secs, err := c.Int(1)
			if err != nil {
				return nil, err
			}
			if err := s.Snap().WaitFor(time.Duration(secs)*time.Second, emulator.WaitOutput); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("invalid %s: expected 2 or 3 arguments", c)
		}
		return s.Data(), nil
	default:
		return nil, fmt.Errorf("invalid %s: unknown snapshot operation %q", c, sel)
	}
}
