package emulator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Snap drives the snapshot sub-protocol: one outer action whose first
// argument selects the nested operation. Each method is terminal and
// releases the session's builder slot.
type Snap struct {
	session *Session
}

// Cancel releases the session's builder slot without snapping.
func (sn *Snap) Cancel() {
	sn.session.cancelBuilder()
}

// Ascii dumps the saved snapshot as text. Coordinate shapes match
// Session.Ascii.
func (sn *Snap) Ascii(coords ...int) ([]string, error) {
	inner, err := regionAction("Ascii", coords)
	if err != nil {
		return nil, err
	}
	if err := sn.session.finishSnap(snapAction(inner), sn.session.NonBlocking()); err != nil {
		return nil, err
	}
	return sn.session.Data(), nil
}

// Cols returns the column count of the saved snapshot.
func (sn *Snap) Cols() (int, error) {
	return sn.dimension("Snap(Cols)")
}

// Ebcdic dumps the saved snapshot in EBCDIC.
func (sn *Snap) Ebcdic(coords ...int) ([]string, error) {
	inner, err := regionAction("Ebcdic", coords)
	if err != nil {
		return nil, err
	}
	if err := sn.session.finishSnap(snapAction(inner), sn.session.NonBlocking()); err != nil {
		return nil, err
	}
	return sn.session.Data(), nil
}

// ReadBuffer dumps the saved snapshot with field attributes.
func (sn *Snap) ReadBuffer(mode ReadBufferMode) ([]string, error) {
	action := "Snap(ReadBuffer," + string(mode) + ")"
	if err := sn.session.finishSnap(action, sn.session.NonBlocking()); err != nil {
		return nil, err
	}
	return sn.session.Data(), nil
}

// Rows returns the row count of the saved snapshot.
func (sn *Snap) Rows() (int, error) {
	return sn.dimension("Snap(Rows)")
}

// Save captures the current screen as the snapshot.
func (sn *Snap) Save() error {
	return sn.session.finishSnap("Snap(Save)", sn.session.NonBlocking())
}

// Status decodes the status line captured with the snapshot.
func (sn *Snap) Status() (*Status, error) {
	if err := sn.session.finishSnap("Snap(Status)", sn.session.NonBlocking()); err != nil {
		return nil, err
	}
	// The snapshot status arrives as a data line without a code token.
	return ParseStatus(firstLine(sn.session.Data()) + "\nok\n")
}

// Wait blocks until the host updates the screen, then saves a new
// snapshot. Only the Output mode is valid here.
func (sn *Snap) Wait(mode WaitMode) error {
	if mode != WaitOutput {
		return fmt.Errorf("invalid wait mode for snapshot: %s", mode)
	}
	return sn.session.finishSnap("Snap(Wait,Output)", sn.session.NonBlocking())
}

// WaitFor is Wait bounded by an explicit timeout. A timeout rounding
// to zero seconds behaves like Wait.
func (sn *Snap) WaitFor(timeout time.Duration, mode WaitMode) error {
	if mode != WaitOutput {
		return fmt.Errorf("invalid wait mode for snapshot: %s", mode)
	}
	secs := int64(timeout / time.Second)
	if secs == 0 {
		return sn.session.finishSnap("Snap(Wait,Output)", sn.session.NonBlocking())
	}
	return sn.session.finishSnap(fmt.Sprintf("Snap(Wait,%d,Output)", secs), timeout)
}

func (sn *Snap) dimension(action string) (int, error) {
	if err := sn.session.finishSnap(action, sn.session.NonBlocking()); err != nil {
		return 0, err
	}
	line := firstLine(sn.session.Data())
	if line == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot dimension: %q", line)
	}
	return n, nil
}

// snapAction folds a nested action into the outer Snap call, so
// Ascii(1,2,3) becomes Snap(Ascii,1,2,3).
func snapAction(inner string) string {
	if i := strings.IndexByte(inner, '('); i >= 0 {
		return "Snap(" + inner[:i] + "," + inner[i+1:]
	}
	return "Snap(" + inner + ")"
}
