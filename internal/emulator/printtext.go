package emulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrintText accumulates options for the screen-printing action and
// submits them through one of the terminal methods (HTML, RTF, File,
// Command). It occupies the session's builder slot until then.
type PrintText struct {
	session *Session
	modi    bool
	caption string
	hasCap  bool
}

// Cancel releases the session's builder slot without printing.
func (pt *PrintText) Cancel() {
	pt.session.cancelBuilder()
}

// Modi includes modified fields in the output.
func (pt *PrintText) Modi() *PrintText {
	pt.modi = true
	return pt
}

// Caption adds a caption line above the screen image.
func (pt *PrintText) Caption(caption string) *PrintText {
	pt.caption = EscapeQuotes(caption)
	pt.hasCap = true
	return pt
}

// HTML writes the screen as HTML to the given file.
func (pt *PrintText) HTML(path string) error {
	return pt.toFile("html", path)
}

// RTF writes the screen as RTF to the given file.
func (pt *PrintText) RTF(path string) error {
	return pt.toFile("rtf", path)
}

// File writes the screen as plain text to the given file.
func (pt *PrintText) File(path string) error {
	return pt.toFile("file", path)
}

// Command pipes the screen image through a shell command. Requires
// Unsafe mode.
func (pt *PrintText) Command(command string) error {
	action := pt.action("command", command)
	if pt.session.Safety() != Unsafe {
		return ErrUnsafe
	}
	return pt.session.finishPrintText(action)
}

func (pt *PrintText) toFile(label, path string) error {
	abs, err := checkWritableFile(path)
	if err != nil {
		return err
	}
	return pt.session.finishPrintText(pt.action(label, abs))
}

func (pt *PrintText) action(label, value string) string {
	var sb strings.Builder
	sb.WriteString("PrintText(")
	if pt.modi {
		sb.WriteString("modi,")
	}
	if pt.hasCap {
		sb.WriteString(`caption,"`)
		sb.WriteString(pt.caption)
		sb.WriteString(`",`)
	}
	sb.WriteString(label)
	sb.WriteByte(',')
	if label == "command" {
		sb.WriteString(value)
	} else {
		sb.WriteByte('"')
		sb.WriteString(value)
		sb.WriteByte('"')
	}
	sb.WriteByte(')')
	return sb.String()
}

// checkWritableFile resolves path and verifies the emulator will be
// able to write it, creating the file if it does not exist yet.
func checkWritableFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid file path %q: %w", path, err)
	}
	if strings.ContainsRune(abs, '"') {
		return "", fmt.Errorf("invalid file path: %q", abs)
	}
	if fi, err := os.Stat(abs); err == nil && !fi.Mode().IsRegular() {
		return "", fmt.Errorf("path does not denote a regular file: %q", abs)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return "", fmt.Errorf("file is not writeable: %q", abs)
	}
	f.Close()
	return abs, nil
}
