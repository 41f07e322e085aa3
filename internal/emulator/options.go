package emulator

import (
	"fmt"
	"strings"
)

// Safety gates operations that can read arbitrary local files or run
// arbitrary shell text. Sessions start out Safe.
type Safety int

const (
	Safe Safety = iota
	Unsafe
)

func (s Safety) String() string {
	if s == Unsafe {
		return "unsafe"
	}
	return "safe"
}

// ToggleOption names an emulator toggle.
type ToggleOption string

const (
	AidWait        ToggleOption = "aidWait"
	AltCursor      ToggleOption = "altCursor"
	BlankFill      ToggleOption = "blankFill"
	Crosshair      ToggleOption = "crosshair"
	CursorBlink    ToggleOption = "cursorBlink"
	CursorPos      ToggleOption = "cursorPos"
	LineWrap       ToggleOption = "lineWrap"
	MarginedPaste  ToggleOption = "marginedPaste"
	MonoCaseToggle ToggleOption = "monoCase"
	OverlayPaste   ToggleOption = "overlayPaste"
	ScreenTrace    ToggleOption = "screenTrace"
	ShowTiming     ToggleOption = "showTiming"
	Trace          ToggleOption = "trace"
	Underscore     ToggleOption = "underscore"
	VisibleControl ToggleOption = "visibleControl"
)

var toggleOptions = []ToggleOption{
	AidWait, AltCursor, BlankFill, Crosshair, CursorBlink, CursorPos,
	LineWrap, MarginedPaste, MonoCaseToggle, OverlayPaste, ScreenTrace,
	ShowTiming, Trace, Underscore, VisibleControl,
}

// ToggleOptionNamed resolves a toggle option name case-insensitively.
func ToggleOptionNamed(name string) (ToggleOption, error) {
	return lookup("toggle option", name, toggleOptions)
}

// ToggleMode sets or clears a toggle instead of flipping it.
type ToggleMode string

const (
	ToggleSet   ToggleMode = "set"
	ToggleClear ToggleMode = "clear"
)

var toggleModes = []ToggleMode{ToggleSet, ToggleClear}

// ToggleModeNamed resolves a toggle mode name case-insensitively.
func ToggleModeNamed(name string) (ToggleMode, error) {
	return lookup("toggle mode", name, toggleModes)
}

// WaitMode selects the condition a Wait action blocks on.
type WaitMode string

const (
	Wait3270       WaitMode = "3270"
	Wait3270Mode   WaitMode = "3270Mode"
	WaitDisconnect WaitMode = "Disconnect"
	WaitInputField WaitMode = "InputField"
	WaitNVTMode    WaitMode = "NVTMode"
	WaitOutput     WaitMode = "Output"
	WaitUnlock     WaitMode = "Unlock"
	WaitSeconds    WaitMode = "Seconds"
)

var waitModes = []WaitMode{
	Wait3270, Wait3270Mode, WaitDisconnect, WaitInputField,
	WaitNVTMode, WaitOutput, WaitUnlock, WaitSeconds,
}

// WaitModeNamed resolves a wait mode name case-insensitively.
func WaitModeNamed(name string) (WaitMode, error) {
	return lookup("wait mode", name, waitModes)
}

// QueryKeyword selects a single Query datum.
type QueryKeyword string

const (
	QueryBindPluName     QueryKeyword = "BindPluName"
	QueryConnectionState QueryKeyword = "ConnectionState"
	QueryCodePage        QueryKeyword = "CodePage"
	QueryCursor          QueryKeyword = "Cursor"
	QueryFormatted       QueryKeyword = "Formatted"
	QueryHost            QueryKeyword = "Host"
	QueryLocalEncoding   QueryKeyword = "LocalEncoding"
	QueryLuName          QueryKeyword = "LuName"
	QueryModel           QueryKeyword = "Model"
	QueryScreenCurSize   QueryKeyword = "ScreenCurSize"
	QueryScreenMaxSize   QueryKeyword = "ScreenMaxSize"
	QuerySsl             QueryKeyword = "Ssl"
)

var queryKeywords = []QueryKeyword{
	QueryBindPluName, QueryConnectionState, QueryCodePage, QueryCursor,
	QueryFormatted, QueryHost, QueryLocalEncoding, QueryLuName,
	QueryModel, QueryScreenCurSize, QueryScreenMaxSize, QuerySsl,
}

// QueryKeywordNamed resolves a query keyword case-insensitively.
func QueryKeywordNamed(name string) (QueryKeyword, error) {
	return lookup("query keyword", name, queryKeywords)
}

// ReadBufferMode selects the character set of a ReadBuffer dump.
type ReadBufferMode string

const (
	ReadBufferASCII  ReadBufferMode = "Ascii"
	ReadBufferEBCDIC ReadBufferMode = "Ebcdic"
)

var readBufferModes = []ReadBufferMode{ReadBufferASCII, ReadBufferEBCDIC}

// ReadBufferModeNamed resolves a read-buffer mode case-insensitively.
func ReadBufferModeNamed(name string) (ReadBufferMode, error) {
	return lookup("read buffer mode", name, readBufferModes)
}

// WindowMode selects the WindowState target.
type WindowMode string

const (
	WindowIconic WindowMode = "Iconic"
	WindowNormal WindowMode = "Normal"
)

var windowModes = []WindowMode{WindowIconic, WindowNormal}

// WindowModeNamed resolves a window mode case-insensitively.
func WindowModeNamed(name string) (WindowMode, error) {
	return lookup("window mode", name, windowModes)
}

func lookup[T ~string](label, name string, values []T) (T, error) {
	for _, v := range values {
		if strings.EqualFold(string(v), name) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s: %q", label, name)
}
