package semtag

import (
	"errors"
	"fmt"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Sentinel errors. Every typed error below also matches
// core/errors.ErrInvalidInput.
var (
	ErrNesting        = errors.New("start tag inside an open span")
	ErrMismatchedTag  = errors.New("end tag does not match the open span")
	ErrUnclosedTag    = errors.New("span left open at end of input")
	ErrLengthMismatch = errors.New("boundary sequence length mismatch")
	ErrCharMismatch   = errors.New("character sequences differ")
	ErrSyntax         = errors.New("malformed markup")
)

// NestingError reports a start tag while another span is open.
type NestingError struct {
	Pos  lexer.Position
	Open string
	Tag  string
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("%d:%d: <%s> opened inside <%s>", e.Pos.Line, e.Pos.Column, e.Tag, e.Open)
}

func (e *NestingError) Unwrap() error        { return ErrNesting }
func (e *NestingError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

// MismatchedTagError reports an end tag with no matching open span. Open is
// empty when no span was open.
type MismatchedTagError struct {
	Pos  lexer.Position
	Open string
	Tag  string
}

func (e *MismatchedTagError) Error() string {
	if e.Open == "" {
		return fmt.Sprintf("%d:%d: </%s> without an open span", e.Pos.Line, e.Pos.Column, e.Tag)
	}
	return fmt.Sprintf("%d:%d: </%s> closes <%s>", e.Pos.Line, e.Pos.Column, e.Tag, e.Open)
}

func (e *MismatchedTagError) Unwrap() error        { return ErrMismatchedTag }
func (e *MismatchedTagError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

// UnclosedTagError reports a span still open when the input ends.
type UnclosedTagError struct {
	Pos lexer.Position
	Tag string
}

func (e *UnclosedTagError) Error() string {
	return fmt.Sprintf("%d:%d: <%s> is never closed", e.Pos.Line, e.Pos.Column, e.Tag)
}

func (e *UnclosedTagError) Unwrap() error        { return ErrUnclosedTag }
func (e *UnclosedTagError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

// LengthMismatchError reports a boundary sequence whose length differs from
// the character sequence.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("boundary sequence has %d entries, want %d", e.Got, e.Want)
}

func (e *LengthMismatchError) Unwrap() error        { return ErrLengthMismatch }
func (e *LengthMismatchError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

// CharMismatchError reports two parses of the same utterance whose
// characters differ.
type CharMismatchError struct {
	General string
	Tagged  string
}

func (e *CharMismatchError) Error() string {
	return fmt.Sprintf("characters differ: %q vs %q", e.General, e.Tagged)
}

func (e *CharMismatchError) Unwrap() error        { return ErrCharMismatch }
func (e *CharMismatchError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

// SyntaxError reports markup the lexer or grammar rejected.
type SyntaxError struct {
	Pos lexer.Position
	Msg string
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() []error      { return []error{ErrSyntax, e.Err} }
func (e *SyntaxError) Is(target error) bool { return target == cerrors.ErrInvalidInput }

func newSyntaxError(err error) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{Pos: perr.Position(), Msg: perr.Message(), Err: err}
	}
	return &SyntaxError{Msg: err.Error(), Err: err}
}
