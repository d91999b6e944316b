package domain

import (
	"errors"
	"strings"
)

// Kind is the category of a failure. Callers branch on kinds, not on messages.
type Kind string

const (
	KindConfig  Kind = "config"
	KindDecode  Kind = "decode"
	KindNetwork Kind = "network"
	KindFormat  Kind = "format"
	KindFs      Kind = "fs"
	KindState   Kind = "state"
	KindCommand Kind = "command"
)

var (
	// ErrNotFound reports a missing image, cache entry or collection.
	ErrNotFound = errors.New("not found")
	// ErrNoImageSet reports that no wallpaper has been recorded yet.
	ErrNoImageSet = errors.New("no background image currently set")
	// ErrNoSetCommand reports that assigning was requested without a configured set_command.
	ErrNoSetCommand = errors.New("no set_command specified in config")
	// ErrIncompatibleFormat reports a target extension that differs from the image format.
	ErrIncompatibleFormat = errors.New("target extension does not match the image format")
	// ErrUnknownFormat reports a path or MIME type that maps to no supported image format.
	ErrUnknownFormat = errors.New("not a supported image format")
)

// Error carries the kind of a failure together with the operation and path involved.
type Error struct {
	Kind Kind
	// Op names the operation, e.g. "cache.find"
	Op string
	// Path is the offending file or directory, if any
	Path string
	Err  error
}

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// PathE builds an *Error that names a path.
func PathE(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
