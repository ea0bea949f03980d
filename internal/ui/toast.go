package ui

import (
	"fmt"
	"io"
)

type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a one-line notice. The zero value renders nothing.
type Toast struct {
	Kind    Kind
	Message string
}

func Success(msg string) Toast { return Toast{Kind: KindSuccess, Message: msg} }
func Warning(msg string) Toast { return Toast{Kind: KindWarning, Message: msg} }
func Error(msg string) Toast   { return Toast{Kind: KindError, Message: msg} }
func Info(msg string) Toast    { return Toast{Kind: KindInfo, Message: msg} }

func (t Toast) Empty() bool {
	return t.Message == ""
}

func (t Toast) String() string {
	return t.Message
}

func (t Toast) Render(w io.Writer) {
	if t.Empty() {
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", t.Message)
}
