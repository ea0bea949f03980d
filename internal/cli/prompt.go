package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// prompter asks for missing form values. Secrets are read without echo when
// stdin is a terminal; piped input is read line by line.
type prompter struct {
	in  *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), fd: -1, out: out}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

// line returns value unchanged when set, otherwise asks for it.
func (p *prompter) line(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", errors.Errorf("%s is required", strings.ToLower(label))
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) secret(label, value string) (string, error) {
	if value != "" || !p.tty {
		return p.line(label, value)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(b), nil
}
