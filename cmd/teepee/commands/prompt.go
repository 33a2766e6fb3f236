package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// swapped out in tests so nothing touches the terminal
var readPassword = term.ReadPassword

type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) prompter {
	return prompter{reader: bufio.NewReader(in), out: out}
}

// Text reads one trimmed line.
func (p prompter) Text(prompt string) (string, error) {
	_, err := fmt.Fprint(p.out, prompt)
	if err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a line from the terminal without echoing it.
func (p prompter) Password(prompt string) (string, error) {
	_, err := fmt.Fprint(p.out, prompt)
	if err != nil {
		return "", err
	}
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
