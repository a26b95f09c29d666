// Package credential resolves the GitHub access token used for a run,
// either from the environment or from an interactive prompt.
package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultEnvVar is the environment variable read for the token.
const DefaultEnvVar = "GITHUB_TOKEN"

// ErrNoToken is returned when neither the environment nor the prompt yields a token.
var ErrNoToken = errors.New("no GitHub token provided")

// Prompter asks the user for a secret.
type Prompter interface {
	Prompt(message string) (string, error)
}

// Resolver looks up the token in EnvVar and falls back to Prompter.
type Resolver struct {
	EnvVar   string
	Prompter Prompter
	// Out receives the notice printed before prompting.
	Out io.Writer
}

// NewResolver creates a Resolver reading envVar and prompting on the terminal.
func NewResolver(envVar string) *Resolver {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	return &Resolver{
		EnvVar:   envVar,
		Prompter: NewTerminalPrompter(os.Stdin, os.Stderr),
		Out:      os.Stderr,
	}
}

// Resolve returns a non-empty token or ErrNoToken.
func (r *Resolver) Resolve() (string, error) {
	if token := strings.TrimSpace(os.Getenv(r.EnvVar)); token != "" {
		return token, nil
	}
	if r.Prompter == nil {
		return "", ErrNoToken
	}

	if r.Out != nil {
		fmt.Fprintf(r.Out, "GitHub token not found in %s environment variable.\n", r.EnvVar)
	}
	token, err := r.Prompter.Prompt("Enter your GitHub personal access token: ")
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// TerminalPrompter reads a secret without echoing it when in is a terminal,
// and a single plain line otherwise.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter creates a TerminalPrompter reading from in and writing prompts to out.
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// Prompt implements Prompter.
func (p *TerminalPrompter) Prompt(message string) (string, error) {
	fmt.Fprint(p.out, message)

	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return line, nil
	}

	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
