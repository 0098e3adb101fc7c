package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// DefaultExternalCommand installs a pip requirement quietly.
const DefaultExternalCommand = "pip install {ref} -q"

// ExternalInstaller installs dependencies that are not PaxD packages.
// Only success or failure is observed.
type ExternalInstaller interface {
	Install(ctx context.Context, ref string) error
}

// ExternalIndex vets an external dependency before it is installed.
// *pypi.Index satisfies it.
type ExternalIndex interface {
	Check(ctx context.Context, ref string) error
}

// ExternalFunc adapts a function to ExternalInstaller.
type ExternalFunc func(ctx context.Context, ref string) error

func (f ExternalFunc) Install(ctx context.Context, ref string) error { return f(ctx, ref) }

// CommandInstaller runs a command per dependency. The template is split
// like a shell would split it; "{ref}" is replaced by the dependency
// reference, or the reference is appended when the template has none.
type CommandInstaller struct {
	args []string
}

// NewCommandInstaller parses template into a command line.
func NewCommandInstaller(template string) (*CommandInstaller, error) {
	args, err := shellwords.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("parsing external installer command %q: %w", template, err)
	}
	if len(args) == 0 {
		return nil, errors.New("external installer command is empty")
	}
	return &CommandInstaller{args: args}, nil
}

// Command returns the argv that would install ref.
func (c *CommandInstaller) Command(ref string) []string {
	out := make([]string, 0, len(c.args)+1)
	substituted := false
	for _, a := range c.args {
		if strings.Contains(a, "{ref}") {
			a = strings.ReplaceAll(a, "{ref}", ref)
			substituted = true
		}
		out = append(out, a)
	}
	if !substituted {
		out = append(out, ref)
	}
	return out
}

func (c *CommandInstaller) Install(ctx context.Context, ref string) error {
	argv := c.Command(ref)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, msg)
		}
		return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}
	return nil
}
