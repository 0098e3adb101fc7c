package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/git-pkgs/paxd"
	"github.com/git-pkgs/paxd/launcher"
)

// promptPolicy asks on the terminal. With yes set every question is
// answered affirmatively and conflicting launchers are replaced.
type promptPolicy struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func (p *promptPolicy) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (p *promptPolicy) confirm(question string) bool {
	if p.yes {
		return true
	}
	_, _ = fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	return answer == "y" || answer == "yes"
}

func (p *promptPolicy) ConfirmReinstall(id string) bool {
	return p.confirm(fmt.Sprintf("%s is already installed. Reinstall it?", id))
}

func (p *promptPolicy) ConfirmUninstall(id string) bool {
	return p.confirm(fmt.Sprintf("Uninstall %s?", id))
}

func (p *promptPolicy) ResolveLauncherConflict(c *launcher.ConflictError) launcher.Resolution {
	if p.yes {
		return launcher.Replace
	}
	_, _ = fmt.Fprintf(p.out, "%s\n[r]eplace, [c]ancel or resolve [m]anually? ", c)
	answer, err := p.readLine()
	if err != nil {
		return launcher.Cancel
	}
	switch answer {
	case "r", "replace":
		return launcher.Replace
	case "m", "manual":
		return launcher.Manual
	}
	return launcher.Cancel
}

func (p *promptPolicy) AwaitManualResolution(ctx context.Context, c *launcher.ConflictError) error {
	_, _ = fmt.Fprintf(p.out, "Remove or rename %s, then press Enter to retry. ", c.Path)
	if _, err := p.readLine(); err != nil {
		return paxd.ErrCancelled
	}
	return ctx.Err()
}
