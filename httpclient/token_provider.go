package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jongio/demo-builder-core/cmdutil"
	"github.com/jongio/demo-builder-core/pathutil"
)

// DefaultAuthResource is the lock and rate limit key for auth CLI calls. The
// auth CLI keeps its state in a single config file, so calls must not overlap.
const DefaultAuthResource = "auth-cli"

const tokenCommandTimeout = 30 * time.Second

// CommandTokenProvider gets tokens by running an auth CLI command that prints
// the token on its last line of output.
type CommandTokenProvider struct {
	runner   *cmdutil.Runner
	command  []string
	resource string
}

// NewCommandTokenProvider creates a provider running command through runner.
// command comes from operator configuration, never from request input.
func NewCommandTokenProvider(runner *cmdutil.Runner, command []string) *CommandTokenProvider {
	return &CommandTokenProvider{
		runner:   runner,
		command:  append([]string(nil), command...),
		resource: DefaultAuthResource,
	}
}

// GetToken runs the token command. The scope is not passed to the command;
// the auth CLI context decides which token it prints.
func (p *CommandTokenProvider) GetToken(ctx context.Context, scope string) (string, error) {
	if len(p.command) == 0 {
		return "", errors.New("no token command configured")
	}

	if _, err := pathutil.LookupTool(p.command[0]); err != nil {
		return "", fmt.Errorf("token command unavailable: %w", err)
	}

	args := make([]cmdutil.Arg, 0, len(p.command))
	for _, part := range p.command {
		args = append(args, cmdutil.Literal(part))
	}

	res, err := p.runner.Run(ctx, cmdutil.Command{
		Resource: p.resource,
		Args:     args,
		Timeout:  tokenCommandTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("token command failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	token := strings.TrimSpace(lines[len(lines)-1])
	if token == "" {
		return "", errors.New("token command printed no token")
	}
	return token, nil
}
