// Package executor runs the configured apply command to set the desktop background.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

// PathToken is replaced by the image path in the apply command arguments.
const PathToken = "{path}"

// AutoCommand selects a setter from the desktop detection table.
const AutoCommand = "auto"

// Command is a program plus arguments, some of which may be PathToken.
type Command struct {
	Name    string
	Program string
	Args    []string
	// PathPrefix is prepended to the path on substitution, e.g. "file://"
	PathPrefix string
}

// ParseCommand splits raw on the first space into program and argument string,
// then splits the argument string on spaces. Repeated spaces produce no empty arguments.
func ParseCommand(raw string) (Command, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Command{}, domain.E(domain.KindConfig, "executor.parse", errors.New("empty set_command"))
	}

	program, rest, _ := strings.Cut(raw, " ")
	var args []string
	for _, a := range strings.Split(rest, " ") {
		if a != "" {
			args = append(args, a)
		}
	}
	return Command{Name: program, Program: program, Args: args}, nil
}

// Expand returns the arguments with every exact PathToken replaced.
func (c Command) Expand(imagePath string) []string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		if arg == PathToken {
			args[i] = c.PathPrefix + imagePath
		} else {
			args[i] = arg
		}
	}
	return args
}

// CommandExecutor sets the wallpaper by spawning a child process.
type CommandExecutor struct {
	logger  *zap.Logger
	command Command
}

// NewCommandExecutor wraps an already parsed command
func NewCommandExecutor(logger *zap.Logger, command Command) *CommandExecutor {
	return &CommandExecutor{logger: logger, command: command}
}

// NewExecutor builds the executor for the configured set_command. With no command
// configured the returned executor fails with ErrNoSetCommand on use.
func NewExecutor(logger *zap.Logger, cfg domain.Config) (domain.Executor, error) {
	raw := strings.TrimSpace(cfg.SetCommand())
	switch raw {
	case "":
		return Unavailable{}, nil
	case AutoCommand:
		cmd, err := detectCommand(logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("Wallpaper setter detected",
			zap.String("name", cmd.Name),
			zap.String("binary", cmd.Program))
		return NewCommandExecutor(logger, cmd), nil
	}

	cmd, err := ParseCommand(raw)
	if err != nil {
		return nil, err
	}
	return NewCommandExecutor(logger, cmd), nil
}

// SetWallpaper runs the command with the image path substituted and waits for it.
func (e *CommandExecutor) SetWallpaper(ctx context.Context, imagePath string) error {
	args := e.command.Expand(imagePath)

	e.logger.Debug("Setting wallpaper",
		zap.String("command", e.command.Program),
		zap.Strings("args", args),
		zap.String("path", imagePath))

	cmd := exec.CommandContext(ctx, e.command.Program, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return domain.PathE(domain.KindCommand, "executor.set", imagePath,
			fmt.Errorf("failed to set wallpaper with %s: %w (output: %s)",
				e.command.Name, err, strings.TrimSpace(string(output))))
	}

	e.logger.Info("Wallpaper set successfully",
		zap.String("command", e.command.Name),
		zap.String("path", imagePath))
	return nil
}

// Unavailable stands in when no command can be run. Err is returned on use,
// ErrNoSetCommand when it is nil.
type Unavailable struct {
	Err error
}

// SetWallpaper always fails
func (u Unavailable) SetWallpaper(context.Context, string) error {
	if u.Err != nil {
		return u.Err
	}
	return domain.ErrNoSetCommand
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
