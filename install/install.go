// Package install adds the collection packages a generated package extends to its package manifest.
package install

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Installer adds npm packages to the package rooted at dir.
type Installer interface {
	Install(ctx context.Context, packages []string, dir string) error
}

// Yarn runs `yarn add <packages...> --cwd <dir>`.
type Yarn struct {
	// defaults to "yarn"
	Program string
	Logger  *slog.Logger
}

func NewYarn(logger *slog.Logger) *Yarn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Yarn{
		Program: "yarn",
		Logger:  logger.With("subsystem", "install"),
	}
}

func (y *Yarn) Install(ctx context.Context, packages []string, dir string) error {
	if len(packages) == 0 {
		return nil
	}
	program := y.Program
	if program == "" {
		program = "yarn"
	}
	logger := y.Logger
	if logger == nil {
		logger = slog.Default()
	}

	args := append([]string{"add"}, packages...)
	args = append(args, "--cwd", dir)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Info("installing collection packages", "packages", packages, "dir", dir)
	if err := cmd.Run(); err != nil {
		logger.Debug("install output", "output", strings.TrimSpace(out.String()))
		return fmt.Errorf("%s %s: %w", program, strings.Join(args, " "), err)
	}
	logger.Debug("install output", "output", strings.TrimSpace(out.String()))
	return nil
}
