// Package convert turns a schedule PDF into CSV text by running an external
// table extractor.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Placeholder is replaced by the PDF path in each argv element.
const Placeholder = "{input}"

var ErrNoCommand = errors.New("converter command is empty")

// Converter produces CSV text for the PDF at path.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Exec runs Argv with {input} substituted and reads CSV from stdout. When no
// element contains the placeholder, the path is appended as the last
// argument.
type Exec struct {
	Argv []string
	Env  []string
}

func (e Exec) Convert(ctx context.Context, pdfPath string) (string, error) {
	if len(e.Argv) == 0 || strings.TrimSpace(e.Argv[0]) == "" {
		return "", ErrNoCommand
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("pdf not found: %w", err)
	}

	args := e.expand(pdfPath)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.String(), nil
}

func (e Exec) expand(pdfPath string) []string {
	args := make([]string, 0, len(e.Argv)+1)
	substituted := false
	for _, a := range e.Argv {
		if strings.Contains(a, Placeholder) {
			a = strings.ReplaceAll(a, Placeholder, pdfPath)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, pdfPath)
	}
	return args
}

// Func adapts a plain function to Converter.
type Func func(ctx context.Context, pdfPath string) (string, error)

func (f Func) Convert(ctx context.Context, pdfPath string) (string, error) {
	return f(ctx, pdfPath)
}
