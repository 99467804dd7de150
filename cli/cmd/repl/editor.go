package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/etmpl/data"
	"github.com/ardnew/etmpl/log"
)

const defaultEditor = "vi"

// editDataCommand implements [tea.ExecCommand]. It writes the data context
// as YAML to a temporary file, opens the user's editor, and parses the
// result. On a parse error the user may edit again; declining returns
// [ErrEditDeclined].
type editDataCommand struct {
	data    map[string]any
	ctxFunc func() context.Context
	logger  log.Logger
	result  map[string]any // nil if the user cleared the file
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editDataCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editDataCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editDataCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *editDataCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := data.Marshal(c.data)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "etmpl-data-*.yaml")
	if err != nil {
		return err
	}

	path := f.Name()
	f.Close()

	defer os.Remove(path)

	for {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		if content, err = os.ReadFile(path); err != nil {
			return err
		}

		if strings.TrimSpace(string(content)) == "" {
			return nil
		}

		result, parseErr := data.Parse(data.FormatYAML, content)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.result = result

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor opens path in $EDITOR, or vi when it is unset.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	args = append(args, path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
