package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/merge"
)

// errNoTool is returned when a file needs a manual merge and no tool is set
var errNoTool = errors.New("no merge tool configured (set merge.tool or use --tool)")

// toolMerger runs an external merge program for every single-file merge.
// The program runs to completion inside RequestMerge; a zero exit status
// means the result was saved to the destination.
type toolMerger struct {
	template string
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	logger   logging.Logger

	// saved is the destination of the last successful merge
	saved string
}

// RequestMerge implements merge.FileMerger
func (m *toolMerger) RequestMerge(ctx context.Context, req merge.MergeRequest) error {
	m.saved = ""
	if strings.TrimSpace(m.template) == "" {
		return errNoTool
	}
	if !req.Local {
		return fmt.Errorf("the merge tool needs local files: %s", req.Dest)
	}

	argv := toolCommand(m.template, req)
	if len(argv) == 0 {
		return errNoTool
	}
	m.logger.Info(ctx, "Running merge tool", logging.Fields{"command": strings.Join(argv, " ")})

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = m.stdin
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("merge tool failed for %s: %w", req.Dest, err)
	}

	m.saved = req.Dest
	return nil
}

// toolCommand splits template into arguments and substitutes the
// placeholders. An argument that is only a placeholder for a missing input
// is dropped.
func toolCommand(template string, req merge.MergeRequest) []string {
	replacer := strings.NewReplacer(
		"{A}", req.A,
		"{B}", req.B,
		"{C}", req.C,
		"{DEST}", req.Dest,
	)

	fields := strings.Fields(template)
	argv := make([]string, 0, len(fields))
	for _, field := range fields {
		arg := replacer.Replace(field)
		if arg == "" {
			continue
		}
		argv = append(argv, arg)
	}
	return argv
}
