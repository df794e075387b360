package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/everFinance/mandelseed/schema"
)

// Command runs an external renderer binary once per capture:
//
//	<bin> capture --output <path> --x-min <f> --x-max <f> --y-min <f> --y-max <f> --max-iterations <n>
type Command struct {
	Bin string
}

func NewCommand(bin string) *Command {
	return &Command{Bin: bin}
}

func (c *Command) Args(path string, params Params) []string {
	return []string{
		"capture",
		"--output", path,
		"--x-min", formatFloat32(params.XMin),
		"--x-max", formatFloat32(params.XMax),
		"--y-min", formatFloat32(params.YMin),
		"--y-max", formatFloat32(params.YMax),
		"--max-iterations", strconv.FormatUint(uint64(params.MaxIterations), 10),
	}
}

func (c *Command) Capture(ctx context.Context, path string, params Params) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("%w: %w", schema.ErrRender, err)
		}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Bin, c.Args(path, params)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %w: %s", schema.ErrRender, c.Bin, err, msg)
		}
		return fmt.Errorf("%w: %s: %w", schema.ErrRender, c.Bin, err)
	}
	log.Debug("capture done", "path", path)
	return nil
}

func formatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
