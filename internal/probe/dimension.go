package probe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

// DimensionProbe returns the pixel dimensions of an image file.
type DimensionProbe interface {
	Dimensions(path string) (width, height int, err error)
}

// ImageDecoder reads dimensions from the image header without decoding
// pixel data. PNG, JPEG and GIF are supported.
type ImageDecoder struct{}

// Dimensions implements DimensionProbe.
func (ImageDecoder) Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%s header reports %dx%d", format, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// commandTimeout bounds a single external dimension lookup.
const commandTimeout = 10 * time.Second

// Command asks an external image tool for dimensions.
type Command struct {
	// Name is the executable looked up on PATH.
	Name string
	// Args builds the argument list for an image path.
	Args func(path string) []string
	// Parse extracts width and height from the tool output.
	Parse func(out []byte) (int, int, error)

	bin string
}

// Identify returns a Command backed by ImageMagick's identify.
func Identify() *Command {
	return &Command{
		Name: "identify",
		Args: func(path string) []string {
			return []string{"-format", "%w %h\n", path + "[0]"}
		},
		Parse: parseIdentify,
	}
}

// Sips returns a Command backed by the macOS sips tool.
func Sips() *Command {
	return &Command{
		Name: "sips",
		Args: func(path string) []string {
			return []string{"-g", "pixelWidth", "-g", "pixelHeight", path}
		},
		Parse: parseSips,
	}
}

// LookupCommand returns the first of identify and sips found on PATH.
func LookupCommand() (*Command, error) {
	var lastErr error
	for _, c := range []*Command{Identify(), Sips()} {
		bin, err := exec.LookPath(c.Name)
		if err != nil {
			lastErr = err
			continue
		}
		c.bin = bin
		return c, nil
	}
	return nil, scerrors.ProbeUnavailable("dimension", lastErr).
		WithSuggestion("install ImageMagick (identify) or use --probe builtin")
}

// Dimensions implements DimensionProbe.
func (c *Command) Dimensions(path string) (int, int, error) {
	bin := c.bin
	if bin == "" {
		bin = c.Name
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.Args(path)...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return 0, 0, fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return 0, 0, fmt.Errorf("%s: %w", c.Name, err)
	}
	return c.Parse(out)
}

func parseIdentify(out []byte) (int, int, error) {
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected identify output %q", strings.TrimSpace(string(out)))
	}
	return parsePair(fields[0], fields[1])
}

func parseSips(out []byte) (int, int, error) {
	var w, h string
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "pixelWidth":
			w = strings.TrimSpace(value)
		case "pixelHeight":
			h = strings.TrimSpace(value)
		}
	}
	if w == "" || h == "" {
		return 0, 0, fmt.Errorf("unexpected sips output %q", strings.TrimSpace(string(out)))
	}
	return parsePair(w, h)
}

func parsePair(w, h string) (int, int, error) {
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", w, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", h, err)
	}
	return width, height, nil
}
