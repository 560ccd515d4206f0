package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/digest"
)

// FileNotifier writes the digest to a standalone HTML file with the images
// embedded, for previewing in a browser.
type FileNotifier struct {
	Dir    string
	Logger zerolog.Logger
}

// Filename returns the file name used for a digest generated at t.
func Filename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "property-email-" + stamp + ".html"
}

// Notify implements Notifier.
func (f FileNotifier) Notify(_ context.Context, d *digest.Digest) error {
	html, err := digest.Render(d, digest.ImagesEmbedded)
	if err != nil {
		return err
	}

	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(d.GeneratedAt))

	if err := os.WriteFile(path, html, 0o644); err != nil { //nolint:gosec // preview file meant to be opened in a browser
		return fmt.Errorf("writing digest file: %w", err)
	}

	f.Logger.Info().
		Str("run_id", d.RunID).
		Str("path", path).
		Msg("digest saved to file")

	return nil
}
