package voice

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDownloadURL is the release bucket holding voice archives as
// "<language>_<name>.tar.gz".
const DefaultDownloadURL = "https://github.com/glottislabs/voices/releases/download/v1"

// Downloader fetches voice archives and unpacks them into a voices directory.
type Downloader struct {
	BaseURL string
	DestDir string
	client  *http.Client
	log     *slog.Logger
}

// NewDownloader builds a downloader installing into destDir. An empty baseURL
// uses the default release bucket.
func NewDownloader(baseURL, destDir string, log *slog.Logger) *Downloader {
	if baseURL == "" {
		baseURL = DefaultDownloadURL
	}
	return &Downloader{
		BaseURL: baseURL,
		DestDir: destDir,
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     log.With(slog.String("component", "voices")),
	}
}

// Download fetches "<language>/<name>" and unpacks it, returning the
// installed voice directory. An already-installed voice is left alone.
func (d *Downloader) Download(ctx context.Context, lang, name string) (string, error) {
	voiceDir := filepath.Join(d.DestDir, lang, name)
	if hasModel(voiceDir) {
		return voiceDir, nil
	}

	url := fmt.Sprintf("%s/%s_%s.tar.gz", d.BaseURL, lang, name)
	d.log.Info("downloading voice",
		slog.String("voice", lang+"/"+name),
		slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice %s/%s: %w", lang, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download voice %s/%s: unexpected status %s", lang, name, resp.Status)
	}

	if err := ExtractTarGz(resp.Body, filepath.Join(d.DestDir, lang)); err != nil {
		return "", fmt.Errorf("unpack voice %s/%s: %w", lang, name, err)
	}
	if !hasModel(voiceDir) {
		return "", fmt.Errorf("voice archive %s/%s did not contain generator.onnx", lang, name)
	}
	return voiceDir, nil
}

// ExtractTarGz unpacks a gzipped tarball under destDir, rejecting entries
// that would escape it.
func ExtractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create dir for %s: %w", target, err)
			}
			if err := writeFile(target, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write file %s: %w", target, err)
	}
	return nil
}
