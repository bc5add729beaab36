package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rendis/n8nview/internal/config"
)

const mermaidASCIIVersion = "1.1.0"

// SHA-256 checksums for mermaid-ascii v1.1.0 release assets.
var mermaidASCIIChecksums = map[string]string{
	"mermaid-ascii_Darwin_arm64.tar.gz":  "068d2ff869d4921655cab471500fffd8c3ed28155b100518ed3cf3835d53d3d0",
	"mermaid-ascii_Darwin_x86_64.tar.gz": "0cd4c9c01a03284fe866f39a1ce1aaee1e6a2fbd91deedc4ec254cb87622eec8",
	"mermaid-ascii_Linux_arm64.tar.gz":   "3b7d0a95141bfbca838e445ea802ffb7fba8873b3c4af498482c84f83526f2db",
	"mermaid-ascii_Linux_x86_64.tar.gz":  "838ea93d561b3bc83aa15531c6ed7d2d261a8edc521d5484f7e91fe831cc4c65",
}

func runInstall(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	d := config.Defaults()
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listenAddr := fs.String("listen-addr", d.ListenAddr, "TCP listen address")
	logLevel := fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", d.LogFormat, "log format: text, json")
	locale := fs.String("locale", d.Locale, "status message language: vi, en")
	sessionTTL := fs.Duration("session-ttl", d.SessionTTL, "idle time before a session is dropped")
	sweepSchedule := fs.String("sweep-schedule", d.SweepSchedule, "cron schedule of the idle session sweep")
	maxUpload := fs.Int64("max-upload-bytes", d.MaxUploadBytes, "largest accepted workflow file")
	binDir := fs.String("bin-dir", d.BinDir, "where external tools are installed")
	skipDownload := fs.Bool("skip-download", false, "do not download mermaid-ascii")
	noStart := fs.Bool("no-start", false, "do not start or reload the server")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg := config.Config{
		ListenAddr:     *listenAddr,
		LogLevel:       *logLevel,
		LogFormat:      *logFormat,
		Locale:         *locale,
		SessionTTL:     *sessionTTL,
		SweepSchedule:  *sweepSchedule,
		MaxUploadBytes: *maxUpload,
		BinDir:         *binDir,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := config.SettingsPath()
	if err := writeSettings(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Config written to %s\n", path)

	if !*skipDownload {
		client := &http.Client{Timeout: 60 * time.Second}
		installMermaidASCII(cfg.BinDir, client, stdout, stderr)
	}

	if *noStart {
		return nil
	}
	// Signal running server to reload, or start a new one.
	if signalRunningServer(stdout) {
		return nil
	}
	return runServe(ctx, nil, stderr)
}

// writeSettings stores cfg as settings.json, durations in Go notation.
func writeSettings(path string, cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	out := map[string]any{
		"listen_addr":      cfg.ListenAddr,
		"log_level":        cfg.LogLevel,
		"log_format":       cfg.LogFormat,
		"locale":           cfg.Locale,
		"session_ttl":      cfg.SessionTTL.String(),
		"sweep_schedule":   cfg.SweepSchedule,
		"max_upload_bytes": cfg.MaxUploadBytes,
		"bin_dir":          cfg.BinDir,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// signalRunningServer sends SIGHUP to a running n8nview server (via pidfile).
// Returns true if the server was signaled (caller should NOT start a new one).
func signalRunningServer(stdout io.Writer) bool {
	data, err := os.ReadFile(pidPath())
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Check if process is alive.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return false
	}
	fmt.Fprintf(stdout, "Signaled running server (PID %d) to reload configuration\n", pid)
	return true
}

// installMermaidASCII downloads the mermaid-ascii binary to binDir.
// Non-fatal: prints a warning and continues if the download fails.
func installMermaidASCII(binDir string, client httpGetter, stdout, stderr io.Writer) {
	destPath := filepath.Join(binDir, "mermaid-ascii")

	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(stdout, "mermaid-ascii already installed at %s\n", destPath)
		return
	}

	assetName, err := mermaidASCIIAssetName(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v, ASCII diagrams will use the built-in renderer\n", err)
		return
	}

	url := fmt.Sprintf("https://github.com/AlexanderGrooff/mermaid-ascii/releases/download/%s/%s",
		mermaidASCIIVersion, assetName)
	fmt.Fprintf(stdout, "Downloading mermaid-ascii %s...\n", mermaidASCIIVersion)

	if err := installFromURL(url, assetName, binDir, client); err != nil {
		fmt.Fprintf(stderr, "Warning: %v, ASCII diagrams will use the built-in renderer\n", err)
		_ = os.Remove(destPath)
		return
	}
	fmt.Fprintf(stdout, "mermaid-ascii installed to %s\n", destPath)
}

// installFromURL downloads a release archive, checks it against the pinned
// checksum and extracts the mermaid-ascii binary into binDir.
func installFromURL(url, assetName, binDir string, client httpGetter) error {
	if !strings.HasSuffix(assetName, ".tar.gz") {
		return fmt.Errorf("unsupported archive format: %s", assetName)
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", binDir, err)
	}

	tmpPath, err := downloadToTempFile(url, binDir, client)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer os.Remove(tmpPath)

	expected, ok := mermaidASCIIChecksums[assetName]
	if !ok {
		return fmt.Errorf("no known checksum for %s", assetName)
	}
	if err := verifyChecksum(tmpPath, expected); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("cannot open archive: %w", err)
	}
	defer f.Close()

	if err := extractTarGz(f, binDir, "mermaid-ascii"); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return os.Chmod(filepath.Join(binDir, "mermaid-ascii"), 0o755)
}

// mermaidASCIIAssetName returns the GitHub release asset name for a platform.
func mermaidASCIIAssetName(goos, goarch string) (string, error) {
	osName := ""
	switch goos {
	case "darwin":
		osName = "Darwin"
	case "linux":
		osName = "Linux"
	default:
		return "", fmt.Errorf("mermaid-ascii: unsupported OS %q", goos)
	}

	archName := ""
	switch goarch {
	case "amd64":
		archName = "x86_64"
	case "arm64":
		archName = "arm64"
	case "386":
		archName = "i386"
	default:
		return "", fmt.Errorf("mermaid-ascii: unsupported architecture %q", goarch)
	}

	return fmt.Sprintf("mermaid-ascii_%s_%s.tar.gz", osName, archName), nil
}

// extractTarGz extracts a specific file from a tar.gz archive into destDir.
func extractTarGz(r io.Reader, destDir, targetName string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("file %q not found in archive", targetName)
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}

		// Match by base name (archive may include directory prefix).
		if filepath.Base(hdr.Name) != targetName {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		destPath := filepath.Join(destDir, targetName)
		f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return fmt.Errorf("create %s: %w", destPath, err)
		}
		if _, err := io.Copy(f, tr); err != nil { //nolint:gosec // bounded by tar header size
			f.Close()
			return fmt.Errorf("write %s: %w", destPath, err)
		}
		return f.Close()
	}
}
