// Package ffmpeg locates the ffmpeg and ffprobe executables used to read
// video frame rates and mux subtitles, fetching a static build when neither
// the environment nor PATH provides one.
package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	envFFmpegPath  = "XLS2ASS_FFMPEG_PATH"
	envFFprobePath = "XLS2ASS_FFPROBE_PATH"
)

// where a pair of binaries was found
type Origin string

const (
	OriginEnv      Origin = "env"
	OriginPath     Origin = "path"
	OriginCache    Origin = "cache"
	OriginEmbedded Origin = "embedded"
	OriginDownload Origin = "download"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
	Origin  Origin
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves the binaries once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = ensure(installDir())
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// Lookup is Ensure without the download: environment, PATH, then cache.
func Lookup() (BinaryPaths, bool) {
	if paths, ok := lookupInstalled(); ok {
		return paths, true
	}
	dir := installDir()
	paths := cachedPaths(dir)
	if binariesExist(paths.FFmpeg, paths.FFprobe) {
		paths.Origin = OriginCache
		return paths, true
	}
	return BinaryPaths{}, false
}

func lookupInstalled() (BinaryPaths, bool) {
	ffmpegPath := os.Getenv(envFFmpegPath)
	ffprobePath := os.Getenv(envFFprobePath)
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath, Origin: OriginEnv}, true
	}

	if ffmpegPath == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath, Origin: OriginPath}, true
	}
	return BinaryPaths{}, false
}

func installDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return filepath.Join(
		cacheDir,
		"xls2ass",
		"ffmpeg",
		ffmpegReleaseVersion,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

func cachedPaths(dir string) BinaryPaths {
	exeSuffix := executableSuffix()
	return BinaryPaths{
		FFmpeg:  filepath.Join(dir, "ffmpeg"+exeSuffix),
		FFprobe: filepath.Join(dir, "ffprobe"+exeSuffix),
	}
}

func ensure(dir string) (BinaryPaths, error) {
	if paths, ok := lookupInstalled(); ok {
		return paths, nil
	}

	paths := cachedPaths(dir)
	if binariesExist(paths.FFmpeg, paths.FFprobe) {
		paths.Origin = OriginCache
		return paths, nil
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	embeddedUsed, err := extractEmbedded(assetName, dir)
	if err != nil {
		return BinaryPaths{}, err
	}
	paths.Origin = OriginEmbedded
	if !embeddedUsed {
		if err := downloadAndExtract(assetName, dir); err != nil {
			return BinaryPaths{}, err
		}
		paths.Origin = OriginDownload
	}

	if !binariesExist(paths.FFmpeg, paths.FFprobe) {
		return BinaryPaths{}, fmt.Errorf("ffmpeg binaries not found after %s extraction", paths.Origin)
	}
	if err := makeExecutable(paths.FFmpeg, paths.FFprobe); err != nil {
		return BinaryPaths{}, err
	}

	return paths, nil
}

func makeExecutable(paths ...string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	for _, p := range paths {
		if err := os.Chmod(p, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	var suffix string
	switch {
	case goos == "linux" && goarch == "amd64":
		suffix = "linux-64"
	case goos == "linux" && goarch == "arm64":
		suffix = "linux-arm-64"
	case goos == "darwin" && goarch == "amd64":
		suffix = "macos-64"
	case goos == "windows" && goarch == "amd64":
		suffix = "win-64"
	default:
		return "", fmt.Errorf("unsupported platform for bundled ffmpeg: %s/%s", goos, goarch)
	}
	return "ffmpeg-" + ffmpegReleaseVersion + "-" + suffix + ".zip", nil
}

func downloadAndExtract(assetName, dir string) error {
	url := fmt.Sprintf("%s/v%s/%s", ffmpegReleaseBaseURL, ffmpegReleaseVersion, assetName)
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	if resp == nil {
		return errors.New("download ffmpeg bundle: nil response")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	return extractArchiveFromReader(assetName, resp.Body, dir)
}

func extractEmbedded(assetName, dir string) (bool, error) {
	reader, ok, err := openEmbeddedAsset(assetName)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _ = reader.Close() }()

	return true, extractArchiveFromReader(assetName, reader, dir)
}

// zip needs random access, so the stream is spooled to a temp file first
func extractArchiveFromReader(assetName string, reader io.Reader, dir string) error {
	tmpFile, err := os.CreateTemp("", "xls2ass-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, reader); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, dir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, dir string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	dest := cachedPaths(dir)
	var ffmpegFound, ffprobeFound bool
	for _, file := range zipReader.File {
		switch binaryName(file.Name) {
		case "ffmpeg":
			if err := extractZipFile(file, dest.FFmpeg); err != nil {
				return err
			}
			ffmpegFound = true
		case "ffprobe":
			if err := extractZipFile(file, dest.FFprobe); err != nil {
				return err
			}
			ffprobeFound = true
		}
	}

	if !ffmpegFound || !ffprobeFound {
		return fmt.Errorf("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg output dir: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create ffmpeg binary: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write ffmpeg binary: %w", err)
	}
	return nil
}

func binariesExist(ffmpegPath, ffprobePath string) bool {
	return fileExists(ffmpegPath) && fileExists(ffprobePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// "ffmpeg", "ffprobe" or "" for any other archive entry
func binaryName(entry string) string {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(entry)), ".exe")
	switch name {
	case "ffmpeg", "ffprobe":
		return name
	}
	return ""
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
