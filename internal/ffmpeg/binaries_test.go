package ffmpeg

import (
	"archive/zip"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip", false},
		{"plan9", "386", "", true},
	}
	for _, tt := range tests {
		got, err := assetForPlatform(tt.goos, tt.goarch)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("assetForPlatform(%s, %s) = %q, %v; want %q", tt.goos, tt.goarch, got, err, tt.want)
		}
	}
}

func TestBinaryName(t *testing.T) {
	tests := map[string]string{
		"ffmpeg":            "ffmpeg",
		"bin/FFmpeg.exe":    "ffmpeg",
		"ffprobe":           "ffprobe",
		"x/ffprobe.exe":     "ffprobe",
		"ffplay":            "",
		"readme-ffmpeg.txt": "",
	}
	for in, want := range tests {
		if got := binaryName(in); got != want {
			t.Errorf("binaryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureUsesEnvironment(t *testing.T) {
	t.Setenv(envFFmpegPath, "/opt/ff/ffmpeg")
	t.Setenv(envFFprobePath, "/opt/ff/ffprobe")

	paths, err := ensure(t.TempDir())
	if err != nil {
		t.Fatalf("ensure error: %v", err)
	}
	if paths.FFmpeg != "/opt/ff/ffmpeg" || paths.Origin != OriginEnv {
		t.Errorf("unexpected paths %+v", paths)
	}
}

func TestLookup(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cache location is controlled through XDG_CACHE_HOME on linux only")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("PATH", "")
	t.Setenv(envFFmpegPath, "")
	t.Setenv(envFFprobePath, "")

	if paths, ok := Lookup(); ok {
		t.Fatalf("expected nothing installed, got %+v", paths)
	}

	dir := installDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	cached := cachedPaths(dir)
	for _, p := range []string{cached.FFmpeg, cached.FFprobe} {
		if err := os.WriteFile(p, []byte("bin"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	paths, ok := Lookup()
	if !ok || paths.Origin != OriginCache || paths.FFmpeg != cached.FFmpeg {
		t.Errorf("expected cached binaries, got %+v (found=%v)", paths, ok)
	}

	t.Setenv(envFFmpegPath, "/opt/ff/ffmpeg")
	t.Setenv(envFFprobePath, "/opt/ff/ffprobe")
	if paths, ok := Lookup(); !ok || paths.Origin != OriginEnv {
		t.Errorf("expected environment override, got %+v (found=%v)", paths, ok)
	}
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"ffmpeg" + executableSuffix(), "ffprobe" + executableSuffix(), "readme.txt"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte("binary " + name))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	install := filepath.Join(dir, "install")
	if err := extractArchive(archive, install); err != nil {
		t.Fatalf("extractArchive error: %v", err)
	}
	paths := cachedPaths(install)
	if !binariesExist(paths.FFmpeg, paths.FFprobe) {
		t.Error("expected both binaries to be extracted")
	}
	if _, err := os.Stat(filepath.Join(install, "readme.txt")); !os.IsNotExist(err) {
		t.Error("unrelated entries should not be extracted")
	}
}

func TestExtractArchiveMissingBinary(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	f, _ := os.Create(archive)
	zw := zip.NewWriter(f)
	w, _ := zw.Create("ffmpeg")
	_, _ = w.Write([]byte("x"))
	_ = zw.Close()
	_ = f.Close()

	if err := extractArchive(archive, filepath.Join(dir, "out")); err == nil {
		t.Error("expected error when ffprobe is missing")
	}
}
