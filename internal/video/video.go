package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/xls2ass/internal/ffmpeg"
)

// video file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
}

// defines interface for video processing operations
type Processor interface {
	// retrieves video file information
	GetInfo(ctx context.Context, videoPath string) (*Info, error)

	// muxes a subtitle file into a copy of the video
	EmbedSubtitles(
		ctx context.Context,
		videoPath, subsPath, outputPath string,
		opts EmbedOptions,
	) error
}

// holds options for subtitle embedding
type EmbedOptions struct {
	Language string // ISO 639-2 code for the subtitle track, e.g. "eng"
	Title    string // track title shown by players
	Default  bool   // mark the subtitle track as default
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	locate func() (ffmpegbin.BinaryPaths, error)
}

func NewProcessor() *DefaultProcessor {
	return &DefaultProcessor{locate: ffmpegbin.Ensure}
}

// uses fixed binary locations instead of searching for them
func NewProcessorWithPaths(paths ffmpegbin.BinaryPaths) *DefaultProcessor {
	return &DefaultProcessor{
		locate: func() (ffmpegbin.BinaryPaths, error) { return paths, nil },
	}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// retrieves video file information
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	paths, err := p.locate()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, paths.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		videoPath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(out.Bytes())
	if err != nil {
		return nil, err
	}
	info.Path = videoPath
	return info, nil
}

func parseProbe(data []byte) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	if probe.Format.Duration != "" {
		seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	videoFound := false
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if videoFound {
				continue
			}
			videoFound = true
			info.Width = s.Width
			info.Height = s.Height
			info.Codec = s.CodecName
			rate, err := ParseFrameRate(s.RFrameRate)
			if err != nil || rate == 0 {
				rate, err = ParseFrameRate(s.AvgFrameRate)
			}
			if err == nil {
				info.FrameRate = rate
			}
		case "audio":
			info.HasAudio = true
		}
	}

	if !videoFound {
		return nil, errors.New("no video stream found")
	}
	return info, nil
}

// ParseFrameRate reads ffprobe rates such as "25", "30000/1001" or "23.976".
// "0/0" means unknown and yields 0.
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty frame rate")
	}

	num, den, isFraction := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	if !isFraction {
		return n, nil
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

// muxes subtitles into a Matroska copy of the video without re-encoding
func (p *DefaultProcessor) EmbedSubtitles(
	ctx context.Context,
	videoPath, subsPath, outputPath string,
	opts EmbedOptions,
) error {
	for _, path := range []string{videoPath, subsPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", path)
		}
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	paths, err := p.locate()
	if err != nil {
		return err
	}

	args := embedStream(videoPath, subsPath, outputPath, opts).GetArgs()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, paths.FFmpeg, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mux failed: %w: %s", err, lastLine(stderr.String()))
	}

	return nil
}

func embedStream(videoPath, subsPath, outputPath string, opts EmbedOptions) *ffmpeg.Stream {
	kwargs := ffmpeg.KwArgs{
		"c": "copy",
		"f": "matroska",
	}
	if opts.Language != "" {
		kwargs["metadata:s:s:0"] = []string{"language=" + opts.Language}
	}
	if opts.Title != "" {
		kwargs["metadata:s:s:0"] = append(
			metadataValues(kwargs["metadata:s:s:0"]),
			"title="+opts.Title,
		)
	}
	if opts.Default {
		kwargs["disposition:s:0"] = "default"
	}

	return ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(videoPath), ffmpeg.Input(subsPath)},
		outputPath,
		kwargs,
	).OverWriteOutput()
}

func metadataValues(v interface{}) []string {
	if values, ok := v.([]string); ok {
		return values
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
