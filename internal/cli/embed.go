package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/xls2ass/internal/ffmpeg"
	"github.com/mgpai22/xls2ass/internal/video"
)

var embedCmd = &cobra.Command{
	Use:   "embed [video] [subtitles]",
	Short: "Mux a subtitle file into a video as a soft subtitle track",
	Long: `Copy the video's streams into a Matroska file and add the subtitles
as a selectable track. Nothing is re-encoded and the subtitles are not
burned in.

Examples:
  xls2ass embed trailer.mp4 trailer.ass
  xls2ass embed trailer.mp4 trailer.ass --track-language eng --title English -o out.mkv`,
	Args: cobra.ExactArgs(2),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().String("track-language", "", "ISO 639-2 language code for the subtitle track (e.g., eng)")
	embedCmd.Flags().String("title", "", "Subtitle track title")
	embedCmd.Flags().Bool("default", true, "Mark the subtitle track as default")
}

// reports whether ffmpeg has to be downloaded before it can run
func warnMissingFFmpeg() bool {
	if paths, ok := ffmpeg.Lookup(); ok {
		logger.Debugw("Using ffmpeg", "path", paths.FFmpeg, "origin", paths.Origin)
		return false
	}
	logger.Warnw("ffmpeg not installed, downloading a static build",
		"hint", "install ffmpeg or set XLS2ASS_FFMPEG_PATH and XLS2ASS_FFPROBE_PATH",
	)
	return true
}

// trailer.mp4 -> trailer.subs.mkv unless output is given
func embedOutputPath(videoPath, output string) (string, error) {
	if output == "" {
		output = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".subs.mkv"
	}
	if a, _ := filepath.Abs(output); a != "" {
		if b, _ := filepath.Abs(videoPath); a == b {
			return "", fmt.Errorf("output %s would overwrite the input video", output)
		}
	}
	return output, nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	videoPath, subsPath := args[0], args[1]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outputPath, _ := cmd.Flags().GetString("output")
	language, _ := cmd.Flags().GetString("track-language")
	title, _ := cmd.Flags().GetString("title")
	isDefault, _ := cmd.Flags().GetBool("default")

	for _, p := range []string{videoPath, subsPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	outputPath, err := embedOutputPath(videoPath, outputPath)
	if err != nil {
		return err
	}
	warnMissingFFmpeg()

	logger.Infow("Embedding subtitles",
		"video", videoPath,
		"subtitles", subsPath,
		"output", outputPath,
	)

	processor := video.NewProcessor()
	if err := processor.EmbedSubtitles(ctx, videoPath, subsPath, outputPath, video.EmbedOptions{
		Language: language,
		Title:    title,
		Default:  isDefault,
	}); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Video with subtitles: %s\n", absOutput)
	return nil
}
