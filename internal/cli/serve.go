package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/xls2ass/internal/config"
	"github.com/mgpai22/xls2ass/internal/notify"
	"github.com/mgpai22/xls2ass/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Long: `Serve spreadsheet conversion over HTTP.

Settings come from the environment (XLS2ASS_PORT, XLS2ASS_MAX_UPLOAD_MB,
NATS_URL, NATS_TOKEN, XLS2ASS_SUBJECT); flags override them. When NATS_URL
is set, every finished conversion is announced on the subject.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from XLS2ASS_PORT or 8080)")
	serveCmd.Flags().String("nats-url", "", "NATS server URL for conversion events")
	serveCmd.Flags().String("subject", "", "NATS subject for conversion events")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}
	if url, _ := cmd.Flags().GetString("nats-url"); url != "" {
		cfg.NatsURL = url
	}
	if subject, _ := cmd.Flags().GetString("subject"); subject != "" {
		cfg.Subject = subject
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.NatsURL != "" {
		nats, err := notify.NewNATSPublisher(cfg.NatsURL, cfg.NatsToken, cfg.Subject, logger.Named("nats"))
		if err != nil {
			return err
		}
		publisher = nats
		logger.Infow("NATS connected", "url", cfg.NatsURL, "subject", cfg.Subject)
	} else {
		logger.Infow("NATS not configured, conversion events disabled")
	}
	defer publisher.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(cfg, publisher, logger.Named("http")).Start(ctx)
}
