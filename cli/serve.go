package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/relay"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/web"
	"github.com/morikuni/failure/v2"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	openFlag bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser widget and the relay",
		Long: `Serve the lookup page, its websocket session endpoint and the
same-origin relay to the site-ranking API on the configured address.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	relayCmd = &cobra.Command{
		Use:   "relay",
		Short: "Serve only the relay to the site-ranking API",
		Args:  cobra.NoArgs,
		RunE:  runRelay,
	}
)

func init() {
	serveCmd.Flags().BoolVarP(&openFlag, "open", "o", false, "Open the page in a browser")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(relayCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	relayHandler, err := relay.New(cfg.Upstream, nil)
	if err != nil {
		return failure.Wrap(err)
	}
	templates, err := render.New()
	if err != nil {
		return failure.Wrap(err)
	}

	client := api.NewClient(cfg.ServeRelayURL(web.RelayPath), cfg.Limit)
	srv := web.New(cfg, relayHandler, &web.Widget{
		Templates: templates,
		Fetcher:   client,
	})

	if openFlag {
		pageURL := cfg.LocalURL("/")
		go func() {
			// give the listener a moment before the browser connects
			time.Sleep(200 * time.Millisecond)
			if err := browser.OpenURL(pageURL); err != nil {
				log.Warn("Could not open browser", "url", pageURL, "error", err)
			}
		}()
	}

	return serveUntilSignal(cmd.Context(), srv)
}

func runRelay(cmd *cobra.Command, args []string) error {
	relayHandler, err := relay.New(cfg.Upstream, nil)
	if err != nil {
		return failure.Wrap(err)
	}
	return serveUntilSignal(cmd.Context(), web.New(cfg, relayHandler, nil))
}

// serveUntilSignal runs srv until it fails or the process is interrupted
func serveUntilSignal(ctx context.Context, srv *web.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return failure.Wrap(err)
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
