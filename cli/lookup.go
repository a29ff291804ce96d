package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/render"
	"github.com/ka2n/sitelens/state"
	"github.com/ka2n/sitelens/view"
	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var (
	lookupFormat = formatFlag{Value: formatAuto}

	lookupCmd = &cobra.Command{
		Use:   "lookup <domain>",
		Short: "Print site data and related sites for a domain",
		Long: `Fetch site data and related sites for a domain and print both.
The domain is sent exactly as given.`,
		Args: cobra.ExactArgs(1),
		RunE: runLookup,
	}
)

func init() {
	lookupCmd.Flags().VarP(&lookupFormat, "format", "f", "output format: auto, html, markdown, styled")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	domain := args[0]

	templates, err := render.New()
	if err != nil {
		return failure.Wrap(err)
	}

	client := api.NewClient(cfg.DirectRelayURL(), cfg.Limit)
	var siteRegion, linksRegion view.Buffer
	page := view.NewPage(cmd.Context(), state.New(client), templates, &siteRegion, &linksRegion)
	defer page.Close()

	page.Input.Submit(domain)
	page.Wait()

	out := cmd.OutOrStdout()
	if err := printLookup(out, resolveFormat(lookupFormat.Value, out), &siteRegion, &linksRegion); err != nil {
		return failure.Wrap(err)
	}

	if siteRegion.Failed() || linksRegion.Failed() {
		return failure.New(LookupFailed,
			failure.Message("Lookup for "+domain+" was incomplete"),
			failure.Context{"domain": domain},
		)
	}
	return nil
}

// resolveFormat picks styled output for terminals and markdown otherwise
func resolveFormat(format string, out io.Writer) string {
	if format != formatAuto {
		return format
	}
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return formatStyled
	}
	return formatMarkdown
}

func printLookup(out io.Writer, format string, siteRegion, linksRegion *view.Buffer) error {
	sections := []struct {
		title  string
		region *view.Buffer
	}{
		{"Site data", siteRegion},
		{"Related sites", linksRegion},
	}

	var terminal *render.Terminal
	if format != formatHTML {
		var err error
		terminal, err = render.NewTerminal(100, format == formatStyled)
		if err != nil {
			return err
		}
	}

	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fragments := s.region.Fragments()
		if format == formatHTML {
			fmt.Fprintf(out, "<!-- %s -->\n%s", s.title, strings.Join(fragments, ""))
			continue
		}

		body, err := terminal.Render(append([]string{"<h2>" + s.title + "</h2>"}, fragments...))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.TrimRight(body, "\n"))
	}
	return nil
}
