package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gmaps2nav/config"
	"gmaps2nav/contact"
	"gmaps2nav/navurl"
	"gmaps2nav/pipeline"
)

const (
	outputVCard = "vcard"
	outputJSON  = "json"
)

var resolveOptions = struct {
	Format       string
	ShowResolved bool
	Concurrency  int
	MaxHops      int
	Timeout      time.Duration
	Browser      bool
	Trace        bool
}{}

var resolveCmd = &cobra.Command{
	Use:   "resolve [share-url...]",
	Short: "Print the navigation URL for each share link",
	Long: `Resolves each share link given as an argument, or one per line on standard
input when no arguments are given, and prints its navigation URL. When no
destination can be found the resolved URL is printed instead. Failures are
reported on standard error and do not stop the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyResolveFlags(cmd, settings)

		format, pipelineFormat, err := parseOutputFormat(resolveOptions.Format)
		if err != nil {
			return err
		}

		inputs := args
		if len(inputs) == 0 {
			if inputs, err = readInputs(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("reading standard input: %w", err)
			}
		}
		if len(inputs) == 0 {
			return errors.New("no share links given")
		}

		p := newPipeline(settings, pipelineFormat)

		var bar *progressbar.ProgressBar
		if len(inputs) > 1 && isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(inputs),
				progressbar.OptionSetDescription("Resolving"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		outcomes := p.ResolveAll(cmd.Context(), inputs, settings.Batch.Concurrency, func(pipeline.Outcome) {
			if bar != nil {
				_ = bar.Add(1)
			}
		})

		failed := writeOutcomes(cmd.OutOrStdout(), cmd.ErrOrStderr(), outcomes, format, resolveOptions.ShowResolved)
		if failed == len(outcomes) {
			return fmt.Errorf("all %d inputs failed", failed)
		}
		return nil
	},
}

// applyResolveFlags lets explicitly set flags override loaded settings.
func applyResolveFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Batch.Concurrency = resolveOptions.Concurrency
	}
	if flags.Changed("max-hops") {
		cfg.Resolver.MaxHops = resolveOptions.MaxHops
	}
	if flags.Changed("timeout") {
		cfg.Resolver.HopTimeout = resolveOptions.Timeout
	}
	if flags.Changed("browser") && resolveOptions.Browser {
		cfg.Resolver.Mode = config.ModeBrowser
	}
	if flags.Changed("trace") {
		cfg.Resolver.Trace = resolveOptions.Trace
	}
}

// parseOutputFormat returns the output format and the URL format the
// pipeline should render.
func parseOutputFormat(s string) (string, navurl.Format, error) {
	switch strings.ToLower(s) {
	case outputVCard, outputJSON:
		return strings.ToLower(s), navurl.FormatDirections, nil
	}
	f, err := navurl.ParseFormat(s)
	if err != nil {
		return "", "", fmt.Errorf("unknown format %q (want dir, intent, geo, vcard or json)", s)
	}
	return string(f), f, nil
}

// readInputs returns the non-blank lines of r.
func readInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			inputs = append(inputs, line)
		}
	}
	return inputs, scanner.Err()
}

type jsonLine struct {
	Input string `json:"input"`
	*pipeline.Result
}

// writeOutcomes prints outcomes in input order and returns how many failed.
func writeOutcomes(out, errOut io.Writer, outcomes []pipeline.Outcome, format string, showResolved bool) int {
	failed := 0
	enc := json.NewEncoder(out)

	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(errOut, "Error processing %s: %v\n", o.Input, o.Err)
			continue
		}
		res := o.Result

		switch format {
		case outputJSON:
			if err := enc.Encode(jsonLine{Input: o.Input, Result: res}); err != nil {
				failed++
				fmt.Fprintf(errOut, "Error processing %s: %v\n", o.Input, err)
			}
		case outputVCard:
			if !res.Found() {
				failed++
				fmt.Fprintf(errOut, "Error processing %s: no destination found in %s\n", o.Input, res.ResolvedURL)
				continue
			}
			if err := contact.Encode(out, res.Debug.Parsed, res.NavigationURL); err != nil {
				failed++
				fmt.Fprintf(errOut, "Error processing %s: %v\n", o.Input, err)
			}
		default:
			if showResolved {
				fmt.Fprintf(out, "%s\t%s\n", res.ResolvedURL, res.NavigationURL)
				continue
			}
			line := res.NavigationURL
			if line == "" {
				line = res.ResolvedURL
			}
			fmt.Fprintln(out, line)
		}
	}
	return failed
}

func init() {
	flags := resolveCmd.Flags()
	flags.StringVarP(&resolveOptions.Format, "format", "f", "dir", "output: dir, intent, geo, vcard or json")
	flags.BoolVar(&resolveOptions.ShowResolved, "show-resolved", false, "print the resolved URL and the navigation URL separated by a tab")
	flags.IntVarP(&resolveOptions.Concurrency, "concurrency", "c", 4, "links resolved in parallel")
	flags.IntVar(&resolveOptions.MaxHops, "max-hops", 10, "maximum redirects followed per link")
	flags.DurationVar(&resolveOptions.Timeout, "timeout", 10*time.Second, "timeout for each hop")
	flags.BoolVar(&resolveOptions.Browser, "browser", false, "resolve in headless Chrome instead of plain HTTP")
	flags.BoolVar(&resolveOptions.Trace, "trace", false, "dump request and response headers of every hop to stderr")
}
