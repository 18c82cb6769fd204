// Command daygrid prints the timeline of one day to the terminal, laid out
// the same way the API lays it out.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cleberrangel/clickup-timeline-api/internal/client"
	"github.com/cleberrangel/clickup-timeline-api/internal/config"
	"github.com/cleberrangel/clickup-timeline-api/internal/ics"
	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/service"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

var Version = "dev"

type options struct {
	icsPaths   []string
	listIDs    []string
	date       string
	scale      float64
	tz         string
	configPath string
	width      int
	verbose    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "daygrid",
		Short:   "Mostra a grade de um dia no terminal",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := run(cmd.Context(), opts, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&opts.icsPaths, "ics", nil, "Arquivo ou URL ICS (repetível)")
	cmd.Flags().StringSliceVar(&opts.listIDs, "list", nil, "ID de lista do ClickUp; usa TOKEN_CLICKUP (repetível)")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Dia no formato YYYY-MM-DD (padrão: hoje)")
	cmd.Flags().Float64VarP(&opts.scale, "scale", "s", 0, "Pixels por hora (padrão: escala inicial da configuração)")
	cmd.Flags().StringVar(&opts.tz, "tz", "", "Fuso IANA (padrão: TIMEZONE ou o fuso local)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Arquivo YAML de ajuste da linha do tempo")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 60, "Largura da coluna de itens")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Loga as buscas nas fontes")

	return cmd
}

// run resolves the day and renders it.
func run(ctx context.Context, opts *options, now time.Time) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	level := "error"
	if opts.verbose {
		level = "debug"
	}
	logger.InitWithWriter(level, false, os.Stderr)

	if len(opts.icsPaths) == 0 && len(opts.listIDs) == 0 {
		return "", fmt.Errorf("informe ao menos um --ics ou --list")
	}

	tz := opts.tz
	if tz == "" {
		tz = os.Getenv("TIMEZONE")
	}
	loc, err := config.LoadLocation(tz)
	if err != nil {
		return "", err
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = os.Getenv("TIMELINE_CONFIG")
	}
	tl, err := config.LoadTimeline(configPath)
	if err != nil {
		return "", fmt.Errorf("carregar %s: %w", configPath, err)
	}

	cfg := service.DayServiceConfig{
		Feeds:    newFileFeeds(),
		ICSURLs:  opts.icsPaths,
		ListIDs:  opts.listIDs,
		Location: loc,
		CacheTTL: tl.CacheTTL,
		Metrics:  metrics.New(),
	}
	if len(opts.listIDs) > 0 {
		token := os.Getenv("TOKEN_CLICKUP")
		if token == "" {
			return "", fmt.Errorf("TOKEN_CLICKUP: %w", config.ErrMissingToken)
		}
		cfg.Tasks = client.NewClient(token)
	}
	days := service.NewDayService(cfg)
	defer days.Stop()

	day := days.Today(now)
	if opts.date != "" {
		if day, err = days.ParseDate(opts.date); err != nil {
			return "", err
		}
	}

	items, err := days.ItemsForDay(ctx, day)
	if err != nil {
		return "", err
	}

	scale := opts.scale
	if scale == 0 {
		scale = tl.Scale.Initial
	}
	layout := service.BuildDayLayout(items, timeline.SnapshotAt(tl.Scale, scale), now, loc)
	return renderDay(layout, tl.RowPixels, opts.width), nil
}

// fileFeeds reads local calendar files and fetches anything that looks like
// a URL.
type fileFeeds struct {
	remote *ics.Fetcher
}

func newFileFeeds() *fileFeeds {
	return &fileFeeds{remote: ics.NewFetcher()}
}

func (f *fileFeeds) Fetch(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return f.remote.Fetch(ctx, path)
	}
	return os.ReadFile(path)
}
