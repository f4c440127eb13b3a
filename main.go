package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reiniercriel/menapiai-data-pipeline/config"
	"github.com/reiniercriel/menapiai-data-pipeline/ingest"
	"github.com/reiniercriel/menapiai-data-pipeline/services"
	"github.com/reiniercriel/menapiai-data-pipeline/storage"
	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

const dateLayout = "2006-01-02"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var debug bool

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "MENAPI AI data pipeline: housing and employment trends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			if debug {
				a.cfg.Debug = true
			}
			a.logger = utils.NewLogger(a.cfg.Debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newIngestCmd(a))
	root.AddCommand(newTransformCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newSampleCmd(a))
	return root
}

func newIngestCmd(a *app) *cobra.Command {
	var localPath string
	var forceRefresh bool

	cmd := &cobra.Command{
		Use:       "ingest {housing|employment}",
		Short:     "Download and cache a raw source artifact",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"housing", "employment"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error
			switch args[0] {
			case "housing":
				path, err = ingest.NewHousingIngestor(a.cfg, a.logger).Ingest(localPath, forceRefresh)
			case "employment":
				path, err = ingest.NewEmploymentIngestor(a.cfg, a.logger).Ingest(localPath, forceRefresh)
			default:
				return fmt.Errorf("unknown source %q (housing or employment)", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&localPath, "local-path", "", "use a local raw artifact instead of downloading")
	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "ignore the cached artifact and download fresh data")
	return cmd
}

type windowFlags struct {
	startDate string
	endDate   string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.startDate, "start-date", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&w.endDate, "end-date", "", "window end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")
}

func (w *windowFlags) parse() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, w.startDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid --start-date %q: %w", w.startDate, err)
	}
	end, err = time.Parse(dateLayout, w.endDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid --end-date %q: %w", w.endDate, err)
	}
	if start.After(end) {
		return start, end, fmt.Errorf("--start-date must be on or before --end-date")
	}
	return start, end, nil
}

func newTransformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Normalize a cached raw artifact into a partitioned canonical dataset",
	}

	var (
		hWindow       windowFlags
		hCity, hState string
		hLocalPath    string
		hForce        bool
	)
	housing := &cobra.Command{
		Use:   "housing",
		Short: "Transform Redfin housing data to the canonical housing_trends dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := hWindow.parse()
			if err != nil {
				return err
			}
			return a.runHousing(hCity, hState, start, end, hLocalPath, hForce)
		},
	}
	housing.Flags().StringVar(&hCity, "city", "", "city name, e.g. Portland")
	housing.Flags().StringVar(&hState, "state", "", "full state name or 2-letter abbreviation")
	_ = housing.MarkFlagRequired("city")
	_ = housing.MarkFlagRequired("state")
	hWindow.register(housing)
	housing.Flags().StringVar(&hLocalPath, "local-path", "", "use a local raw artifact instead of downloading")
	housing.Flags().BoolVar(&hForce, "force-refresh", false, "ignore the cached artifact and download fresh data")

	var (
		eWindow    windowFlags
		eMetro     string
		eLocalPath string
		eForce     bool
	)
	employment := &cobra.Command{
		Use:   "employment",
		Short: "Transform BLS employment data to the canonical employment_trends dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := eWindow.parse()
			if err != nil {
				return err
			}
			return a.runEmployment(eMetro, start, end, eLocalPath, eForce)
		},
	}
	employment.Flags().StringVar(&eMetro, "metro", "", `metro area name, e.g. "Portland-Vancouver-Hillsboro, OR-WA"`)
	_ = employment.MarkFlagRequired("metro")
	eWindow.register(employment)
	employment.Flags().StringVar(&eLocalPath, "local-path", "", "use a local raw artifact instead of downloading")
	employment.Flags().BoolVar(&eForce, "force-refresh", false, "ignore the cached artifact and download fresh data")

	cmd.AddCommand(housing, employment)
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		window      windowFlags
		city, state string
		metro       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the housing and employment pipelines side by side",
		Long: "Runs both source pipelines. The two sources own distinct caches and\n" +
			"output datasets, so they execute concurrently.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.parse()
			if err != nil {
				return err
			}

			pool := utils.NewWorkerPool(2)
			pool.Submit("housing pipeline", func() error {
				return a.runHousing(city, state, start, end, "", false)
			})
			pool.Submit("employment pipeline", func() error {
				return a.runEmployment(metro, start, end, "", false)
			})

			errs := pool.Wait()
			for _, err := range errs {
				a.logger.Error("%v", err)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of 2 pipelines failed", len(errs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city name for the housing pipeline")
	cmd.Flags().StringVar(&state, "state", "", "state for the housing pipeline")
	cmd.Flags().StringVar(&metro, "metro", "", "metro area name for the employment pipeline")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("metro")
	window.register(cmd)
	return cmd
}

func newSampleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "sample {housing|jobs}",
		Short:     "Write fixed placeholder rows for a basic source stub",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"housing", "jobs"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error
			switch args[0] {
			case "housing":
				path, err = ingest.IngestBasicHousing(a.cfg, a.logger)
			case "jobs":
				path, err = ingest.IngestBasicJobs(a.cfg, a.logger)
			default:
				return fmt.Errorf("unknown sample source %q (housing or jobs)", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// runHousing executes ingest → normalize → write for the Redfin source.
func (a *app) runHousing(city, state string, start, end time.Time, localPath string, forceRefresh bool) error {
	rawPath, err := ingest.NewHousingIngestor(a.cfg, a.logger).Ingest(localPath, forceRefresh)
	if err != nil {
		return err
	}

	normalizer := services.NewHousingNormalizer(a.logger)
	byType, err := normalizer.NormalizeFile(rawPath, city, state, start, end)
	if err != nil {
		return err
	}

	writer := storage.NewParquetWriter(a.cfg.CleanDataDir, a.logger)
	root, err := writer.WriteHousingTrends(byType)
	if err != nil {
		return err
	}
	a.logger.Info("Canonical housing dataset at %s", root)

	return a.writeSink(func(sink storage.CanonicalSink) error {
		return sink.WriteHousing(byType)
	})
}

// runEmployment executes ingest → normalize → write for the BLS source.
func (a *app) runEmployment(metroArea string, start, end time.Time, localPath string, forceRefresh bool) error {
	rawPath, err := ingest.NewEmploymentIngestor(a.cfg, a.logger).Ingest(localPath, forceRefresh)
	if err != nil {
		return err
	}

	normalizer := services.NewEmploymentNormalizer(a.logger)
	records, err := normalizer.NormalizeFile(rawPath, metroArea, start, end)
	if err != nil {
		return err
	}

	writer := storage.NewParquetWriter(a.cfg.CleanDataDir, a.logger)
	root, err := writer.WriteEmploymentTrends(records, metroArea)
	if err != nil {
		return err
	}
	a.logger.Info("Canonical employment dataset at %s", root)

	return a.writeSink(func(sink storage.CanonicalSink) error {
		return sink.WriteEmployment(records)
	})
}

// writeSink mirrors canonical rows to the optional PostgreSQL sink.
func (a *app) writeSink(write func(storage.CanonicalSink) error) error {
	if a.cfg.PostgresDSN == "" {
		return nil
	}

	sink, err := storage.NewPostgresWriter(a.cfg.PostgresDSN, a.logger, a.cfg.MaxRetries)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := write(sink); err != nil {
		return err
	}
	a.logger.Info("Canonical rows mirrored to PostgreSQL")
	return nil
}
