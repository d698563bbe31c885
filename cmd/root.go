package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/adapters/index"
	"github.com/pxvault/px/internal/adapters/system"
	"github.com/pxvault/px/internal/adapters/thumbs"
	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/config"
	"github.com/pxvault/px/pkg/library"
	"github.com/pxvault/px/pkg/metadata"
	"github.com/pxvault/px/pkg/ui"
)

var (
	// Global library instance
	appLibrary *library.Library
	appConfig  *config.Config

	// Adapters
	metaStore   *metadata.Store
	assetIndex  *index.SQLiteIndex
	thumbnailer *thumbs.Thumbnailer
	fileOpener  *system.Opener

	// Services
	scanService       *services.ScanService
	queryService      *services.QueryService
	tagService        *services.TagService
	ratingService     *services.RatingService
	fieldService      *services.FieldService
	statsService      *services.StatsService
	similarityService *services.SimilarityService
	doctorService     *services.DoctorService
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "px",
	Short: "PX - A library manager for AI-generated images",
	Long: ui.StyleTitle.Render("PX") + " - Image Library Manager\n\n" +
		"Organize AI-generated images by tags, ratings and generation\n" +
		"parameters. All metadata lives inside the image files themselves;\n" +
		"no sidecars, no lock-in.",
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(fieldCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(dupesCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(thumbsCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(exportCmd)
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	// init and version work without an initialized library
	if cmd.Name() == "init" || cmd.Name() == "version" {
		return nil
	}

	lib, err := library.New()
	if err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}
	appLibrary = lib

	if !appLibrary.Exists() {
		fmt.Println(ui.FormatError("Library not initialized"))
		fmt.Println(ui.FormatInfo("Run 'px init' to initialize the library"))
		os.Exit(1)
	}

	cfg, err := config.Load(appLibrary.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appConfig = cfg
	ui.SetTheme(appConfig.ColorTheme)

	// Metadata store: the source of truth for every record
	metaStore = metadata.NewStore(metadata.Options{
		GenerationKeys: appConfig.GenerationKeys,
		RetryDelay:     time.Duration(appConfig.WriteRetryDelayMS) * time.Millisecond,
		DisableCache:   !appConfig.EnableReadCache,
	})

	assetIndex, err = index.Open(appLibrary.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	thumbnailer = thumbs.New(appLibrary.ThumbsPath, appConfig.ThumbnailSize)
	fileOpener = system.NewOpener(appConfig.Viewer)

	hashKind := domain.HashKind(appConfig.HashAlgorithm)

	scanService = services.NewScanService(metaStore, assetIndex, appConfig.MaxWorkers, appConfig.ExcludePrefix, hashKind)
	queryService = services.NewQueryService(assetIndex)
	tagService = services.NewTagService(metaStore, assetIndex)
	ratingService = services.NewRatingService(metaStore, assetIndex)
	fieldService = services.NewFieldService(metaStore, assetIndex)
	statsService = services.NewStatsService(assetIndex)
	similarityService = services.NewSimilarityService(assetIndex, hashKind)
	doctorService = services.NewDoctorService(metaStore, assetIndex)

	return nil
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}
