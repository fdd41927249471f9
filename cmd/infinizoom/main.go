package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/infinizoom/internal/config"
	"github.com/kikiluvv/infinizoom/internal/export"
	"github.com/kikiluvv/infinizoom/internal/ffmpeg"
	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/gui"
	"github.com/kikiluvv/infinizoom/internal/logging"
	"github.com/kikiluvv/infinizoom/internal/session"
	"github.com/kikiluvv/infinizoom/pkg/util"
)

var (
	cfgFile string
	verbose bool

	framesDir    string
	frameCount   int
	outDir       string
	previewVideo string
	forceInit    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "infinizoom",
	Short: "infinizoom - scrub through a video frame by frame",
	Long:  "Extracts evenly spaced still frames from a video and browses them in a zoomable viewer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viewCmd.Flags().StringVar(&framesDir, "frames", "", "open a previously exported frames folder")

	extractCmd.Flags().IntVarP(&frameCount, "count", "n", 0, "number of frames (default from config)")
	extractCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	extractCmd.Flags().StringVar(&previewVideo, "video", "", "also render the frames into a preview clip")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, cfg.FFmpegOptions())
}

// checkVideo rejects paths that do not look like video before ffmpeg is
// ever started.
func checkVideo(path string) error {
	if !util.FileExists(path) {
		return fmt.Errorf("%w: %s does not exist", frames.ErrInvalidInput, path)
	}
	if err := frames.ValidateMediaType(util.MediaType(path)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var viewCmd = &cobra.Command{
	Use:   "view [input video]",
	Short: "Open the extractor and zoom viewer window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		opts := gui.Options{
			Config:    cfg,
			Opener:    exec,
			Exporter:  export.NewWriter(log.Logger, cfg.Export.Workers),
			FramesDir: framesDir,
		}
		if len(args) == 1 {
			if err := checkVideo(args[0]); err != nil {
				return err
			}
			opts.Video = args[0]
		}

		return gui.Run(cmd.Context(), log.Logger, opts)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [input video]",
	Short: "Extract frames to a folder without opening a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		input := args[0]

		if err := checkVideo(input); err != nil {
			return err
		}

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		opts := cfg.ExtractOptions()
		if frameCount != 0 {
			opts.FrameCount = frameCount
		}
		if opts.FrameCount < 1 {
			return fmt.Errorf("%w: --count must be at least 1", frames.ErrInvalidInput)
		}

		dir := outDir
		if dir == "" {
			dir = cfg.Export.OutputDir
		}

		sess := session.New(log.Logger, nil)
		seq, err := sess.Run(cmd.Context(), frames.NewExtractor(log.Logger, opts), exec, input)
		if err != nil {
			return err
		}

		writer := export.NewWriter(log.Logger, cfg.Export.Workers)
		if _, err := writer.WriteSequence(cmd.Context(), dir, input, seq); err != nil {
			return err
		}

		if previewVideo != "" {
			err := exec.EncodeSequence(cmd.Context(), ffmpeg.SequenceOptions{
				Pattern:       filepath.Join(dir, export.FramePattern),
				Output:        previewVideo,
				Frames:        seq.Len(),
				FrameInterval: cfg.Viewer.AutoPlayInterval,
				CRF:           cfg.FFmpeg.CRF,
				Preset:        cfg.FFmpeg.Preset,
				ProgressFunc: func(p *ffmpeg.Progress) {
					log.Debug().Float64("percent", p.Percentage).Str("speed", p.Speed).Msg("encoding preview")
				},
			})
			if err != nil {
				return err
			}
		}

		log.Info().
			Str("dir", dir).
			Int("frames", seq.Len()).
			Msg("extraction complete")

		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Print the metadata extraction relies on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w, h := frames.CanvasSize(info.Width, info.Height, cfg.Extract.MaxDimension)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:       %s\n", info.FilePath)
		fmt.Fprintf(out, "duration:   %v\n", info.Duration)
		fmt.Fprintf(out, "size:       %dx%d (frames captured at %dx%d)\n", info.Width, info.Height, w, h)
		fmt.Fprintf(out, "frame rate: %.3f\n", info.FPS)
		fmt.Fprintf(out, "codec:      %s\n", info.VideoCodec)
		if info.HasAudio {
			fmt.Fprintf(out, "audio:      %s\n", info.AudioCodec)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}

		if util.FileExists(path) && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}
