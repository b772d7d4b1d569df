package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/fetch"
	"github.com/meshview/meshview/pkg/mesh/bridge"
	"github.com/meshview/meshview/pkg/mesh/loader"
	"github.com/meshview/meshview/pkg/telemetry"
)

// watchDebounce coalesces the burst of filesystem events an editor or
// exporter emits while writing a file.
const watchDebounce = 250 * time.Millisecond

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Reload a mesh file whenever it changes",
		Long: `Watch a local mesh file and reload it through the full pipeline on
every change. The previous load's buffers are released when a reload
succeeds.

Useful while iterating on an export: leave the watcher running and
re-export from the modelling tool.`,
		Example: `  # Reload on every save
  meshview watch model.stl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args[0])
		},
	}

	return cmd
}

func runWatch(ctx context.Context, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig(appVersion))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	var decoder bridge.Decoder
	if cfg.Loader.ModulePath != "" {
		wasmDecoder, err := bridge.LoadWASMDecoder(ctx, cfg.Loader.ModulePath, nil)
		if err != nil {
			return fmt.Errorf("failed to load decoder module: %w", err)
		}
		defer wasmDecoder.Close(ctx)
		decoder = wasmDecoder
	}

	ld, err := loader.New(cfg.LoaderConfig(), tel, decoder, nil)
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}
	defer ld.Close(ctx)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	// Watch the directory rather than the file: editors that replace the
	// file on save would otherwise detach the watch.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(absPath), err)
	}

	reload := func() {
		asset, err := ld.Load(ctx, fetch.NewLocalSource(absPath))
		if err != nil {
			log.Error().Err(err).Str("file", absPath).Msg("Reload failed")
			return
		}
		fmt.Printf("%s  %s: %d vertices, %d triangles (%s, %dms)\n",
			time.Now().Format("15:04:05"), asset.FileName,
			asset.Stats.Vertices, asset.Stats.Triangles,
			asset.Format, asset.LoadDuration.Milliseconds())
	}

	// Initial load before the first change.
	reload()
	log.Info().Str("file", absPath).Msg("Watching for changes")

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != absPath {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}
