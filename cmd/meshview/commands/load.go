package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/config"
	"github.com/meshview/meshview/pkg/fetch"
	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/bridge"
	"github.com/meshview/meshview/pkg/mesh/loader"
	"github.com/meshview/meshview/pkg/stores"
	"github.com/meshview/meshview/pkg/telemetry"
)

type loadReport struct {
	ID             string      `json:"id"`
	File           string      `json:"file"`
	SizeBytes      int64       `json:"size_bytes"`
	Format         mesh.Format `json:"format"`
	Vertices       int         `json:"vertices"`
	Triangles      int         `json:"triangles"`
	BBox           mesh.BBox   `json:"bbox"`
	DiagonalLength float64     `json:"diagonal_length"`
	DurationMS     int64       `json:"duration_ms"`
}

func newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <source>",
		Short: "Load a mesh file and report its geometry",
		Long: `Load a mesh file through the full pipeline: format detection, size
guard, decoding with exact-mode fallback, and triangle-count guard.

The source is a local path, a file:// URL, or an sftp:// URL. When a
history database is configured, the outcome is recorded there.`,
		Example: `  # Load a local file
  meshview load model.stl

  # Load over SFTP
  meshview load sftp://user@host/srv/models/part.ply

  # Machine-readable stats
  meshview load --json model.obj`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), args[0])
		},
	}

	return cmd
}

func runLoad(ctx context.Context, source string) error {
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

	if cfg.Telemetry.MetricsEnabled {
		if err := tel.StartMetricsServer(); err != nil {
			log.Warn().Err(err).Msg("Failed to start metrics server")
		}
	}

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

	src, err := fetch.ParseSource(source)
	if err != nil {
		return err
	}

	asset, loadErr := ld.Load(ctx, src)

	if cfg.Store.Path != "" {
		if err := recordHistory(ctx, cfg, asset, source, loadErr); err != nil {
			log.Warn().Err(err).Msg("Failed to record load history")
		}
	}

	if loadErr != nil {
		return loadErr
	}
	defer asset.Release()

	report := loadReport{
		ID:             asset.ID,
		File:           asset.FileName,
		SizeBytes:      asset.FileSizeBytes,
		Format:         asset.Format,
		Vertices:       asset.Stats.Vertices,
		Triangles:      asset.Stats.Triangles,
		BBox:           asset.Stats.BBox,
		DiagonalLength: asset.Stats.DiagonalLength,
		DurationMS:     asset.LoadDuration.Milliseconds(),
	}

	if jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Loaded:    %s (%d bytes, %s)\n", report.File, report.SizeBytes, report.Format)
	fmt.Printf("Geometry:  %d vertices, %d triangles\n", report.Vertices, report.Triangles)
	fmt.Printf("Bounds:    min %v, max %v (diagonal %.3f)\n",
		report.BBox.Min, report.BBox.Max, report.DiagonalLength)
	fmt.Printf("Duration:  %dms\n", report.DurationMS)

	return nil
}

// recordHistory writes one history entry for the load outcome.
func recordHistory(ctx context.Context, cfg *config.Config, asset *mesh.Asset, source string, loadErr error) error {
	store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if loadErr != nil {
		msg := loadErr.Error()
		record := &stores.LoadRecord{
			ID:       uuid.NewString(),
			FileName: source,
			Format:   string(failureFormat(loadErr)),
			Status:   stores.LoadStatusFailed,
			Error:    &msg,
			LoadedAt: time.Now().UTC(),
		}
		return store.RecordLoad(ctx, record)
	}

	return store.RecordLoad(ctx, &stores.LoadRecord{
		ID:            asset.ID,
		FileName:      asset.FileName,
		FileSizeBytes: asset.FileSizeBytes,
		Format:        string(asset.Format),
		Status:        stores.LoadStatusSuccess,
		Vertices:      asset.Stats.Vertices,
		Triangles:     asset.Stats.Triangles,
		DurationMS:    asset.LoadDuration.Milliseconds(),
		LoadedAt:      asset.LoadedAt,
	})
}

// failureFormat extracts the detected format from a classified parse
// failure, if one was attached.
func failureFormat(err error) mesh.Format {
	var loaderErr *mesh.LoaderError
	if errors.As(err, &loaderErr) {
		if parseCtx, ok := loaderErr.Context.(mesh.ParseContext); ok {
			return parseCtx.Format
		}
	}
	return mesh.FormatUnknown
}
