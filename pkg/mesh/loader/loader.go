package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshview/meshview/pkg/fetch"
	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/bridge"
	"github.com/meshview/meshview/pkg/mesh/decode"
	"github.com/meshview/meshview/pkg/mesh/detect"
	"github.com/meshview/meshview/pkg/telemetry"
)

// Default validation limits.
const (
	// DefaultMaxFileBytes is the largest file accepted for decoding.
	DefaultMaxFileBytes int64 = 629_145_600

	// DefaultMaxTriangleCount is the largest decoded mesh accepted.
	DefaultMaxTriangleCount = 30_000_000

	// DefaultWatchdogTimeout is how long a foreign decode may run before
	// the lock monitor emits its warning.
	DefaultWatchdogTimeout = 30 * time.Second
)

// Config holds the loader's validation and fallback settings.
type Config struct {
	// MaxFileBytes rejects files larger than this before decoding.
	MaxFileBytes int64

	// MaxTriangleCount rejects meshes with more triangles after decoding.
	MaxTriangleCount int

	// EnableFallback allows one exact-tier retry after a structural fast
	// failure.
	EnableFallback bool

	// WatchdogTimeout is the lock monitor interval for foreign decodes.
	WatchdogTimeout time.Duration
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileBytes:     DefaultMaxFileBytes,
		MaxTriangleCount: DefaultMaxTriangleCount,
		EnableFallback:   true,
		WatchdogTimeout:  DefaultWatchdogTimeout,
	}
}

// State names one phase of the fallback orchestrator.
type State string

const (
	// StateIdle means no load is in progress.
	StateIdle State = "idle"

	// StateFastAttempt means the fast-tier decode is running.
	StateFastAttempt State = "fast_attempt"

	// StateSuccess means the last load produced an asset.
	StateSuccess State = "success"

	// StateFastFailed means the fast tier failed structurally.
	StateFastFailed State = "fast_failed"

	// StateExactAttempt means the exact-tier decode is running.
	StateExactAttempt State = "exact_attempt"

	// StateExactFailed means both tiers failed.
	StateExactFailed State = "exact_failed"
)

// EventTypeStateChanged is published on every orchestrator transition.
const EventTypeStateChanged = "loader.state"

// Decode tier names used in attempt descriptions.
const (
	tierFast  = "fast"
	tierExact = "exact"
)

// Loader runs the mesh loading pipeline. One live asset at a time; a new
// load releases the asset it supersedes.
type Loader struct {
	config   *Config
	tel      *telemetry.Telemetry
	decoder  bridge.Decoder
	registry *bridge.Registry
	log      *telemetry.Logger

	mu      sync.Mutex
	state   State
	current *mesh.Asset
}

// New creates a loader. The decoder may be nil, in which case binary
// formats fail with a decode error instead of reaching the bridge.
func New(cfg *Config, tel *telemetry.Telemetry, decoder bridge.Decoder, registry *bridge.Registry) (*Loader, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxFileBytes <= 0 {
		return nil, fmt.Errorf("max file bytes must be positive, got: %d", cfg.MaxFileBytes)
	}
	if cfg.MaxTriangleCount <= 0 {
		return nil, fmt.Errorf("max triangle count must be positive, got: %d", cfg.MaxTriangleCount)
	}
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = DefaultWatchdogTimeout
	}

	if tel == nil {
		var err error
		tel, err = telemetry.NewTelemetry(telemetry.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}
	if registry == nil {
		registry = bridge.NewRegistry()
	}

	return &Loader{
		config:   cfg,
		tel:      tel,
		decoder:  decoder,
		registry: registry,
		log:      tel.Logger.NewComponentLogger("loader"),
		state:    StateIdle,
	}, nil
}

// Registry returns the loader's buffer lifecycle manager.
func (l *Loader) Registry() *bridge.Registry {
	return l.registry
}

// State returns the orchestrator state after the most recent transition.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Current returns the live asset, or nil when nothing is loaded.
func (l *Loader) Current() *mesh.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load fetches the source and runs the full pipeline. Loads are
// serialized; a call made while another load runs blocks until its turn.
func (l *Loader) Load(ctx context.Context, source fetch.Source) (*mesh.Asset, error) {
	data, fileName, err := source.Open(ctx)
	if err != nil {
		l.recordFailure("", fileName, err)
		return nil, err
	}
	return l.LoadData(ctx, fileName, "", data)
}

// LoadData runs the pipeline on bytes already in memory. The MIME type
// may be empty; it is only a last-resort detection signal.
func (l *Loader) LoadData(ctx context.Context, fileName, mimeType string, data []byte) (asset *mesh.Asset, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timer := telemetry.NewTimer()
	assetID := uuid.New().String()
	log := l.log.WithAssetID(assetID).WithFileName(fileName)

	ctx, span := l.tel.Tracer.StartLoadSpan(ctx, assetID, fileName)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
			l.recordFailure(assetID, fileName, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}()

	l.tel.Metrics.RecordLoadStarted(int64(len(data)))
	l.tel.Events.PublishLoadStarted(assetID, fileName, int64(len(data)))
	log.Infof("Loading %s (%d bytes)", fileName, len(data))

	// Pre-decode guard.
	if len(data) == 0 {
		return nil, mesh.NewEmptyFileError(fileName)
	}
	if int64(len(data)) > l.config.MaxFileBytes {
		return nil, mesh.NewFileTooLargeError(int64(len(data)), l.config.MaxFileBytes)
	}

	// Detection.
	detected := detect.Detect(fileName, mimeType, data)
	l.tel.Metrics.RecordFormatDetected(string(detected.Format), string(detected.Method))
	if detected.Mismatch {
		log.WithFormat(string(detected.Format)).
			Warnf("Content looks like %s but the name suggests %s; trusting the content",
				detected.Format, detected.ExpectedFormat)
		l.tel.Events.PublishFormatMismatch(fileName, string(detected.Format), string(detected.ExpectedFormat))
		l.tel.Metrics.RecordFormatMismatch()
	}
	if detected.Format == mesh.FormatUnknown {
		return nil, mesh.NewUnsupportedFormatError(fileName, mimeType)
	}

	decision := detect.Route(detected.Format, data)
	log = log.WithFormat(string(decision.Concrete))

	// Fallback orchestrator.
	l.transition(StateFastAttempt)
	buffers, fastErr := l.attempt(ctx, tierFast, decision, data, assetID)
	attempts := []string{describeAttempt(tierFast, decision, fastErr)}

	if fastErr == nil {
		l.transition(StateSuccess)
	} else {
		l.transition(StateFastFailed)
		log.WithError(fastErr).Warn("Fast decode failed")

		if !l.config.EnableFallback {
			l.transition(StateExactFailed)
			return nil, mesh.NewParseFailedError(decision.Concrete, attempts, fastErr)
		}

		l.tel.Events.PublishFallbackStarted(assetID, string(decision.Concrete), fastErr.Error())
		l.tel.Metrics.RecordFallback()

		l.transition(StateExactAttempt)
		var exactErr error
		buffers, exactErr = l.attempt(ctx, tierExact, decision, data, assetID)
		attempts = append(attempts, describeAttempt(tierExact, decision, exactErr))

		if exactErr != nil {
			l.transition(StateExactFailed)
			return nil, mesh.NewParseFailedError(decision.Concrete, attempts, errors.Join(fastErr, exactErr))
		}

		l.transition(StateSuccess)
		log.Warn("Recovered by exact decode; the file is damaged but salvageable")
	}

	// Post-decode guard. The stats-derived triangle count is the
	// authoritative one, not any count a file header declared.
	stats := mesh.ComputeStats(buffers)
	if stats.Triangles > l.config.MaxTriangleCount {
		buffers.Release()
		l.syncGenerationGauge()
		return nil, mesh.NewTooManyTrianglesError(stats.Triangles, l.config.MaxTriangleCount)
	}

	asset = &mesh.Asset{
		ID:            assetID,
		FileName:      fileName,
		FileSizeBytes: int64(len(data)),
		Format:        decision.Concrete,
		LoadedAt:      time.Now().UTC(),
		LoadDuration:  timer.Duration(),
		Buffers:       buffers,
		Stats:         stats,
	}

	// Supersede the previous asset.
	if l.current != nil {
		l.current.Release()
		l.syncGenerationGauge()
	}
	l.current = asset

	l.tel.Metrics.RecordLoadCompleted("success", string(asset.Format), asset.LoadDuration)
	l.tel.Metrics.ObserveTriangleCount(stats.Triangles)
	l.tel.Events.PublishLoadCompleted(assetID, string(asset.Format), stats.Triangles, asset.LoadDuration)
	log.Infof("Loaded %d vertices, %d triangles in %s", stats.Vertices, stats.Triangles, asset.LoadDuration)

	return asset, nil
}

// Close releases the live asset and every registered buffer generation.
func (l *Loader) Close(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		l.current.Release()
		l.current = nil
	}
	l.registry.ReleaseAll(ctx)
	l.syncGenerationGauge()
}

// attempt runs one decode tier and wraps the output in Buffers. A nil
// error means the result has geometry; a structurally empty result is
// reported as an error so the orchestrator treats it as a failure.
func (l *Loader) attempt(ctx context.Context, tier string, decision detect.Decision, data []byte, assetID string) (*mesh.Buffers, error) {
	timer := telemetry.NewTimer()
	buffers, err := l.decodeTier(ctx, tier, decision, data, assetID)

	if err == nil && (buffers.VertexCount() == 0 || buffers.TriangleCount() == 0) {
		buffers.Release()
		err = fmt.Errorf("decoder produced no geometry")
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	l.tel.Metrics.RecordDecodeAttempt(tier, status, timer.Duration())
	return buffers, err
}

// decodeTier dispatches one tier to the right decoder.
func (l *Loader) decodeTier(ctx context.Context, tier string, decision detect.Decision, data []byte, assetID string) (*mesh.Buffers, error) {
	if decision.Family == detect.FamilyForeign && tier == tierFast {
		return l.foreignDecode(ctx, decision.Concrete, data, assetID)
	}

	// The exact tier always runs on the host. For binary STL that is the
	// native binary decoder; binary PLY has no host decoder yet.
	mode := decode.ModeFast
	if tier == tierExact {
		mode = decode.ModeExact
	}

	_, span := l.tel.Tracer.StartDecodeSpan(ctx, string(decision.Concrete), string(mode))
	defer span.End()

	var result *decode.Result
	var err error
	switch decision.Concrete {
	case mesh.FormatStlASCII:
		result, err = decode.STLASCII(data, mode)
	case mesh.FormatPlyASCII:
		result, err = decode.PLYASCII(data, mode)
	case mesh.FormatObj:
		result, err = decode.OBJ(data, mode)
	case mesh.FormatStlBinary:
		result, err = decode.STLBinary(data, mode)
	case mesh.FormatPlyBinaryLE, mesh.FormatPlyBinaryBE:
		err = fmt.Errorf("no host decoder for %s", decision.Concrete)
	default:
		err = fmt.Errorf("no decoder for format %q", decision.Concrete)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return mesh.NewBuffers(result.Vertices, result.Indices, nil, 0, nil), nil
}

// foreignDecode runs the bridge call under the lock monitor and registers
// the resulting generation.
func (l *Loader) foreignDecode(ctx context.Context, format mesh.Format, data []byte, assetID string) (*mesh.Buffers, error) {
	if l.decoder == nil {
		return nil, fmt.Errorf("no foreign decoder configured for %s", format)
	}

	generation := l.registry.Next()
	log := l.log.WithAssetID(assetID).WithGeneration(generation)

	// Diagnostic only: the call is never cancelled, the monitor just
	// makes a silent hang visible.
	watchdog := time.AfterFunc(l.config.WatchdogTimeout, func() {
		log.Warnf("Foreign decode still running after %s", l.config.WatchdogTimeout)
		l.tel.Events.PublishWatchdogExpired(assetID, generation, l.config.WatchdogTimeout)
		l.tel.Metrics.RecordWatchdogExpiry()
	})
	defer watchdog.Stop()

	ctx, span := l.tel.Tracer.StartBridgeSpan(ctx, "parse_mesh", generation)
	defer span.End()

	timer := telemetry.NewTimer()
	result, err := l.decoder.ParseMesh(ctx, data, format, generation)
	if err != nil {
		telemetry.RecordError(span, err)
		l.tel.Metrics.RecordBridgeCall("parse_mesh", "failure", timer.Duration())
		return nil, err
	}
	l.tel.Metrics.RecordBridgeCall("parse_mesh", "success", timer.Duration())

	decoder := l.decoder
	events := l.tel.Events
	l.registry.Register(generation, func(rctx context.Context) {
		if releaseErr := decoder.ReleaseBuffers(rctx, generation); releaseErr != nil {
			log.WithError(releaseErr).Warn("Foreign buffer release failed")
		}
		events.PublishBuffersReleased(generation)
	})
	l.syncGenerationGauge()

	registry := l.registry
	return mesh.NewBuffers(result.Vertices, result.Indices, result.Normals, generation, func() {
		registry.Release(context.Background(), generation)
	}), nil
}

// transition moves the orchestrator to a new state and publishes it.
func (l *Loader) transition(to State) {
	from := l.state
	l.state = to
	l.tel.Events.Publish(telemetry.Event{
		Type:    EventTypeStateChanged,
		Level:   telemetry.EventLevelDebug,
		Message: fmt.Sprintf("Loader state %s -> %s", from, to),
		Context: map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		},
	})
}

// recordFailure emits the failure metrics and event for a load error.
func (l *Loader) recordFailure(assetID, fileName string, err error) {
	code := "unknown"
	var lerr *mesh.LoaderError
	if errors.As(err, &lerr) {
		code = string(lerr.Code)
	}
	l.tel.Metrics.RecordError(code)
	l.tel.Metrics.RecordLoadCompleted("failure", "", 0)
	l.tel.Events.PublishLoadFailed(assetID, code, err.Error())
	l.log.WithAssetID(assetID).WithFileName(fileName).WithError(err).Error("Load failed")
}

// syncGenerationGauge mirrors the registry's live count into the gauge.
func (l *Loader) syncGenerationGauge() {
	l.tel.Metrics.SetActiveGenerations(float64(l.registry.Active()))
}

// describeAttempt formats one attempt for the composite parse error.
func describeAttempt(tier string, decision detect.Decision, err error) string {
	family := "in_process"
	if decision.Family == detect.FamilyForeign && tier == tierFast {
		family = "foreign"
	}
	if err != nil {
		return fmt.Sprintf("%s (%s %s): %v", tier, family, decision.Concrete, err)
	}
	return fmt.Sprintf("%s (%s %s): ok", tier, family, decision.Concrete)
}
