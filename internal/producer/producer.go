package producer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"montage/internal/config"
	"montage/internal/encoding"
	"montage/internal/logging"
	"montage/internal/media/ffprobe"
	"montage/internal/plan"
	"montage/internal/segmentcache"
)

// CommandRunner executes an ffmpeg argument vector. Satisfied by
// encoding.Runner.
type CommandRunner interface {
	Run(ctx context.Context, args []string) error
}

// Inspector probes a media file. Satisfied by ffprobe.Client.
type Inspector interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Result reports how one slot was satisfied.
type Result struct {
	Slot     plan.Slot
	Artifact string
	// Cached is true when a valid prior artifact was reused without
	// running the encoder.
	Cached bool
	// BlackFallback is true when an audio slot's real background image
	// failed and the solid-black retry produced the artifact.
	BlackFallback bool
}

// Producer standardizes one slot at a time into the temp directory.
type Producer struct {
	cfg    *config.Config
	cache  *segmentcache.Cache
	runner CommandRunner
	probe  Inspector
	logger *slog.Logger
}

func New(cfg *config.Config, cache *segmentcache.Cache, runner CommandRunner, probe Inspector, logger *slog.Logger) *Producer {
	return &Producer{
		cfg:    cfg,
		cache:  cache,
		runner: runner,
		probe:  probe,
		logger: logging.NewComponentLogger(logger, "producer"),
	}
}

// Produce satisfies one slot, reusing a cached artifact when validation
// passes and encoding otherwise. The artifact lands at
// tempDir/slot_{index-1}.mp4 next to its fingerprint sidecar.
func (p *Producer) Produce(ctx context.Context, slot plan.Slot, tempDir string) (Result, error) {
	artifact := filepath.Join(tempDir, slot.ArtifactName())
	res := Result{Slot: slot, Artifact: artifact}

	spec, background := p.specFor(slot)
	sourceDuration := p.sourceDuration(ctx, slot.Path)
	fp := segmentcache.NewFingerprint(spec, artifact, sourceDuration, time.Now())

	logger := p.logger.With(
		logging.Int(logging.FieldSlot, slot.Index),
		logging.String(logging.FieldRole, slot.Role.String()),
		logging.String(logging.FieldSource, slot.Name),
	)

	if p.cache.IsValid(ctx, artifact, slot.Path, fp) {
		logger.Info("reusing cached segment")
		res.Cached = true
		p.logArtifactSummary(ctx, logger, artifact)
		return res, nil
	}

	// Whatever sidecar is paired with the artifact no longer describes
	// what we are about to build.
	p.cache.RemoveSidecar(artifact)

	if background != "" {
		logger.Info("producing segment", logging.String("background", filepath.Base(background)))
	} else {
		logger.Info("producing segment")
	}

	if err := p.encode(ctx, spec, fp, artifact); err != nil {
		if slot.Role != plan.RoleAudio || background == "" {
			return res, fmt.Errorf("produce slot %d (%s): %w", slot.Index, slot.Name, err)
		}

		// A real background image can break the encode (corrupt PNG,
		// odd dimensions). Retry once on solid black before giving up.
		logger.Warn("background image failed, retrying on solid black",
			logging.String(logging.FieldReason, err.Error()),
		)
		spec = encoding.NewAudioSpec(slot.Path, "", p.cfg.Audio.Caption, p.cfg.Encoder.SegmentSeconds, p.cfg.Encoder.UseGPU)
		fp = segmentcache.NewFingerprint(spec, artifact, sourceDuration, time.Now())
		if retryErr := p.encode(ctx, spec, fp, artifact); retryErr != nil {
			return res, fmt.Errorf("produce slot %d (%s): %w", slot.Index, slot.Name, retryErr)
		}
		res.BlackFallback = true
	}

	p.logArtifactSummary(ctx, logger, artifact)
	return res, nil
}

// encode runs ffmpeg and persists the fingerprint on success. A failed run
// leaves no partial artifact or sidecar behind.
func (p *Producer) encode(ctx context.Context, spec encoding.TransformSpec, fp segmentcache.Fingerprint, artifact string) error {
	if err := p.runner.Run(ctx, spec.Args(artifact)); err != nil {
		encoding.RemovePartial(artifact)
		p.cache.RemoveSidecar(artifact)
		return err
	}
	if err := p.cache.Save(artifact, fp); err != nil {
		p.logger.Warn("could not write fingerprint sidecar",
			logging.String(logging.FieldArtifact, filepath.Base(artifact)),
			logging.Error(err),
		)
	}
	return nil
}

// specFor derives the transform for a slot's role. For audio slots it also
// resolves the background image; the returned path is empty for solid
// black.
func (p *Producer) specFor(slot plan.Slot) (encoding.TransformSpec, string) {
	gpu := p.cfg.Encoder.UseGPU
	switch slot.Role {
	case plan.RoleIntro:
		return encoding.NewIntroSpec(slot.Path, p.cfg.Encoder.IntroSeconds, gpu), ""
	case plan.RoleAudio:
		background, _ := plan.FindAudioBackground(filepath.Dir(slot.Path), slot.Name, p.cfg.Audio.Background)
		return encoding.NewAudioSpec(slot.Path, background, p.cfg.Audio.Caption, p.cfg.Encoder.SegmentSeconds, gpu), background
	default:
		return encoding.NewVideoSpec(slot.Path, p.cfg.Encoder.SegmentSeconds, gpu), ""
	}
}

// sourceDuration probes the source so the fingerprint can record the real
// crop length for clips shorter than the standard segment. An unprobeable
// source is not an error here; the encode itself will complain if the file
// is unreadable.
func (p *Producer) sourceDuration(ctx context.Context, path string) float64 {
	if p.probe == nil {
		return 0
	}
	result, err := p.probe.Inspect(ctx, path)
	if err != nil {
		return 0
	}
	return result.DurationSeconds()
}

func (p *Producer) logArtifactSummary(ctx context.Context, logger *slog.Logger, artifact string) {
	if p.probe == nil {
		return
	}
	result, err := p.probe.Inspect(ctx, artifact)
	if err != nil {
		logger.Warn("produced artifact is not probeable", logging.Error(err))
		return
	}
	if summary := result.VideoSummary(); summary != "" {
		logger.Info(summary, logging.String(logging.FieldArtifact, filepath.Base(artifact)))
	}
	if summary := result.AudioSummary(); summary != "" {
		logger.Info(summary, logging.String(logging.FieldArtifact, filepath.Base(artifact)))
	}
}
