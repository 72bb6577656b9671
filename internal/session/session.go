package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"montage/internal/config"
	"montage/internal/journal"
	"montage/internal/logging"
	"montage/internal/merge"
	"montage/internal/organizer"
	"montage/internal/plan"
	"montage/internal/producer"
	"montage/internal/ranges"
	"montage/internal/segmentcache"
)

// Controller sequences scanning, production, and merging for one
// invocation.
type Controller struct {
	cfg      *config.Config
	producer *producer.Producer
	merger   *merge.Merger
	journal  *journal.Journal
	logger   *slog.Logger
	now      func() time.Time
}

func NewController(cfg *config.Config, prod *producer.Producer, merger *merge.Merger, jrnl *journal.Journal, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:      cfg,
		producer: prod,
		merger:   merger,
		journal:  jrnl,
		logger:   logging.NewComponentLogger(logger, "session"),
		now:      time.Now,
	}
}

// BuildPlan scans the input directory and assigns slots.
func (c *Controller) BuildPlan() (plan.Plan, error) {
	dir := c.cfg.Paths.InputDir
	categorized, err := plan.Discover(dir)
	if err != nil {
		return plan.Plan{}, err
	}
	intro, _ := plan.SelectIntro(dir, categorized.Intro, c.cfg.Intro.Image)
	p := plan.Build(dir, categorized, intro)
	if len(p.Slots) == 0 {
		return plan.Plan{}, fmt.Errorf("no media files found in %s", dir)
	}
	return p, nil
}

// Execute dispatches one decision against an already built plan. The
// returned path is the final output for actions that merge, empty
// otherwise.
func (c *Controller) Execute(ctx context.Context, p plan.Plan, d Decision) (string, error) {
	switch d.Action {
	case ContinueAll:
		return c.ProcessAll(ctx, p)
	case RerenderRange:
		return "", c.Rerender(ctx, p, d.Range)
	case MergeRange:
		return c.MergeRange(ctx, p, d.Range)
	case ClearCache:
		removed, err := c.ClearCache()
		if err == nil {
			c.logger.Info("cache cleared", logging.Int("files_removed", removed))
		}
		return "", err
	case Reorganize:
		_, err := c.Organize()
		return "", err
	case Cancel:
		c.logger.Info("cancelled by user")
		return "", nil
	default:
		return "", fmt.Errorf("unknown action %d", d.Action)
	}
}

// ProcessAll produces every slot in order, failing fast on the first
// production error, then merges everything into a MERGED output.
func (c *Controller) ProcessAll(ctx context.Context, p plan.Plan) (string, error) {
	runID := c.journal.BeginRun(ctx, "process", "", c.cfg.Paths.WorkDir)

	if err := c.produceSlots(ctx, runID, p.Slots, true); err != nil {
		c.journal.FinishRun(ctx, runID, journal.StatusFailed, err.Error())
		return "", err
	}

	output, err := c.mergeSlots(ctx, runID, p.Slots, "")
	if err != nil {
		c.journal.FinishRun(ctx, runID, journal.StatusFailed, err.Error())
		return "", err
	}
	c.journal.FinishRun(ctx, runID, journal.StatusCompleted, "")
	return output, nil
}

// Rerender forces the selected slots to be rebuilt. Unlike ProcessAll a
// failed slot does not stop the others; all failures are reported together.
// No merge follows.
func (c *Controller) Rerender(ctx context.Context, p plan.Plan, expr string) error {
	indices, malformed := ranges.Parse(expr, len(p.Slots))
	c.reportMalformed(malformed)
	selected := p.Select(indices)
	if len(selected) == 0 {
		return fmt.Errorf("range %q selects no slots", expr)
	}

	tag := ranges.Render(expr, "R", len(p.Slots))
	runID := c.journal.BeginRun(ctx, "rerender", tag, c.cfg.Paths.WorkDir)

	tempDir := c.cfg.TempDir()
	for _, slot := range selected {
		// Explicit re-render supersedes whatever is cached.
		artifact := filepath.Join(tempDir, slot.ArtifactName())
		removeArtifact(artifact)
	}

	err := c.produceSlots(ctx, runID, selected, false)
	if err != nil {
		c.journal.FinishRun(ctx, runID, journal.StatusFailed, err.Error())
		return err
	}
	c.journal.FinishRun(ctx, runID, journal.StatusCompleted, "")
	return nil
}

// MergeRange joins the selected slots, producing any missing artifacts
// first.
func (c *Controller) MergeRange(ctx context.Context, p plan.Plan, expr string) (string, error) {
	indices, malformed := ranges.Parse(expr, len(p.Slots))
	c.reportMalformed(malformed)
	selected := p.Select(indices)
	if len(selected) == 0 {
		return "", fmt.Errorf("range %q selects no slots", expr)
	}

	tag := ranges.Render(expr, "M", len(p.Slots))
	runID := c.journal.BeginRun(ctx, "merge", tag, c.cfg.Paths.WorkDir)

	if missing := merge.Missing(c.cfg.TempDir(), selected); len(missing) > 0 {
		c.logger.Info("producing missing artifacts before merge", logging.Int("count", len(missing)))
		if err := c.produceSlots(ctx, runID, missing, true); err != nil {
			c.journal.FinishRun(ctx, runID, journal.StatusFailed, err.Error())
			return "", err
		}
	}

	output, err := c.mergeSlots(ctx, runID, selected, tag)
	if err != nil {
		c.journal.FinishRun(ctx, runID, journal.StatusFailed, err.Error())
		return "", err
	}
	c.journal.FinishRun(ctx, runID, journal.StatusCompleted, "")
	return output, nil
}

// ClearCache removes all artifacts, sidecars, and the manifest.
func (c *Controller) ClearCache() (int, error) {
	return segmentcache.Clear(c.cfg.TempDir())
}

// Organize sorts the working directory into the INPUT/OUTPUT/LOGS layout.
func (c *Controller) Organize() (organizer.Report, error) {
	return organizer.Organize(c.cfg.Paths.WorkDir, c.cfg.Paths.TempDirName, c.logger)
}

// produceSlots runs the producer over slots in plan order. With failFast a
// production error aborts immediately; otherwise every slot is attempted
// and the failures are joined.
func (c *Controller) produceSlots(ctx context.Context, runID string, slots []plan.Slot, failFast bool) error {
	tempDir := c.cfg.TempDir()
	var failures []error
	for _, slot := range slots {
		started := c.now()
		res, err := c.producer.Produce(ctx, slot, tempDir)
		if err != nil {
			if failFast {
				return err
			}
			c.logger.Error("slot failed",
				logging.Int(logging.FieldSlot, slot.Index),
				logging.Error(err),
			)
			failures = append(failures, err)
			continue
		}
		c.journal.RecordSegment(ctx, runID, slot.Index, slot.Role.String(), slot.Name,
			slot.ArtifactName(), res.Cached, res.BlackFallback, c.now().Sub(started))
	}
	return errors.Join(failures...)
}

// mergeSlots joins the artifacts and names the output. An empty tag names a
// full MERGED output.
func (c *Controller) mergeSlots(ctx context.Context, runID string, slots []plan.Slot, tag string) (string, error) {
	name := merge.OutputFileName(filepath.Base(c.cfg.Paths.WorkDir), tag, c.now())
	output := filepath.Join(c.cfg.Paths.OutputDir, name)
	reencoded, err := c.merger.Merge(ctx, c.cfg.TempDir(), slots, output)
	if err != nil {
		return "", err
	}
	c.journal.RecordMerge(ctx, runID, name, len(slots), reencoded)
	c.logger.Info("final output written", logging.String("output", name))
	return output, nil
}

// CleanupTemp deletes every artifact, sidecar, and the manifest after a
// successful full merge, when the operator opts in.
func (c *Controller) CleanupTemp() (int, error) {
	return segmentcache.Clear(c.cfg.TempDir())
}

func (c *Controller) reportMalformed(terms []string) {
	for _, term := range terms {
		c.logger.Warn("skipping malformed range term", logging.String("term", term))
	}
}

func removeArtifact(artifact string) {
	_ = os.Remove(artifact)
	_ = os.Remove(segmentcache.SidecarPath(artifact))
}
