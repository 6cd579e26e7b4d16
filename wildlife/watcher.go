package wildlife

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/docstore"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
)

// Collections for wildlife records.
const (
	DetectionsCollection = "detections"
	AlertsCollection     = "alerts"
)

// Watcher polls a directory for new camera frames, classifies each frame
// once, and persists detections and alerts. Frames are tracked by filename,
// so a frame is never classified twice within one process lifetime.
type Watcher struct {
	visionModel   model.Model
	decisionModel model.Model
	store         docstore.Store
	dir           string
	interval      time.Duration
	logger        logging.Logger
	processed     map[string]bool
}

// Options configure a Watcher.
type Options struct {
	// Interval between directory scans.
	Interval time.Duration
	// Logger receives structured watcher logs.
	Logger logging.Logger
}

// NewWatcher creates a watcher over the given frame directory.
func NewWatcher(
	visionModel, decisionModel model.Model,
	store docstore.Store,
	dir string,
	optFns ...func(o *Options),
) *Watcher {
	opts := Options{
		Interval: 30 * time.Second,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Watcher{
		visionModel:   visionModel,
		decisionModel: decisionModel,
		store:         store,
		dir:           dir,
		interval:      opts.Interval,
		logger:        opts.Logger,
		processed:     make(map[string]bool),
	}
}

// Run polls until the context is cancelled. A failed frame is logged and
// retried on the next scan; the loop never dies on a single bad frame.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("wildlife.watcher.start", "dir", w.dir, "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.scan(ctx); err != nil {
			w.logger.Warn("wildlife.scan.error", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			w.logger.Info("wildlife.watcher.stop")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// scan processes every unseen frame in the directory.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read frame dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || w.processed[entry.Name()] {
			continue
		}
		mime := mimeForFrame(entry.Name())
		if mime == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.processFrame(ctx, entry.Name(), mime); err != nil {
			w.logger.Warn("wildlife.frame.error", "frame", entry.Name(), "error", err.Error())
			continue
		}
		w.processed[entry.Name()] = true
	}
	return nil
}

// processFrame classifies one frame and persists the outcome.
func (w *Watcher) processFrame(ctx context.Context, name, mime string) error {
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	reply, err := w.generate(ctx, w.visionModel, core.Content{
		Role: "user",
		Parts: []core.Part{
			core.TextPart{Text: detectionPrompt},
			core.FilePart{File: core.FileRef{Bytes: data, MimeType: mime, Name: name}},
		},
	})
	if err != nil {
		return fmt.Errorf("classify frame: %w", err)
	}

	detection, err := ParseDetection(reply)
	if err != nil {
		return err
	}

	if detection.Empty {
		w.logger.Debug("wildlife.frame.empty", "frame", name)
		return nil
	}
	if detection.Other {
		w.logger.Info("wildlife.frame.other_animal", "frame", name, "animal", detection.Animal)
		return nil
	}

	w.logger.Info("wildlife.detection",
		"frame", name, "animal", detection.Animal, "confidence", detection.Confidence)

	// Every sighting is recorded; only confirmed ones can alert.
	now := time.Now().UTC()
	if err := w.store.Add(ctx, DetectionsCollection, map[string]any{
		"animal":     detection.Animal,
		"confidence": detection.Confidence,
		"frame":      name,
		"timestamp":  now,
		"status":     "new",
	}); err != nil {
		return fmt.Errorf("record detection: %w", err)
	}

	if !detection.IsConfirmed() {
		return nil
	}

	action := w.decideAction(ctx, detection)
	w.logger.Info("wildlife.action", "frame", name, "animal", detection.Animal, "action", string(action))

	if action != ActionAlertImmediately {
		return nil
	}

	if err := w.store.Add(ctx, AlertsCollection, map[string]any{
		"animal":     detection.Animal,
		"confidence": detection.Confidence,
		"frame":      name,
		"timestamp":  now,
		"status":     "new",
		"message":    fmt.Sprintf("%s sighted near the field, stay alert", detection.Animal),
	}); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

// decideAction asks the decision model whether to alert. Any failure falls
// back to MONITOR.
func (w *Watcher) decideAction(ctx context.Context, d Detection) Action {
	prompt := fmt.Sprintf(actionPrompt, d.Animal, d.Confidence*100)
	reply, err := w.generate(ctx, w.decisionModel, core.NewUserText(prompt))
	if err != nil {
		w.logger.Warn("wildlife.decision.error", "animal", d.Animal, "error", err.Error())
		return ActionMonitor
	}
	return ParseAction(reply)
}

// generate runs one blocking model call and returns the reply text.
func (w *Watcher) generate(ctx context.Context, m model.Model, content core.Content) (string, error) {
	respCh, errCh := m.Generate(ctx, model.Request{Contents: []core.Content{content}})
	select {
	case resp, ok := <-respCh:
		if !ok {
			if err, ok := <-errCh; ok && err != nil {
				return "", err
			}
			return "", fmt.Errorf("no response from model")
		}
		return resp.Content.Text(), nil
	case err, ok := <-errCh:
		if ok && err != nil {
			return "", err
		}
		resp, ok := <-respCh
		if !ok {
			return "", fmt.Errorf("no response from model")
		}
		return resp.Content.Text(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func mimeForFrame(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return ""
	}
}
