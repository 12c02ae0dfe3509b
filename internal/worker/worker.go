package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/andresmejia3/facefx/internal/compositor"
	"github.com/andresmejia3/facefx/internal/filter"
	"github.com/andresmejia3/facefx/internal/types"
	"github.com/andresmejia3/facefx/internal/utils"
)

// Renderer applies the filters for a frame's faces. Filters are only read, so one Renderer
// may serve many goroutines; each frame must belong to a single goroutine.
type Renderer struct {
	Filters map[filter.Kind]filter.Filter
	// Force, when set, replaces the emotion-derived choice for every face.
	Force filter.Kind
	// Strict turns a per-face error into a frame error instead of a skipped face.
	Strict bool
	Logger *slog.Logger
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// pick returns the filter and geometry for one face.
func (r *Renderer) pick(face types.FaceRecord) (filter.Filter, types.Geometry, error) {
	kind := r.Force
	if kind == "" {
		kind = filter.EmotionKind(face.Emotion)
	}
	flt, ok := r.Filters[kind]
	if !ok {
		return nil, nil, fmt.Errorf("filter %q is not loaded", kind)
	}
	if kind == filter.KindMediapipeDebug {
		return flt, face.Landmarks, nil
	}
	if face.Area == nil {
		// Neither reads the geometry
		if kind == filter.KindNone || kind == filter.KindGalaxy {
			return flt, types.FacialArea{}, nil
		}
		return nil, nil, fmt.Errorf("%w: face has no facial_area", filter.ErrInvalidFaceData)
	}
	return flt, *face.Area, nil
}

// ApplyFaces draws every face onto frame in record order, so later faces layer over earlier
// ones. It returns how many faces were drawn and how many were skipped.
func (r *Renderer) ApplyFaces(frame *compositor.Frame, faces []types.FaceRecord) (applied, skipped int, err error) {
	for i, face := range faces {
		flt, g, err := r.pick(face)
		if err == nil {
			err = flt.Apply(frame, g)
		}
		if err != nil {
			if r.Strict {
				return applied, skipped, fmt.Errorf("face %d: %w", i, err)
			}
			r.logger().Warn("skipping face", "index", i, "emotion", face.Emotion, "err", err)
			skipped++
			continue
		}
		applied++
	}
	return applied, skipped, nil
}

// Result reports the outcome of one rendered frame.
type Result struct {
	Index   int
	Frame   string
	Output  string
	Applied int
	Skipped int
	Err     error
}

// Config controls a batch run.
type Config struct {
	NumWorkers int
	InputDir   string
	OutputDir  string
	Renderer   *Renderer
}

// Run renders records with cfg.NumWorkers goroutines. onResult is called from the calling
// goroutine in record order. Run stops at the first frame error when the renderer is strict,
// and on context cancellation. Every worker has finished before Run returns, so no output is
// written afterwards.
func Run(ctx context.Context, cfg Config, records []types.FrameRecord, onResult func(Result)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = 1
	}

	taskChan := make(chan types.RenderTask, cfg.NumWorkers)
	resultsChan := make(chan Result, cfg.NumWorkers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				// Drain without rendering once the run is over
				if ctx.Err() != nil {
					continue
				}
				select {
				case resultsChan <- renderTask(cfg, task):
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for i, rec := range records {
			select {
			case taskChan <- types.RenderTask{Index: i, Record: rec}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// stop cancels the run and waits for in-flight frames, discarding their results
	stop := func(err error) error {
		cancel()
		for range resultsChan {
		}
		return err
	}

	// Results arrive out of order; hold them until their turn
	buffer := make(map[int]Result)
	nextIndex := 0
	var firstErr error
	for {
		select {
		case <-ctx.Done():
			if firstErr != nil {
				return stop(firstErr)
			}
			return stop(ctx.Err())
		case res, ok := <-resultsChan:
			if !ok {
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				return firstErr
			}
			buffer[res.Index] = res
			for {
				r, ok := buffer[nextIndex]
				if !ok {
					break
				}
				delete(buffer, nextIndex)
				if onResult != nil {
					onResult(r)
				}
				nextIndex++
				if r.Err != nil && cfg.Renderer.Strict {
					firstErr = r.Err
					return stop(firstErr)
				}
			}
		}
	}
}

// renderTask loads, renders and saves one frame.
func renderTask(cfg Config, task types.RenderTask) Result {
	rec := task.Record
	res := Result{
		Index:  task.Index,
		Frame:  rec.Frame,
		Output: filepath.Join(cfg.OutputDir, filepath.Base(rec.Frame)),
	}

	in := rec.Frame
	if !filepath.IsAbs(in) {
		in = filepath.Join(cfg.InputDir, in)
	}
	frame, err := utils.LoadFrame(in)
	if err != nil {
		res.Err = err
		return res
	}

	res.Applied, res.Skipped, err = cfg.Renderer.ApplyFaces(frame, rec.Faces)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", rec.Frame, err)
		return res
	}

	if err := utils.SaveFrame(res.Output, frame); err != nil {
		res.Err = err
	}
	return res
}

// IsFaceError reports whether err came from a face's geometry rather than from I/O.
func IsFaceError(err error) bool {
	return errors.Is(err, filter.ErrInvalidFaceData) || errors.Is(err, compositor.ErrGeometryOutOfBounds)
}
