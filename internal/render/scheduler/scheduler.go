package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"montage/internal/logging"
	"montage/internal/render/compositor"
	"montage/internal/services"
	"montage/internal/timeline"
)

// ClipSource is one clip's frame pipeline as the scheduler sees it. A nil
// frame with nil error is a transient gap; the scheduler repeats the last
// buffer it wrote.
type ClipSource interface {
	ReadFrame(ctx context.Context, t float64) ([]byte, error)
	Duration() float64
	Transition() *timeline.Transition
	Close() error
}

// Provider constructs clip pipelines on demand. The scheduler asks for clip
// i+1 only at the moment clip i is promoted to "from", so at most two decode
// pipelines are alive at once.
type Provider interface {
	Count() int
	Renderer(ctx context.Context, index int) (ClipSource, error)
}

// Sink accepts finished frames. Write blocks while the consumer is behind;
// that blocking is the pipeline's only pacing mechanism.
type Sink interface {
	Write(frame []byte) error
}

// Config wires one scheduler run.
type Config struct {
	Width  int
	Height int
	FPS    float64

	Provider Provider
	Sink     Sink

	// NewCompositor defaults to compositor.New. Overridable for tests.
	NewCompositor func(name string, width, height int) (compositor.Compositor, error)

	Logger *slog.Logger
}

// Stats summarizes a completed run.
type Stats struct {
	FramesWritten int64
	Clips         int
}

// Scheduler owns the single-writer render loop.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Provider == nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "new", errors.New("provider is required"))
	}
	if cfg.Sink == nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "new", errors.New("sink is required"))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "new", fmt.Errorf("invalid raster %dx%d@%g", cfg.Width, cfg.Height, cfg.FPS))
	}
	if cfg.NewCompositor == nil {
		cfg.NewCompositor = compositor.New
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:    cfg,
		logger: logging.NewComponentLogger(cfg.Logger, "scheduler"),
	}, nil
}

// Run renders the whole timeline to the sink and returns after the final
// frame of the final clip. Any error is fatal to the run; both live clip
// pipelines are closed before returning.
func (s *Scheduler) Run(ctx context.Context) (Stats, error) {
	count := s.cfg.Provider.Count()
	if count == 0 {
		return Stats{}, services.Wrap(services.ErrValidation, "scheduler", "run", errors.New("timeline has no clips"))
	}

	var (
		from, to   ClipSource
		comp       compositor.Compositor
		ease       timeline.Easing
		state      State
		lastBuffer []byte
		err        error
	)
	defer func() {
		if from != nil {
			_ = from.Close()
		}
		if to != nil {
			_ = to.Close()
		}
		if comp != nil {
			_ = comp.Close()
		}
	}()

	from, err = s.cfg.Provider.Renderer(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	if count > 1 {
		to, err = s.cfg.Provider.Renderer(ctx, 1)
		if err != nil {
			return Stats{}, err
		}
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Stats{FramesWritten: state.FramesWritten}, services.Wrap(services.ErrTimeout, "scheduler", "run", ctxErr)
		}

		var toDuration float64
		if to != nil {
			toDuration = to.Duration()
		}
		plan := PlanTick(state, from.Duration(), toDuration, to != nil, from.Transition(), s.cfg.FPS)

		if plan.Advance {
			if err := from.Close(); err != nil {
				s.logger.Warn("closing finished clip pipeline", logging.Error(err))
			}
			if comp != nil {
				if err := comp.Close(); err != nil {
					s.logger.Warn("closing compositor", logging.Error(err))
				}
				comp = nil
			}
			if to == nil {
				from = nil
				s.logger.Info("timeline complete",
					logging.Int64("frames_written", state.FramesWritten),
					logging.Int("clips", count))
				return Stats{FramesWritten: state.FramesWritten, Clips: count}, nil
			}
			from, to = to, nil
			ease = nil
			state.FromClip++
			// The promoted clip already contributed SafeOverlap frames inside
			// the blend window, so its counter resumes there, never at zero.
			state.FromFrameAt = state.ToFrameAt
			state.ToFrameAt = 0
			if state.FromClip+1 < count {
				next, err := s.cfg.Provider.Renderer(ctx, state.FromClip+1)
				if err != nil {
					return Stats{FramesWritten: state.FramesWritten}, err
				}
				to = next
			}
			s.logger.Info("advanced to next clip",
				logging.Int(logging.FieldClip, state.FromClip),
				logging.Int("resume_frame", state.FromFrameAt))
			continue
		}

		frame, err := from.ReadFrame(ctx, plan.FromTime)
		if err != nil {
			return Stats{FramesWritten: state.FramesWritten}, err
		}
		if frame == nil {
			if lastBuffer == nil {
				s.logger.Warn("first frame missing, emitting black",
					logging.Int(logging.FieldClip, state.FromClip),
					logging.Int(logging.FieldFrame, state.FromFrameAt))
				frame = make([]byte, s.cfg.Width*s.cfg.Height*4)
			} else {
				s.logger.Warn("frame gap, repeating previous output",
					logging.Int(logging.FieldClip, state.FromClip),
					logging.Int(logging.FieldFrame, state.FromFrameAt))
				frame = lastBuffer
			}
		}

		if plan.Blending {
			toFrame, err := to.ReadFrame(ctx, plan.ToTime)
			if err != nil {
				return Stats{FramesWritten: state.FramesWritten}, err
			}
			if toFrame == nil {
				// The window still consumes a frame of the incoming clip, so
				// its counter advances even though nothing was blended.
				s.logger.Warn("incoming clip has no frame yet, writing unblended output",
					logging.Int(logging.FieldClip, state.FromClip+1),
					logging.Int(logging.FieldFrame, state.ToFrameAt))
			} else {
				if comp == nil {
					comp, ease, err = s.openCompositor(from.Transition())
					if err != nil {
						return Stats{FramesWritten: state.FramesWritten}, err
					}
				}
				blended, err := comp.Blend(frame, toFrame, ease(plan.Progress))
				if err != nil {
					return Stats{FramesWritten: state.FramesWritten}, err
				}
				frame = blended
			}
			state.ToFrameAt++
		}

		if err := s.cfg.Sink.Write(frame); err != nil {
			return Stats{FramesWritten: state.FramesWritten}, err
		}
		lastBuffer = frame
		state.FromFrameAt++
		state.FramesWritten++
	}
}

func (s *Scheduler) openCompositor(tr *timeline.Transition) (compositor.Compositor, timeline.Easing, error) {
	name := ""
	easing := ""
	if tr != nil {
		name = tr.Name
		easing = tr.Easing
	}
	comp, err := s.cfg.NewCompositor(name, s.cfg.Width, s.cfg.Height)
	if err != nil {
		return nil, nil, err
	}
	ease, err := timeline.EasingByName(easing)
	if err != nil {
		_ = comp.Close()
		return nil, nil, services.Wrap(services.ErrConfiguration, "scheduler", "resolve easing", err)
	}
	s.logger.Info("entering transition window",
		logging.String("transition", name),
		logging.String("easing", easing))
	return comp, ease, nil
}
