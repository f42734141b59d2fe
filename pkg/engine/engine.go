package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weft-ui/weft/pkg/renderer"
	"github.com/weft-ui/weft/pkg/vdom"
)

// Config configures an Engine. Renderer is required; everything else has a
// usable zero value.
type Config struct {
	// Renderer receives the engine's mutations. Required.
	Renderer renderer.Renderer

	// Scheduler delivers work-loop time slices. Default: TimerScheduler.
	Scheduler Scheduler

	// Logger receives engine lifecycle and failure logs.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics records Prometheus metrics when non-nil.
	Metrics *Metrics

	// Tracer emits pass and commit spans. Default: the global provider's
	// "weft/engine" tracer.
	Tracer trace.Tracer

	// MinBudget is the remaining-slice threshold below which the work loop
	// yields. Default: DefaultMinBudget.
	MinBudget time.Duration
}

// Engine drives one mounted tree: it reconciles vdom descriptions against
// the committed generation and applies the difference through the renderer.
//
// An Engine is confined to a single goroutine; see the package
// documentation.
type Engine struct {
	renderer  renderer.Renderer
	sched     Scheduler
	log       *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	minBudget time.Duration

	current   *fiber
	wip       *fiber
	next      *fiber
	deletions []*fiber
	done      func(error)

	scheduled bool
	passGen   uint64
	unitCount int
	opCount   int

	passCtx  context.Context
	passSpan trace.Span
}

// New returns an Engine for cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("weft/engine")
	}
	if cfg.MinBudget <= 0 {
		cfg.MinBudget = DefaultMinBudget
	}
	return &Engine{
		renderer:  cfg.Renderer,
		sched:     cfg.Scheduler,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		minBudget: cfg.MinBudget,
		passCtx:   context.Background(),
	}, nil
}

// Render asks the engine to make container's children look like el,
// replacing whatever was committed before. A nil el unmounts everything.
//
// The work happens asynchronously across scheduler slices. done, if
// non-nil, runs after the resulting commit (or with the error that aborted
// the pass); it replaces any completion callback still pending from an
// earlier Render. A Render issued while a pass is in flight supersedes it:
// the partial generation is discarded and rebuilt against current.
func (e *Engine) Render(el *vdom.VNode, container renderer.Handle, done func(error)) {
	e.done = done
	var elements []*vdom.VNode
	if el != nil {
		elements = []*vdom.VNode{el}
	}
	e.beginPass(elements, container)
}

// Current returns the container handle of the committed generation, nil
// before the first commit.
func (e *Engine) Current() renderer.Handle {
	if e.current == nil {
		return nil
	}
	return e.current.dom
}

// requestRender starts a fresh pass rooted at the committed generation.
// Hook setters call this; their writes sit in hook queues on current and
// are folded when the new generation renders.
func (e *Engine) requestRender() {
	if e.current == nil {
		e.log.Warn("state update before first commit; dropped")
		return
	}
	e.beginPass(e.current.elements, e.current.dom)
}

// beginPass derives a new wip root and seeds the unit cursor. An in-flight
// pass is superseded: its partial tree is dropped for the collector and its
// span closed.
func (e *Engine) beginPass(elements []*vdom.VNode, container renderer.Handle) {
	if e.wip != nil {
		e.metrics.recordSupersede()
		if e.passSpan != nil {
			e.passSpan.AddEvent("superseded")
			e.passSpan.End()
		}
		e.log.Debug("render pass superseded", "units", e.unitCount)
	}

	e.passGen++
	e.passCtx, e.passSpan = e.tracer.Start(context.Background(), "weft.pass")
	e.wip = &fiber{
		dom:       container,
		elements:  elements,
		alternate: e.current,
	}
	e.next = e.wip
	e.deletions = e.deletions[:0]
	e.unitCount = 0
	e.metrics.recordRender()
	e.schedule()
}

// schedule asks for a work-loop slice unless one is already pending.
func (e *Engine) schedule() {
	if e.scheduled {
		return
	}
	e.scheduled = true
	e.sched.Schedule(e.workLoop)
}

// workLoop processes units until the pass completes or less than MinBudget
// of the slice remains. At least one unit is processed per slice, so every
// pass makes progress no matter how small the slice.
func (e *Engine) workLoop(deadline time.Time) {
	e.scheduled = false
	if e.wip == nil {
		return
	}

	gen := e.passGen
	for e.next != nil {
		nxt, err := e.performUnit(e.next)
		if e.passGen != gen {
			// A setter fired during render superseded this pass inline
			// (SyncScheduler); the replacement already ran. Stop touching
			// the dead generation.
			return
		}
		if err != nil {
			e.failPass("render", err)
			return
		}
		e.next = nxt
		if time.Until(deadline) < e.minBudget {
			break
		}
	}

	if e.next == nil {
		err := e.commitRoot()
		if err != nil {
			e.failPass("commit", err)
			return
		}
		e.finishPass()
		return
	}
	e.schedule()
}

// performUnit renders one fiber and returns the next one: its child if it
// produced any, otherwise the nearest sibling found walking up the tree.
func (e *Engine) performUnit(f *fiber) (*fiber, error) {
	e.unitCount++
	if f.typ.IsComponent() {
		if err := e.updateComponent(f); err != nil {
			return nil, err
		}
	} else {
		e.reconcileChildren(f, f.elements)
	}

	if f.child != nil {
		return f.child, nil
	}
	for n := f; n != nil; n = n.parent {
		if n.sibling != nil {
			return n.sibling, nil
		}
	}
	return nil, nil
}

// updateComponent invokes the component function with a fresh hook frame
// and reconciles its single result. A nil result renders nothing, deleting
// whatever the component produced before.
func (e *Engine) updateComponent(f *fiber) error {
	frame := &hookFrame{engine: e, fiber: f}
	child := f.typ.Fn()(frame, f.props)
	if err := frame.finish(); err != nil {
		return err
	}
	if child != nil {
		f.elements = []*vdom.VNode{child}
	} else {
		f.elements = nil
	}
	e.reconcileChildren(f, f.elements)
	return nil
}

// finishPass closes out a committed pass and fires the completion callback.
func (e *Engine) finishPass() {
	e.metrics.recordUnits(e.unitCount)
	if e.passSpan != nil {
		e.passSpan.SetAttributes(attribute.Int("weft.units", e.unitCount))
		e.passSpan.SetStatus(codes.Ok, "")
		e.passSpan.End()
		e.passSpan = nil
	}
	e.log.Debug("render pass committed", "units", e.unitCount)

	done := e.done
	e.done = nil
	if done != nil {
		done(nil)
	}
}

// failPass abandons the in-flight pass. The committed generation stays as
// it was for render-phase failures; a commit-phase failure may have applied
// a prefix of its mutations, which the caller owns (no rollback).
func (e *Engine) failPass(stage string, err error) {
	e.metrics.recordError(stage)
	e.metrics.recordUnits(e.unitCount)
	if e.passSpan != nil {
		e.passSpan.RecordError(err)
		e.passSpan.SetStatus(codes.Error, stage+" failed")
		e.passSpan.End()
		e.passSpan = nil
	}
	e.log.Error("render pass failed", "stage", stage, "error", err)

	e.wip = nil
	e.next = nil
	e.deletions = e.deletions[:0]

	done := e.done
	e.done = nil
	if done != nil {
		done(err)
	}
}
