package ui

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/rs/zerolog"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var stopColor = color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}

// Shell is the Gio window: three action buttons, a status line and the
// scrollable reading view.
type Shell struct {
	title      string
	controller Controller
	store      *state_managers.ReadingStateManager
	logger     zerolog.Logger

	theme      *material.Theme
	permission widget.Clickable
	start      widget.Clickable
	stop       widget.Clickable
	list       widget.List

	mu      sync.Mutex
	ctx     context.Context
	window  *app.Window
	message string
}

// NewShell creates a Shell. The window is opened by Run.
func NewShell(title string, controller Controller, store *state_managers.ReadingStateManager, logger zerolog.Logger) *Shell {
	s := &Shell{
		title:      title,
		controller: controller,
		store:      store,
		logger:     logger,
		theme:      material.NewTheme(gofont.Collection()),
		list:       widget.List{List: layout.List{Axis: layout.Vertical}},
		ctx:        context.Background(),
	}
	store.OnChange(s.invalidate)
	return s
}

// Run opens the window and processes its events until it is destroyed.
// Cancelling ctx closes the window.
func (s *Shell) Run(ctx context.Context) error {
	w := app.NewWindow(app.Title(s.title), app.Size(unit.Dp(420), unit.Dp(720)))

	s.mu.Lock()
	s.ctx = ctx
	s.window = w
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.window = nil
		s.mu.Unlock()
	}()

	done := ctx.Done()
	var ops op.Ops
	for {
		select {
		case <-done:
			done = nil
			w.Perform(system.ActionClose)
		case e := <-w.Events():
			switch e := e.(type) {
			case system.DestroyEvent:
				return e.Err
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				s.Layout(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}
}

// Layout handles pending clicks and draws the shell.
func (s *Shell) Layout(gtx C) D {
	for s.permission.Clicked() {
		s.dispatch("Requesting permission", func(ctx context.Context) string {
			return fmt.Sprintf("Location permission %s", s.controller.RequestLocationPermission(ctx))
		})
	}
	for s.start.Clicked() {
		s.dispatch("Starting", func(ctx context.Context) string {
			if err := s.controller.StartTracking(ctx); err != nil {
				return "Start failed: " + err.Error()
			}
			return ""
		})
	}
	for s.stop.Clicked() {
		s.dispatch("Stopping", func(ctx context.Context) string {
			if err := s.controller.StopTracking(ctx); err != nil {
				return "Stop failed: " + err.Error()
			}
			return ""
		})
	}

	reading, present := s.store.Current()
	rows := flatten(Render(reading, present))

	return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(s.button(&s.permission, "Request Permission", nil)),
			layout.Rigid(s.button(&s.start, "Start Tracking", nil)),
			layout.Rigid(s.button(&s.stop, "Stop Tracking", &stopColor)),
			layout.Rigid(func(gtx C) D {
				return layout.Inset{Top: unit.Dp(8), Bottom: unit.Dp(8)}.Layout(gtx,
					material.Body2(s.theme, s.statusLine()).Layout)
			}),
			layout.Flexed(1, func(gtx C) D {
				return material.List(s.theme, &s.list).Layout(gtx, len(rows), func(gtx C, i int) D {
					r := rows[i]
					if r.title {
						return layout.Inset{Top: unit.Dp(12), Bottom: unit.Dp(4)}.Layout(gtx,
							material.H6(s.theme, r.text).Layout)
					}
					return material.Body1(s.theme, r.text).Layout(gtx)
				})
			}),
		)
	})
}

func (s *Shell) button(click *widget.Clickable, label string, bg *color.NRGBA) layout.Widget {
	return func(gtx C) D {
		return layout.Inset{Bottom: unit.Dp(8)}.Layout(gtx, func(gtx C) D {
			btn := material.Button(s.theme, click, label)
			if bg != nil {
				btn.Background = *bg
			}
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return btn.Layout(gtx)
		})
	}
}

// dispatch runs action off the frame loop and shows its outcome in the status line.
func (s *Shell) dispatch(pending string, action func(ctx context.Context) string) {
	s.setMessage(pending + "...")

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	go func() {
		s.setMessage(action(ctx))
	}()
}

func (s *Shell) statusLine() string {
	s.mu.Lock()
	message := s.message
	s.mu.Unlock()

	status := fmt.Sprintf("Status: %s", s.controller.State())
	if message != "" {
		status += " | " + message
	}
	return status
}

func (s *Shell) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
	s.invalidate()
}

func (s *Shell) invalidate() {
	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	if w != nil {
		w.Invalidate()
	}
}

type row struct {
	text  string
	title bool
}

func flatten(v View) []row {
	var rows []row
	for _, sec := range v.Sections {
		rows = append(rows, row{text: sec.Title, title: true})
		if len(sec.Lines) == 0 {
			rows = append(rows, row{text: sec.Placeholder})
			continue
		}
		for _, l := range sec.Lines {
			rows = append(rows, row{text: l.String()})
		}
	}
	return rows
}
