package ui

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/models"
	"github.com/roam-ai/whileusing-batch-listener/internal/permissions"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu       sync.Mutex
	calls    []string
	state    constants.TrackingState
	startErr error
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) RequestLocationPermission(context.Context) permissions.Status {
	f.record("permission")
	return permissions.Granted
}

func (f *fakeController) StartTracking(context.Context) error {
	f.record("start")
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.state = constants.StateTracking
	f.mu.Unlock()
	return nil
}

func (f *fakeController) StopTracking(context.Context) error {
	f.record("stop")
	f.mu.Lock()
	f.state = constants.StateIdle
	f.mu.Unlock()
	return nil
}

func (f *fakeController) State() constants.TrackingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == "" {
		return constants.StateIdle
	}
	return f.state
}

func TestRender_Empty(t *testing.T) {
	view := Render(nil, false)

	require.Len(t, view.Sections, 2)
	assert.Equal(t, constants.LocationSectionTitle, view.Sections[0].Title)
	assert.Empty(t, view.Sections[0].Lines)
	assert.Equal(t, constants.NoLocationData, view.Sections[0].Placeholder)
	assert.Equal(t, constants.DeviceSectionTitle, view.Sections[1].Title)
	assert.Empty(t, view.Sections[1].Lines)
	assert.Contains(t, view.String(), constants.NoLocationData)
	assert.Contains(t, view.String(), constants.NoDeviceInfo)
}

func TestRender_ObjectPayload(t *testing.T) {
	reading := models.Reading{
		"location": map[string]any{"lng": 2, "lat": 1},
		"battery":  90,
	}

	view := Render(reading, true)

	assert.Equal(t, []Line{{Key: "lat", Value: "1"}, {Key: "lng", Value: "2"}}, view.Sections[0].Lines)
	assert.Equal(t, []Line{{Key: "battery", Value: "90"}}, view.Sections[1].Lines)
	assert.Equal(t, "Location Data\n  lat: 1\n  lng: 2\n\nDevice Info\n  battery: 90\n", view.String())
}

func TestRender_ArrayPayloadMatchesObject(t *testing.T) {
	object := map[string]any{"location": map[string]any{"lat": 1, "lng": 2}, "battery": 90}
	fromArray, err := models.NormalizePayload([]any{object})
	require.NoError(t, err)
	fromObject, err := models.NormalizePayload(object)
	require.NoError(t, err)

	assert.Equal(t, Render(fromObject, true), Render(fromArray, true))
}

func TestRender_NoLocationKey(t *testing.T) {
	view := Render(models.Reading{"speed": 3.5}, true)

	assert.Empty(t, view.Sections[0].Lines)
	assert.Equal(t, []Line{{Key: "speed", Value: "3.5"}}, view.Sections[1].Lines)
}

func TestRender_EmptyPresentReading(t *testing.T) {
	view := Render(models.Reading{}, true)

	assert.Empty(t, view.Sections[0].Lines)
	assert.Empty(t, view.Sections[1].Lines)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"abc", "abc"},
		{true, "true"},
		{false, "false"},
		{90, "90"},
		{int64(-7), "-7"},
		{90.0, "90"},
		{12.971599, "12.971599"},
		{float32(0.5), "0.5"},
		{map[string]any{"b": 1, "a": []any{1, "x"}}, `{"a":[1,"x"],"b":1}`},
		{[]any{1, 2}, "[1,2]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in), "%#v", tt.in)
	}
}

func TestConsole_Commands(t *testing.T) {
	controller := &fakeController{}
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("permission\nstart\nbogus\nstop\nquit\nstart\n"))

	console := NewConsole(in, &out, controller, store, zerolog.Nop())
	err := console.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"permission", "start", "stop"}, controller.Calls())
	assert.Contains(t, out.String(), "location permission: granted")
	assert.Contains(t, out.String(), "status: tracking")
	assert.Contains(t, out.String(), "status: idle")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestConsole_ReportsStartFailure(t *testing.T) {
	controller := &fakeController{startErr: errors.New("denied")}
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("start\n"))

	err := NewConsole(in, &out, controller, store, zerolog.Nop()).Run(context.Background())

	assert.NoError(t, err)
	assert.Contains(t, out.String(), "start failed: denied")
}

func TestConsole_PrintsReadingOnChange(t *testing.T) {
	controller := &fakeController{}
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	var out syncBuffer
	in := bufio.NewReader(strings.NewReader("show\n"))

	console := NewConsole(in, &out, controller, store, zerolog.Nop())
	store.Set(models.Reading{"battery": 42})
	require.NoError(t, console.Run(context.Background()))

	assert.Contains(t, out.String(), "battery: 42")
	assert.NotContains(t, out.String(), constants.NoDeviceInfo)
}

func TestConsole_StopsOnCancel(t *testing.T) {
	controller := &fakeController{}
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	pr, pw := ioPipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewConsole(bufio.NewReader(pr), &syncBuffer{}, controller, store, zerolog.Nop()).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("console did not stop after cancel")
	}
}

func TestShell_Layout(t *testing.T) {
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	shell := NewShell("test", &fakeController{}, store, zerolog.Nop())
	store.Set(models.Reading{"location": map[string]any{"lat": 1}, "battery": 90})

	gtx := layout.Context{
		Ops:         new(op.Ops),
		Metric:      unit.Metric{PxPerDp: 1, PxPerSp: 1},
		Constraints: layout.Exact(image.Pt(420, 720)),
	}
	dims := shell.Layout(gtx)

	assert.Equal(t, 420, dims.Size.X)
	assert.NotZero(t, dims.Size.Y)
	assert.Equal(t, "Status: idle", shell.statusLine())
}

func TestShell_Flatten(t *testing.T) {
	rows := flatten(Render(models.Reading{"location": map[string]any{"lat": 1}}, true))

	assert.Equal(t, []row{
		{text: constants.LocationSectionTitle, title: true},
		{text: "lat: 1"},
		{text: constants.DeviceSectionTitle, title: true},
		{text: constants.NoDeviceInfo},
	}, rows)
}

func TestShell_DispatchUpdatesStatus(t *testing.T) {
	store := state_managers.NewReadingStateManager(zerolog.Nop())
	controller := &fakeController{}
	shell := NewShell("test", controller, store, zerolog.Nop())

	shell.dispatch("Starting", func(ctx context.Context) string {
		_ = controller.StartTracking(ctx)
		return "done"
	})

	assert.Eventually(t, func() bool {
		return shell.statusLine() == "Status: tracking | done"
	}, time.Second, 10*time.Millisecond)
}
