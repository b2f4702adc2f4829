package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, nil))
	log.Info("pad array loaded", "module", "readoutpad")

	line := buf.String()
	re := regexp.MustCompile(`^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[readoutpad\] pad array loaded\n$`)
	assert.Regexp(t, re, line)
}

func TestHandlerFields(t *testing.T) {
	t.Parallel()

	stamp := `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] `
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "attributes after message",
			log: func(l *slog.Logger) {
				l.Info("tracks simulated", "module", "simulator", "tracks", 20, "plane", "xz")
			},
			want: `\[simulator\] tracks simulated tracks=20 plane=xz\n$`,
		},
		{
			name: "no component",
			log:  func(l *slog.Logger) { l.Info("start") },
			want: `start\n$`,
		},
		{
			name: "level tag",
			log:  func(l *slog.Logger) { l.Warn("slow fit", "module", "mcagain") },
			want: `\[WARN\] \[mcagain\] slow fit\n$`,
		},
		{
			name: "quoted value",
			log:  func(l *slog.Logger) { l.Info("saved", "module", "catmview", "file", "run 12.png") },
			want: `\[catmview\] saved file="run 12.png"\n$`,
		},
		{
			name: "component from With",
			log: func(l *slog.Logger) {
				l.With("module", "analyser", "run", 7).Info("peak found", "mean", 2.5)
			},
			want: `\[analyser\] peak found run=7 mean=2.5\n$`,
		},
		{
			name: "grouped attributes",
			log: func(l *slog.Logger) {
				l.WithGroup("fit").Info("calibrated", "module", "ignored", slog.Group("peak", "mean", 3))
			},
			want: `calibrated fit.module=ignored fit.peak.mean=3\n$`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(slog.New(NewHandler(&buf, nil)))
			assert.Regexp(t, regexp.MustCompile(stamp+tt.want), buf.String())
		})
	}
}

func TestHandlerWithAttrsIsolated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(NewHandler(&buf, nil)).With("module", "simulator")
	base.With("track", 1).Info("first")
	base.Info("second")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "[simulator] first track=1"))
	assert.True(t, strings.HasSuffix(lines[1], "[simulator] second"))
}

func TestHandlerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSlogLogger(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	l := New(&out, &errOut, slog.LevelDebug)
	l.Info("simulation started", "simtrack")
	l.Error("ngspice not found")

	assert.True(t, strings.HasSuffix(out.String(), " [simtrack] simulation started\n"))
	require.NotEmpty(t, errOut.String())
	assert.Contains(t, errOut.String(), `"msg":"ngspice not found"`)
	assert.Contains(t, errOut.String(), `"level":"ERROR"`)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	l := Discard()
	assert.NotPanics(t, func() {
		l.Info("nothing", "test")
		l.Error("nothing")
	})
}
