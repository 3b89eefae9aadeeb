package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"":        InfoLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
		"fatal":   FatalLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLogger_LevelRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger(&out, &errOut, InfoLevel)

	l.Debug("hidden")
	l.Info("shown", Fields{"samples": 150})
	l.Warn("careful")
	l.Error(errors.New("boom"), "failed")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[INFO] shown samples=150")
	assert.Contains(t, errOut.String(), "[WARN] careful")
	assert.Contains(t, errOut.String(), "[ERROR] failed: boom")
}

func TestDefaultLogger_FieldsAreSortedAndInherited(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(&out, &out, DebugLevel)

	child := l.WithFields(Fields{"component": "bpm_estimator"})
	child.Debug("estimate", Fields{"peaks": 7, "outcome": "valid"})

	assert.Contains(t, out.String(), "[DEBUG] estimate component=bpm_estimator outcome=valid peaks=7")
}

func TestDefaultLogger_ChildSharesLevel(t *testing.T) {
	var out bytes.Buffer
	root := NewLogger(&out, &out, InfoLevel)
	child := root.WithFields(Fields{"component": "session"})

	child.Debug("before")
	root.SetLevel(DebugLevel)
	child.Debug("after")

	assert.NotContains(t, out.String(), "before")
	assert.Contains(t, out.String(), "after")
}

func TestDefaultLogger_FatalExits(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(&out, &out, InfoLevel)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal(errors.New("bad config"), "cannot start")

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[FATAL] cannot start: bad config")
}

func TestWithContext(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(&out, &out, InfoLevel)

	ctx := ContextWithFields(context.Background(), Fields{"session_id": "abc"})
	ctx = ContextWithFields(ctx, Fields{"seq": 3})
	l.WithContext(ctx).Info("update")

	assert.Contains(t, out.String(), "[INFO] update seq=3 session_id=abc")
}

func TestDefaultLogger_FieldOrderIsStable(t *testing.T) {
	fields := Fields{"zone": "medium", "bpm": 72, "session_id": "abc", "outcome": "valid", "seq": 4}
	want := "[INFO] estimate bpm=72 outcome=valid seq=4 session_id=abc zone=medium\n"

	for range 20 {
		var out bytes.Buffer
		l := NewLogger(&out, &out, InfoLevel)
		l.Info("estimate", fields)
		assert.True(t, strings.HasSuffix(out.String(), want), out.String())
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
