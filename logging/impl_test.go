package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

func readLogLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func TestConsoleOutputFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewBlankLogger("depth")
	logger.AddAppender(NewWriterAppender(buf))

	logger.Info("frame ready")
	parts := readLogLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2023-10-30T09:12:09.459Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "depth")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "frame ready")

	logger.Debugw("registered", "valid", 12, "grid", "color")
	parts = readLogLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[4], test.ShouldEqual, "registered")
	fields := map[string]interface{}{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields["valid"], test.ShouldEqual, 12.0)
	test.That(t, fields["grid"], test.ShouldEqual, "color")

	logger.Warnw("odd", "lonely")
	parts = readLogLine(t, buf)
	test.That(t, parts[5], test.ShouldContainSubstring, "unpaired log key")
}

func TestLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewBlankLogger("")
	logger.AddAppender(NewWriterAppender(buf))
	logger.SetLevel(WARN)

	logger.Debug("dropped")
	logger.Infof("dropped %d", 1)
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Errorf("kept %d", 2)
	parts := readLogLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "ERROR")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[len(parts)-1], test.ShouldEqual, "kept 2")

	sub := logger.Sublogger("registrar")
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
	sub.Warn("sub")
	parts = readLogLine(t, buf)
	test.That(t, parts[2], test.ShouldEqual, "registrar")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("undistorted", "width", 320)
	test.That(t, logs.FilterMessage("undistorted").Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["width"], test.ShouldEqual, int64(320))
}
