package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Laisky/zap"
	"github.com/stretchr/testify/require"

	"github.com/songquanpeng/hamming-ci/common/config"
)

func TestNewWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	lg, err := New("test", &buf)
	require.NoError(t, err)

	lg.Info("poll tick", zap.String("run_id", "tr_1"))
	lg.Debug("hidden at info level")
	_ = lg.Sync()

	out := buf.String()
	require.Contains(t, out, "poll tick")
	require.Contains(t, out, "tr_1")
	require.NotContains(t, out, "hidden at info level")
}

func TestNewHonoursChangeLevel(t *testing.T) {
	var buf bytes.Buffer
	lg, err := New("test", &buf)
	require.NoError(t, err)

	require.NoError(t, lg.ChangeLevel("debug"))
	lg.Debug("visible at debug level")
	_ = lg.Sync()

	require.Contains(t, buf.String(), "visible at debug level")
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	original := Logger
	t.Cleanup(func() { Logger = original })

	t.Run("without_alert_pusher", func(t *testing.T) {
		cfg := &config.Config{}
		require.NoError(t, Setup(ctx, cfg, "inv-1"))
		Logger.Info("test log message without alert pusher")
	})

	t.Run("with_alert_pusher_config", func(t *testing.T) {
		// setup must not dial the endpoint
		cfg := &config.Config{
			LogPushAPI:   "http://invalid-test-url.example.com/api/push",
			LogPushType:  "test",
			LogPushToken: "test-token",
		}
		require.NoError(t, Setup(ctx, cfg, "inv-2"))
		Logger.Info("test log message with alert pusher config")
	})

	t.Run("writes_log_file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "hamming-ci.log")
		cfg := &config.Config{LogFile: logPath, Debug: true}
		require.NoError(t, Setup(ctx, cfg, "inv-3"))

		Logger.Debug("file logging test entry")
		_ = Logger.Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(content), "file logging test entry"))
		require.True(t, strings.Contains(string(content), "inv-3"))
	})

	t.Run("close_flushes_and_releases_log_file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "hamming-ci.log")
		require.NoError(t, Setup(ctx, &config.Config{LogFile: logPath}, "inv-5"))
		fd := logFile
		require.NotNil(t, fd)

		Logger.Error("gate failed before exit")
		require.NoError(t, Close())
		require.Nil(t, logFile)
		_, err := fd.Write([]byte("late"))
		require.ErrorIs(t, err, os.ErrClosed)
		require.NoError(t, Close())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.Contains(t, string(content), "gate failed before exit")
	})

	t.Run("setup_again_closes_previous_log_file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Setup(ctx, &config.Config{LogFile: filepath.Join(dir, "a.log")}, "inv-6"))
		first := logFile

		require.NoError(t, Setup(ctx, &config.Config{LogFile: filepath.Join(dir, "b.log")}, "inv-7"))
		_, err := first.Write([]byte("late"))
		require.ErrorIs(t, err, os.ErrClosed)
		require.NoError(t, Close())
	})

	t.Run("bad_log_file", func(t *testing.T) {
		cfg := &config.Config{LogFile: filepath.Join(t.TempDir(), "missing", "x.log")}
		require.Error(t, Setup(ctx, cfg, "inv-4"))
	})
}
