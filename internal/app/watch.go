package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/config"
	"github.com/blackwell-systems/cropflow/internal/output"
	"github.com/blackwell-systems/cropflow/internal/watcher"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchExisting bool
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import observation files dropped into an inbox directory",
	Long: `Watch polls a directory for CSV, JSON and XLSX observation files and
imports every file that appears or changes. Each import raises an alert on
the terminal and, with --notify, as a desktop notification.`,
	Example: `  cropflow watch ./inbox                 # run in foreground (ctrl-c to stop)
  cropflow watch ./inbox --existing      # import files already present first
  cropflow watch ./inbox --daemon        # write PID and log files
  cropflow watch --stop                  # stop the background daemon`,
	Args: func(cmd *cobra.Command, args []string) error {
		if watchStop {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "30s", "Check interval as duration string (e.g. 10s, 5m)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Import files already in the directory on start")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
	}
	if interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", interval)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if watchDaemon {
		return runDaemon(cmd.Context(), rt, args[0], interval)
	}
	return runForeground(cmd.Context(), cmd.OutOrStdout(), rt, args[0], interval)
}

func newInboxWatcher(rt *runtime, dir string, interval time.Duration, alertFn func(watcher.Alert)) *watcher.Watcher {
	w := watcher.New(dir, interval, rt.db, func(a watcher.Alert) {
		rt.logger.Debug("watch alert", "level", a.Level, "title", a.Title, "message", a.Message)
		if watchNotify {
			_ = watcher.Notify(a)
		}
		alertFn(a)
	})
	w.ImportExisting = watchExisting
	return w
}

// runForeground runs the watcher with live terminal output until ctx ends.
func runForeground(ctx context.Context, out io.Writer, rt *runtime, dir string, interval time.Duration) error {
	if watchQuiet {
		out = io.Discard
	}
	fmt.Fprintf(out, "cropflow watching %s (checking every %s)\n", dir, interval)

	w := newInboxWatcher(rt, dir, interval, func(a watcher.Alert) { printAlert(out, a) })
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "[%s] %s Watching\n", time.Now().Format("15:04:05"), output.StyleSuccess.Render("✓"))

	err := w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nStopped.")
		return nil
	}
	return err
}

// runDaemon writes PID and log files, then runs the watcher. Backgrounding
// is left to the caller (nohup, &, a service manager).
func runDaemon(ctx context.Context, rt *runtime, dir string, interval time.Duration) error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	writeLog(logFile, "cropflow daemon started (PID %d, dir %s, interval %s)", pid, dir, interval)

	w := newInboxWatcher(rt, dir, interval, func(a watcher.Alert) {
		writeLog(logFile, "[%s] %s: %s", a.Level, a.Title, a.Message)
	})
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		writeLog(logFile, "daemon stopped")
		return nil
	}
	return err
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// writeLog writes a timestamped line to the log file.
func writeLog(f io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(f, "[%s] %s\n", timestamp, msg)
}

// printAlert formats one alert for the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	fmt.Fprintf(w, "[%s] %s %s\n", a.Time.Format("15:04:05"), alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "         %s\n", output.StyleMuted.Render(a.Message))
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("✗")
	case "warning":
		return output.StyleWarning.Render("!")
	case "info":
		return output.StyleSuccess.Render("✓")
	default:
		return " "
	}
}
