package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Alerter raises user-facing alerts for freshly pushed notifications.
// Implementations are best-effort and must swallow their own failures;
// nothing on the data path depends on them.
type Alerter interface {
	Alert(n Notification)
	PlaySound()
}

// NopAlerter does nothing. Used in tests and headless runs.
type NopAlerter struct{}

// Alert implements Alerter.
func (NopAlerter) Alert(Notification) {}

// PlaySound implements Alerter.
func (NopAlerter) PlaySound() {}

// ExecAlerter shells out to desktop tooling (notify-send, paplay).
// Commands run on their own goroutine: callers sit on the push channel's
// read path and must not wait out a slow desktop helper.
type ExecAlerter struct {
	Log *slog.Logger

	// SoundFile is the audio cue passed to paplay. Empty disables sound.
	SoundFile string

	// run replaces command execution in tests.
	run func(ctx context.Context, name string, args ...string) error
}

const alerterTimeout = 3 * time.Second

// Alert implements Alerter.
func (a ExecAlerter) Alert(n Notification) {
	go a.runCmd("alert.desktop.fail", "notify-send", n.Title, n.Message)
}

// PlaySound implements Alerter.
func (a ExecAlerter) PlaySound() {
	if a.SoundFile == "" {
		return
	}
	go a.runCmd("alert.sound.fail", "paplay", a.SoundFile)
}

func (a ExecAlerter) runCmd(failEvent, name string, args ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), alerterTimeout)
	defer cancel()

	run := a.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		}
	}
	if err := run(ctx, name, args...); err != nil && a.Log != nil {
		a.Log.Debug(failEvent, "err", err)
	}
}
