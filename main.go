package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/wakeup/pkg/audio"
	"github.com/borgmon/wakeup/pkg/calendar"
	"github.com/borgmon/wakeup/pkg/config"
	"github.com/borgmon/wakeup/pkg/dispatch"
	"github.com/borgmon/wakeup/pkg/engine"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/borgmon/wakeup/pkg/platform"
	"github.com/borgmon/wakeup/pkg/scheduler"
	"github.com/borgmon/wakeup/pkg/stats"
	"github.com/borgmon/wakeup/pkg/store"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Wakeup struct {
	app     fyne.App
	cfg     config.Config
	log     *zap.Logger
	clock   clockwork.Clock
	closer  io.Closer
	engine  *engine.Engine
	sched   *scheduler.Scheduler
	tracker *stats.Tracker
	ticker  clockwork.Ticker
}

type options struct {
	envFile    string
	importFrom string
	exportTo   string
	addTime    string
	addDays    string
	addSound   string
	history    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.envFile, "env", ".env", "dotenv file with WAKE_* settings")
	flag.StringVar(&opts.importFrom, "import", "", "import alarms from an iCalendar file or URL and exit")
	flag.StringVar(&opts.exportTo, "export", "", "export alarms to an iCalendar file (- for stdout) and exit")
	flag.StringVar(&opts.addTime, "add", "", "add an alarm at HH:MM (or H:MM AM/PM) and exit")
	flag.StringVar(&opts.addDays, "days", "", "comma separated repeat days for -add, e.g. Mon,Wed,Fri")
	flag.StringVar(&opts.addSound, "sound", "", "WAV file for -add")
	flag.BoolVar(&opts.history, "history", false, "print recent wake-ups and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "wakeup:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	w, err := newWakeup(app.NewWithID(cfg.AppID), cfg, logger)
	if err != nil {
		return err
	}
	defer w.close()

	switch {
	case opts.importFrom != "":
		return w.importAlarms(opts.importFrom)
	case opts.exportTo != "":
		return w.exportAlarms(opts.exportTo)
	case opts.addTime != "":
		return w.addAlarm(opts.addTime, opts.addDays, opts.addSound)
	case opts.history:
		return w.printHistory(os.Stdout)
	}

	if err := w.initialize(); err != nil {
		return err
	}
	w.run()
	return nil
}

func newWakeup(a fyne.App, cfg config.Config, log *zap.Logger) (*Wakeup, error) {
	w := &Wakeup{
		app:   a,
		cfg:   cfg,
		log:   log,
		clock: clockwork.NewRealClock(),
	}

	var kv store.KV
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		w.closer = db
		kv = db
		log.Info("using sqlite store", zap.String("path", cfg.DBPath))
	default:
		kv = store.NewPrefs(a)
	}

	w.tracker = stats.NewTracker(store.NewWakeUpLog(kv), w.clock, log.Named("stats"))

	notifier := dispatch.NewNotifier(a, platform.BringToFront)
	dispatcher := dispatch.New(audio.NewPlayer(log.Named("audio")), audio.NewBuzzer(), notifier, log.Named("dispatch"))

	w.sched = scheduler.New(w.clock, scheduler.NewCronLoop(w.clock), dispatcher, log.Named("scheduler"),
		scheduler.WithPeriod(cfg.CheckPeriod))
	w.engine = engine.New(store.NewAlarmStore(kv), store.NewConfigStore(kv), w.tracker, w.sched, w.clock, log.Named("engine"))
	return w, nil
}

func (w *Wakeup) initialize() error {
	settings, err := w.engine.Settings()
	if err != nil {
		return err
	}

	// Sync autostart state with settings on startup
	if err := setupAutostart(settings.AutoStart, w.log); err != nil {
		w.log.Warn("failed to setup autostart", zap.Error(err))
	}

	if err := w.engine.Reload(); err != nil {
		return err
	}
	w.sched.Subscribe(func(string) {
		fyne.Do(w.updateSystemTrayMenu)
	})

	w.setupSystemTray()
	w.startMenuRefresh()
	return nil
}

func (w *Wakeup) run() {
	w.app.Lifecycle().SetOnStarted(platform.SetActivationPolicy)
	w.app.Run()
}

// startMenuRefresh keeps the time remaining in the tray current.
func (w *Wakeup) startMenuRefresh() {
	w.ticker = w.clock.NewTicker(time.Minute)
	go func() {
		for range w.ticker.Chan() {
			fyne.Do(w.updateSystemTrayMenu)
		}
	}()
}

func (w *Wakeup) quit() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	if err := w.engine.Stop(); err != nil {
		w.log.Warn("stopping scheduler failed", zap.Error(err))
	}
	w.app.Quit()
}

func (w *Wakeup) close() {
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			w.log.Warn("closing store failed", zap.Error(err))
		}
	}
}

func (w *Wakeup) importAlarms(source string) error {
	rc, err := calendar.Open(context.Background(), source)
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := w.engine.Import(rc)
	if err != nil {
		return err
	}
	if err := w.engine.Stop(); err != nil {
		return err
	}
	fmt.Printf("imported %d alarms from %s\n", n, source)
	return nil
}

func (w *Wakeup) exportAlarms(target string) error {
	if target == "-" {
		return w.engine.Export(os.Stdout)
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := w.engine.Export(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Wakeup) addAlarm(hhmm, days, sound string) error {
	alarm, err := models.NewAlarm(hhmm, splitDays(days), w.clock.Now())
	if err != nil {
		return err
	}
	if sound != "" {
		alarm.SoundRef = sound
		alarm.SoundLabel = strings.TrimSuffix(filepath.Base(sound), filepath.Ext(sound))
	}
	if err := w.engine.SaveAlarm(alarm); err != nil {
		return err
	}
	if err := w.engine.Stop(); err != nil {
		return err
	}
	fmt.Printf("added alarm %s at %s\n", alarm.ID, alarm.Time)
	return nil
}

func (w *Wakeup) printHistory(out io.Writer) error {
	records, err := w.tracker.Records()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no wake-ups recorded")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s %s\n", r.Date, r.Time)
	}
	fmt.Fprintln(out, w.tracker.Summary())
	return nil
}

func splitDays(s string) []string {
	var days []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, d)
		}
	}
	return days
}
