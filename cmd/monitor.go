package cmd

import (
	"expvar"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// progress is published once; each monitor resets it on start
var (
	progressOnce sync.Once
	progress     *expvar.Map
)

func progressMap() *expvar.Map {
	progressOnce.Do(func() {
		progress = expvar.NewMap("unitcube-progress")
	})
	return progress
}

// monitor counts batch progress. The counters always work; the HTTP server
// is only started by Serve.
type monitor struct {
	info    *expvar.Map
	log     *zap.Logger
	started time.Time
	stopped chan struct{}
	server  *http.Server
	addr    net.Addr

	FilesQueued    *expvar.Int
	FilesConverted *expvar.Int
	FilesFailed    *expvar.Int
	LinesWritten   *expvar.Int
	RunTime        *expvar.Float
}

// newMonitor resets and returns the batch progress counters
func newMonitor(log *zap.Logger) *monitor {
	m := &monitor{
		info:    progressMap(),
		log:     log,
		started: time.Now(),

		FilesQueued:    new(expvar.Int),
		FilesConverted: new(expvar.Int),
		FilesFailed:    new(expvar.Int),
		LinesWritten:   new(expvar.Int),
		RunTime:        new(expvar.Float),
	}

	m.info.Init()
	m.info.Set("Files-Queued", m.FilesQueued)
	m.info.Set("Files-Converted", m.FilesConverted)
	m.info.Set("Files-Failed", m.FilesFailed)
	m.info.Set("Lines-Written", m.LinesWritten)
	m.info.Set("Run-Time", m.RunTime)

	return m
}

// Tick updates the run time
func (m *monitor) Tick() {
	m.RunTime.Set(time.Since(m.started).Seconds())
}

// Serve starts the HTTP server on addr (e.g. ":8000")
func (m *monitor) Serve(addr string) error {
	if m.server != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "Could not start monitor on %s", addr)
	}
	m.addr = ln.Addr()

	// Help the user and redirect to the only thing currently available:
	// the handler from the expvar package
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})

	m.stopped = make(chan struct{})
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer close(m.stopped)
		m.server.Serve(ln) //nolint:errcheck
	}()

	m.log.Info("HTTP now available (see /debug/vars)", zap.Stringer("addr", m.addr))
	return nil
}

// Stop shuts down the HTTP server, if it was started
func (m *monitor) Stop() {
	m.Tick()
	if m.server == nil {
		return
	}

	m.server.Close() //nolint:errcheck

	select {
	case <-m.stopped:
		m.log.Debug("HTTP info stopped")
	case <-time.After(2 * time.Second):
		m.log.Warn("HTTP would NOT stop: just continuing on")
	}
}
