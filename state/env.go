// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"cssnest/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// identifies single program run in logs and debug report
	RunID uuid.UUID

	// used by resolve and watch subcommands
	NoDirs    bool
	Overwrite bool
	ToStdout  bool
	Check     bool
	CodePage  encoding.Encoding
	// called for every output file written, if set
	OnOutput func(name string)

	Stats Stats

	start         time.Time
	restoreStdLog func()
}

// Stats counts processed stylesheets for the final summary.
type Stats struct {
	Processed int
	Skipped   int
	Failed    int
	// only for --check
	Unresolved int
}

func (s Stats) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
