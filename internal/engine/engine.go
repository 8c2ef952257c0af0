package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"novelreel/internal/config"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Logger *slog.Logger
	Jobs   *Jobs
	Video  *VideoJob
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Jobs:   NewJobs(),
		Video:  &VideoJob{},
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// stepDelay paces simulated generation work.
func (e Engine) stepDelay() time.Duration {
	if e.Config == nil || e.Config.Media.StepDelayMS <= 0 {
		return 0
	}
	return time.Duration(e.Config.Media.StepDelayMS) * time.Millisecond
}

// Error is a rule violation reported to clients as an error envelope.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func failf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is an expected business outcome rather
// than an internal failure.
func IsRejection(err error) bool {
	var be *Error
	return errors.As(err, &be) || errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrExists)
}

const maxNameRunes = 100

func validName(kind, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return failf("%s名称不能为空", kind)
	case utf8.RuneCountInString(name) > maxNameRunes:
		return failf("%s名称过长", kind)
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		return failf("%s名称包含非法字符", kind)
	}
	return nil
}

func required(vals ...string) error {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return failf("缺少必要参数")
		}
	}
	return nil
}
