// internal/logger/styled.go
package logger

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/theme"
)

// StyledLogger wraps slog.Logger with theme-aware formatting methods for
// connection-pool events: destination labels, stage transitions, and
// state changes.
type StyledLogger struct {
	logger *slog.Logger
	theme  *theme.Theme
}

// NewStyledLogger creates a new styled logger with the given theme.
func NewStyledLogger(logger *slog.Logger, t *theme.Theme) *StyledLogger {
	return &StyledLogger{logger: logger, theme: t}
}

// NewPlain creates a styled logger with the default theme, for tests and
// other callers that don't need a configured terminal backend.
func NewPlain(logger *slog.Logger) *StyledLogger {
	return &StyledLogger{logger: logger, theme: theme.Default()}
}

func (sl *StyledLogger) Debug(msg string, args ...any) { sl.logger.Debug(msg, args...) }
func (sl *StyledLogger) Info(msg string, args ...any)  { sl.logger.Info(msg, args...) }
func (sl *StyledLogger) Warn(msg string, args ...any)  { sl.logger.Warn(msg, args...) }
func (sl *StyledLogger) Error(msg string, args ...any) { sl.logger.Error(msg, args...) }

// InfoWithDestination logs an info line with the destination key styled
// using the theme's Highlight colour.
func (sl *StyledLogger) InfoWithDestination(msg, destination string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.theme.Highlight.Sprint(destination))
	sl.logger.Info(styledMsg, args...)
}

// WarnWithDestination is InfoWithDestination's warning-level counterpart.
func (sl *StyledLogger) WarnWithDestination(msg, destination string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.theme.Warning.Sprint(destination))
	sl.logger.Warn(styledMsg, args...)
}

// ErrorWithDestination is InfoWithDestination's error-level counterpart.
func (sl *StyledLogger) ErrorWithDestination(msg, destination string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.theme.Danger.Sprint(destination))
	sl.logger.Error(styledMsg, args...)
}

// InfoStateChange logs a client's state transition, coloured by whether
// the client's last outcome succeeded or failed.
func (sl *StyledLogger) InfoStateChange(msg, destination string, st domain.ConnectionState, args ...any) {
	var styled string
	if st == domain.StateSucceeded {
		styled = sl.theme.Success.Sprint(st.String())
	} else {
		styled = pterm.NewStyle(sl.theme.Danger).Sprint(st.String())
	}
	styledMsg := fmt.Sprintf("%s %s is %s", msg, sl.theme.Highlight.Sprint(destination), styled)
	sl.logger.Info(styledMsg, args...)
}

// WarnStage logs a stage-level warning (e.g. a retried transport error),
// styling both the destination and the stage name.
func (sl *StyledLogger) WarnStage(msg, destination string, stage domain.Stage, args ...any) {
	styledMsg := fmt.Sprintf("%s %s at stage %s", msg,
		sl.theme.Highlight.Sprint(destination),
		pterm.NewStyle(sl.theme.Warning).Sprint(stage.String()))
	sl.logger.Warn(styledMsg, args...)
}

// InfoWithCount logs an info line with a styled numeric count.
func (sl *StyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.theme.Accent.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

// GetUnderlying returns the underlying slog.Logger for cases where direct
// access is needed.
func (sl *StyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

// WithAttrs creates a new StyledLogger with additional structured
// attributes.
func (sl *StyledLogger) WithAttrs(attrs ...slog.Attr) *StyledLogger {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}
	return &StyledLogger{logger: sl.logger.With(args...), theme: sl.theme}
}

// With creates a new StyledLogger with additional key-value pairs.
func (sl *StyledLogger) With(args ...any) *StyledLogger {
	return &StyledLogger{logger: sl.logger.With(args...), theme: sl.theme}
}

// NewWithTheme creates both a regular logger and a styled logger.
func NewWithTheme(cfg *Config) (*slog.Logger, *StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	appTheme := theme.GetTheme(cfg.Theme)
	styledLogger := NewStyledLogger(logger, appTheme)

	return logger, styledLogger, cleanup, nil
}
