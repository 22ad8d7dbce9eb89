package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"wellnest/internal/app/server/config"
)

type options struct {
	out   io.Writer
	level *slog.Level
}

// Option настройка логгера
type Option func(*options)

// WithOutput перенаправляет вывод логгера
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithFile пишет логи в файл с ротацией
func WithFile(path string) Option {
	return func(o *options) {
		if path == "" {
			return
		}
		o.out = RotatingFile(path)
	}
}

// WithLevel задает уровень вместо уровня по умолчанию для окружения.
// Нераспознанное значение игнорируется.
func WithLevel(name string) Option {
	return func(o *options) {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(name)); err != nil {
			return
		}
		o.level = &lvl
	}
}

// RotatingFile возвращает writer с ротацией по размеру
func RotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// New создает логгер в зависимости от окружения
func New(env string, opts ...Option) *slog.Logger {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(newPrettyHandler(o.out, &slog.HandlerOptions{Level: o.levelOr(slog.LevelDebug)}))
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.levelOr(slog.LevelDebug)}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.levelOr(slog.LevelInfo)}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.levelOr(slog.LevelInfo)}),
		)
	}

	return log
}

func (o *options) levelOr(def slog.Level) slog.Level {
	if o.level != nil {
		return *o.level
	}
	return def
}

func setupPrettySlog() *slog.Logger {
	return slog.New(newPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
