package logger

import (
	"os"

	"field-booking/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus, чтобы не тянуть его тип по всему коду.
type Logger struct {
	*logrus.Logger
}

// New создает логгер по конфигурации (уровень, формат, файл).
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, falling back to stdout")
		} else {
			log.SetOutput(file)
		}
	}

	return &Logger{Logger: log}
}

// WithField добавляет поле к записи лога.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields добавляет набор полей к записи лога.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError добавляет ошибку к записи лога.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}
