package logger

import (
	"github.com/sirupsen/logrus"
)

// Log - общий логгер сервиса. До вызова Init пишет в текстовом формате с уровнем info,
// поэтому пакеты можно использовать в тестах без инициализации.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// WithActor добавляет к записи поля актора.
func WithActor(actorID, role string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"actor_id":   actorID,
		"actor_role": role,
	})
}
