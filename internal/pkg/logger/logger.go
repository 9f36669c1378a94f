package logger

import (
	"go.uber.org/zap"
)

// New возвращает zap-логгер: читаемый вывод в development,
// JSON в production
func New(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
