package authflow

import "go.uber.org/zap"

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger adapts a zap sugared logger to Logger. A nil logger yields
// the default printer.
func NewZapLogger(sugar *zap.SugaredLogger) Logger {
	if sugar == nil {
		return defLogger{}
	}
	return zapLogger{sugar: sugar.Named("authflow")}
}

func (l zapLogger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l zapLogger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l zapLogger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l zapLogger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }
