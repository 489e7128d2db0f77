package badger

import (
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// badgerLoggerAdapter routes badger's printf-style logging into zap
type badgerLoggerAdapter struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*badgerLoggerAdapter)(nil)

func format(f string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(f, args...), "\n")
}

func (b *badgerLoggerAdapter) Errorf(f string, args ...interface{}) {
	b.logger.Error(format(f, args...))
}

func (b *badgerLoggerAdapter) Warningf(f string, args ...interface{}) {
	b.logger.Warn(format(f, args...))
}

// Infof logs at debug level
func (b *badgerLoggerAdapter) Infof(f string, args ...interface{}) {
	b.logger.Debug(format(f, args...))
}

func (b *badgerLoggerAdapter) Debugf(f string, args ...interface{}) {
	b.logger.Debug(format(f, args...))
}
