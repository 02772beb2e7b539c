package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fullstack-starter/internal/logging"
)

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	l logging.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}
