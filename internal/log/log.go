package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

func InitLogger(filepath string) zerolog.Logger {
	once.Do(func() {
		zerolog.DurationFieldUnit = time.Microsecond
		zerolog.ErrorFieldName = "error"
		zerolog.ErrorStackFieldName = "stack-trace"
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.LevelFieldName = "level"
		zerolog.MessageFieldName = "message"
		zerolog.TimestampFieldName = "timestamp"

		logLevel := zerolog.InfoLevel
		if os.Getenv("APPLICATION_ENV") == "development" {
			logLevel = zerolog.TraceLevel
		}

		var output io.Writer = os.Stdout
		if filepath != "" {
			fileWriter := &lumberjack.Logger{
				Filename:   filepath,
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     30,
				Compress:   true,
			}
			output = zerolog.MultiLevelWriter(os.Stdout, fileWriter)
		}

		logger = zerolog.New(output).
			Level(logLevel).
			Hook(AttachTraceIdFromContext()).
			With().
			Timestamp().
			Caller().
			Stack().
			Int("pid", os.Getpid()).
			Logger()

		logger.Info().
			Str(KeyTag, "InitLogger").
			Str(KeyProcess, "InitLogger").
			Msg("finish initiating logging")
	})
	return logger
}
