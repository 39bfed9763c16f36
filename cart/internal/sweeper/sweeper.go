package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/cart/internal/common/otel"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
)

const DefaultSchedule = "0 3 * * *"

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Cleaner interface {
	CleanupExpiredCarts(c context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired guest carts. A failed or panicking
// run is logged and the next tick still fires.
type Sweeper struct {
	cleaner  Cleaner
	cron     *cron.Cron
	schedule string
	location *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSweeper(c context.Context, cleaner Cleaner, schedule, timezone string) (*Sweeper, error) {
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Sweeper").
		Str(log.KeySchedule, schedule).
		Str("timezone", timezone).
		Logger()

	if schedule == "" {
		schedule = DefaultSchedule
	}
	location := time.Local
	if timezone != "" {
		loaded, err := time.LoadLocation(timezone)
		if err != nil {
			err = fmt.Errorf("failed loading timezone=%s with error=%w", timezone, err)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		location = loaded
	}

	s := &Sweeper{
		cleaner:  cleaner,
		cron:     cron.New(cron.WithLocation(location), cron.WithParser(cronParser)),
		schedule: schedule,
		location: location,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.run(context.Background()) }); err != nil {
		err = fmt.Errorf("failed scheduling sweeper with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.logger.Info().Msg("starting sweeper")
	s.cron.Start()
}

// Stop prevents new runs and waits for a running one until c is done.
func (s *Sweeper) Stop(c context.Context) {
	s.logger.Info().Msg("stopping sweeper")
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info().Msg("stopped sweeper")
	case <-c.Done():
		s.logger.Warn().Err(c.Err()).Msg("stopped sweeper before running sweep finished")
	}
}

func (s *Sweeper) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce sweeps immediately and returns the number of deleted carts.
func (s *Sweeper) RunOnce(c context.Context) (int64, error) {
	c, span := otel.Tracer.Start(c, "Sweeper RunOnce")
	defer span.End()

	logger := s.logger.With().Str(log.KeyProcess, "sweeping expired guest carts").Logger()
	c = logger.WithContext(c)

	logger.Info().Msg("sweeping expired guest carts")
	deleted, err := s.cleaner.CleanupExpiredCarts(c, s.now())
	if err != nil {
		err = fmt.Errorf("failed sweeping expired guest carts with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	logger.Info().Int64(log.KeyDeletedCount, deleted).Msg("swept expired guest carts")
	return deleted, nil
}

func (s *Sweeper) run(c context.Context) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error().Any("panic", recovered).Msg("recovered from panic in sweeper")
		}
	}()
	_, _ = s.RunOnce(c)
}
