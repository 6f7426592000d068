package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/verifier"
	initErrors "github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/errors"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/model"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/metrics"
	"go.uber.org/zap"
)

// Settings are the values the service needs from config. Now is optional.
type Settings struct {
	BotToken string
	MaxAge   time.Duration
	Now      func() time.Time
}

type Service interface {
	Validate(context.Context, dto.ValidateDTO) (model.Outcome, error)
}

type initDataService struct {
	opts     verifier.Options
	botToken string
	log      *zap.Logger
	metrics  *metrics.Validations
}

func New(s Settings, log *zap.Logger, m *metrics.Validations) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &initDataService{
		opts:     verifier.Options{MaxAge: s.MaxAge, Now: s.Now},
		botToken: s.BotToken,
		log:      log,
		metrics:  m,
	}
}

func (s *initDataService) Validate(_ context.Context, in dto.ValidateDTO) (model.Outcome, error) {
	start := time.Now()
	err := verifier.Verify(in.InitData, s.botToken, s.opts)
	elapsed := time.Since(start)

	reason := initErrors.Reason(err)
	s.metrics.Observe(reason, elapsed)

	out := model.Outcome{OK: err == nil, Reason: reason}
	if err != nil {
		lvl := zap.InfoLevel
		if initErrors.IsMissingSecret(err) {
			lvl = zap.ErrorLevel
		}
		s.log.Check(lvl, "init data rejected").Write(
			zap.String("reason", reason),
			zap.String("payload", fingerprint(in.InitData)),
			zap.Duration("elapsed", elapsed),
		)
		return out, err
	}

	s.log.Debug("init data accepted",
		zap.String("payload", fingerprint(in.InitData)),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}

// fingerprint lets operators correlate log lines without storing init data.
func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", sum[:8])
}
