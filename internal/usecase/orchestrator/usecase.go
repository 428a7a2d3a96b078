package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deletion-agent/internal/application/port/input"
	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

// brokerTimeout bounds one broker's full cycle, confirmation wait included.
const brokerTimeout = 15 * time.Minute

var _ input.BrokerProcessor = (*UseCase)(nil)

// FieldMapper proposes a validated field mapping for a page the config does
// not cover.
type FieldMapper interface {
	Map(ctx context.Context, analysis *entity.FormAnalysis, userData entity.UserData, brokerName string) (entity.FieldMapping, error)
}

// Submitter performs the direct HTTP submission for fully-configured brokers.
type Submitter interface {
	Submit(ctx context.Context, spec *entity.SubmissionSpec, userData entity.UserData, auth *entity.AuthBundle, refererURL string) (*entity.SubmissionResult, error)
}

// ConfirmationWaiter watches the mailbox after a submission.
type ConfirmationWaiter interface {
	Poll(ctx context.Context, userEmail string, domains []string, submittedAt time.Time, keywords []string) (*entity.ConfirmationResult, error)
}

// EmailRequester handles brokers reachable only by email.
type EmailRequester interface {
	Send(ctx context.Context, cfg *entity.BrokerConfig, profile *entity.UserProfile) error
}

// BrowserFactory opens a fresh browser session. Each broker gets its own so
// one broker's page state never leaks into the next.
type BrowserFactory func(ctx context.Context) (output.BrowserPort, error)

type UseCase struct {
	configStore     output.ConfigStore
	newBrowser      BrowserFactory
	mapper          FieldMapper
	submitter       Submitter
	confirmer       ConfirmationWaiter
	emailer         EmailRequester
	captcha         output.CaptchaPort
	userInteraction output.UserInteractionPort
	screenshots     output.ScreenshotStore
	states          *entity.StateTable
	logger          output.LoggerPort
}

func New(
	configStore output.ConfigStore,
	newBrowser BrowserFactory,
	mapper FieldMapper,
	submitter Submitter,
	confirmer ConfirmationWaiter,
	emailer EmailRequester,
	captcha output.CaptchaPort,
	userInteraction output.UserInteractionPort,
	screenshots output.ScreenshotStore,
	states *entity.StateTable,
	logger output.LoggerPort,
) *UseCase {
	return &UseCase{
		configStore:     configStore,
		newBrowser:      newBrowser,
		mapper:          mapper,
		submitter:       submitter,
		confirmer:       confirmer,
		emailer:         emailer,
		captcha:         captcha,
		userInteraction: userInteraction,
		screenshots:     screenshots,
		states:          states,
		logger:          logger,
	}
}

// ProcessAll runs the deletion workflow for every configured broker, or just
// the one named by brokerFilter. Broker failures are recorded and the batch
// moves on; only configuration-directory problems abort the run.
func (uc *UseCase) ProcessAll(ctx context.Context, profile entity.UserProfile, brokerFilter string) (*entity.BatchSummary, error) {
	configs, err := uc.configStore.LoadAll()
	if err != nil {
		return nil, err
	}

	if brokerFilter != "" {
		configs = filterConfigs(configs, brokerFilter)
		if len(configs) == 0 {
			return nil, &entity.ConfigurationError{
				Message: fmt.Sprintf("no broker config matches %q", brokerFilter),
				Suggestions: []string{
					"list the configs directory to see available broker names",
				},
			}
		}
	}

	uc.logger.Info("Starting deletion batch", "brokers", len(configs))

	summary := &entity.BatchSummary{}
	for _, cfg := range configs {
		result := uc.processBroker(ctx, cfg, profile)
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			for _, s := range entity.SuggestionsOf(result.Err) {
				summary.Recommendations = append(summary.Recommendations,
					fmt.Sprintf("%s: %s", cfg.Name, s))
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	uc.logger.Info("Deletion batch finished",
		"processed", summary.Processed(),
		"succeeded", summary.Succeeded(),
		"failed", summary.FailedCount())
	return summary, nil
}

func filterConfigs(configs []*entity.BrokerConfig, filter string) []*entity.BrokerConfig {
	want := strings.ToLower(strings.TrimSpace(filter))
	var out []*entity.BrokerConfig
	for _, cfg := range configs {
		if strings.ToLower(cfg.Name) == want || cfg.NormalizedName() == want {
			out = append(out, cfg)
		}
	}
	return out
}
