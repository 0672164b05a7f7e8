package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/pairing"
	"SecretSanta/internal/ports"
)

// PipelineDeps wires all driven adapters into the run.
type PipelineDeps struct {
	Participants []domain.Participant
	Subject      string
	TestAddress  string
	Builder      *Builder
	Renderer     ports.Renderer
	Snapshotter  ports.Snapshotter
	Mailer       ports.Mailer
	Previewer    ports.Previewer
	Rand         *rand.Rand
	Logger       *slog.Logger
}

// RunOptions select which external collaborators run.
type RunOptions struct {
	Preview bool
	Test    bool
}

// Pipeline draws the pairs, composes every notification and then previews or sends them.
type Pipeline struct {
	participants []domain.Participant
	subject      string
	testAddress  string
	builder      *Builder
	renderer     ports.Renderer
	snapshotter  ports.Snapshotter
	mailer       ports.Mailer
	previewer    ports.Previewer
	rng          *rand.Rand
	logger       *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		participants: deps.Participants,
		subject:      deps.Subject,
		testAddress:  deps.TestAddress,
		builder:      deps.Builder,
		renderer:     deps.Renderer,
		snapshotter:  deps.Snapshotter,
		mailer:       deps.Mailer,
		previewer:    deps.Previewer,
		rng:          deps.Rand,
		logger:       logger,
	}
}

// Run executes one exchange. Nothing is delivered unless every notification was composed.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) error {
	pairs, err := pairing.Assign(p.participants, p.rng)
	if err != nil {
		return fmt.Errorf("assign pairs: %w", err)
	}
	if err := pairing.Validate(pairs); err != nil {
		return fmt.Errorf("validate pairs: %w", err)
	}
	p.logger.Info("pairs drawn", "count", len(pairs))
	for _, pair := range pairs {
		p.logger.Debug("pair", "pair", pair.String())
	}

	notifications, err := p.Compose(ctx, pairs, opts.Test)
	if err != nil {
		return err
	}

	if opts.Preview {
		if p.previewer == nil {
			return fmt.Errorf("preview requested but no previewer configured")
		}
		return p.previewer.Preview(ctx, notifications)
	}

	return p.deliver(ctx, notifications)
}

// Compose builds and renders the notification for every pair.
func (p *Pipeline) Compose(ctx context.Context, pairs []domain.Pair, test bool) ([]domain.Notification, error) {
	if p.builder == nil || p.renderer == nil {
		return nil, fmt.Errorf("pipeline misconfigured: builder and renderer are required")
	}
	if test && p.testAddress == "" {
		return nil, fmt.Errorf("%w: test mode needs email.testAddress", domain.ErrConfiguration)
	}

	notifications := make([]domain.Notification, 0, len(pairs))
	for _, pair := range pairs {
		env, err := p.builder.Build(ctx, pair)
		if err != nil {
			return nil, fmt.Errorf("build notification for %s: %w", pair.Giver.Name, err)
		}
		giver := env.Pair.Giver

		textBody, err := p.renderer.Render(env.Primary)
		if err != nil {
			return nil, err
		}
		imageBody, err := p.renderer.Render(env.Visual)
		if err != nil {
			return nil, err
		}

		to := giver.Email
		if test {
			to = domain.TestAddress(p.testAddress, giver.Name)
		}

		notifications = append(notifications, domain.Notification{
			To:        to,
			Subject:   p.subject,
			TextBody:  textBody,
			ImageBody: imageBody,
		})
	}

	return notifications, nil
}

func (p *Pipeline) deliver(ctx context.Context, notifications []domain.Notification) error {
	if p.mailer == nil {
		return fmt.Errorf("delivery requested but no mailer configured")
	}

	images := make([][]byte, len(notifications))
	if p.snapshotter != nil {
		for i, n := range notifications {
			img, err := p.snapshotter.Capture(ctx, p.renderer.Document(n.ImageBody))
			if err != nil {
				return fmt.Errorf("snapshot for %s: %w", n.To, err)
			}
			images[i] = img
		}
	}

	p.logger.Info("sending emails", "count", len(notifications))
	for i, n := range notifications {
		p.logger.Info("sending email", "to", n.To)
		if err := p.mailer.Send(ctx, n, images[i]); err != nil {
			return fmt.Errorf("send to %s: %w", n.To, err)
		}
	}
	return nil
}
