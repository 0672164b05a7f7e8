package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/infrastructure/render"
	"SecretSanta/internal/scraper"
)

type recordingMailer struct {
	sent   []domain.Notification
	images [][]byte
	err    error
}

func (m *recordingMailer) Send(_ context.Context, n domain.Notification, image []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	m.images = append(m.images, image)
	return nil
}

type recordingPreviewer struct {
	seen []domain.Notification
}

func (p *recordingPreviewer) Preview(_ context.Context, n []domain.Notification) error {
	p.seen = n
	return nil
}

type fakeSnapshotter struct {
	err   error
	calls int
}

func (s *fakeSnapshotter) Capture(_ context.Context, html string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("png:" + fmt.Sprint(len(html))), nil
}

func group() []domain.Participant {
	return []domain.Participant{
		{Name: "Ann", Email: "ann@example.com", Wishlist: []string{"a warm scarf"}},
		{Name: "Bob", Email: "bob@example.com", Wishlist: []string{"amazon/AB12CD34EF"}},
		{Name: "Tom & Jerry", Email: "tj@example.com"},
	}
}

func newPipeline(t *testing.T, deps PipelineDeps) *Pipeline {
	t.Helper()
	tpl, err := render.LoadTemplates("")
	require.NoError(t, err)

	if deps.Participants == nil {
		deps.Participants = group()
	}
	deps.Subject = "Secret Santa!"
	deps.Renderer = tpl
	deps.Rand = rand.New(rand.NewPCG(7, 11))
	if deps.Builder == nil {
		deps.Builder = NewBuilder(BuilderDeps{
			Scrapers: scraper.NewRegistry(amazon()),
			Resolver: &stubResolver{results: map[string]domain.Resolution{
				"amazon/AB12CD34EF": resolved("Board game", 20, 25),
			}},
		})
	}
	return NewPipeline(deps)
}

func TestRunSendsOneEmailPerGiver(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	snap := &fakeSnapshotter{}
	p := newPipeline(t, PipelineDeps{Mailer: mailer, Snapshotter: snap})

	require.NoError(t, p.Run(context.Background(), RunOptions{}))
	require.Len(t, mailer.sent, 3)
	assert.Equal(t, 3, snap.calls)

	recipients := map[string]bool{}
	for i, n := range mailer.sent {
		recipients[n.To] = true
		assert.Equal(t, "Secret Santa!", n.Subject)
		assert.NotEmpty(t, mailer.images[i])
		assert.NotContains(t, n.ImageBody, "<li>")
	}
	assert.True(t, recipients["ann@example.com"])
	assert.True(t, recipients["bob@example.com"])
	assert.True(t, recipients["tj@example.com"])

	var bobsGiver domain.Notification
	for _, n := range mailer.sent {
		if strings.Contains(n.TextBody, "<strong>Bob</strong>") {
			bobsGiver = n
		}
	}
	assert.Contains(t, bobsGiver.TextBody, "Board game (On sale for $20.00, usually $25.00!)")
}

func TestRunPreviewDoesNotSend(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	preview := &recordingPreviewer{}
	p := newPipeline(t, PipelineDeps{Mailer: mailer, Previewer: preview, TestAddress: "santa+{name}@example.com"})

	require.NoError(t, p.Run(context.Background(), RunOptions{Preview: true, Test: true}))
	assert.Empty(t, mailer.sent)
	require.Len(t, preview.seen, 3)
	for _, n := range preview.seen {
		assert.True(t, strings.HasPrefix(n.To, "santa+"), n.To)
	}
}

func TestComposeTestAddresses(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, PipelineDeps{TestAddress: "santa+{name}@example.com"})
	pairs := []domain.Pair{{Giver: group()[2], Receiver: group()[0]}}

	notes, err := p.Compose(context.Background(), pairs, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "santa+tom_jerry@example.com", notes[0].To)
	assert.Contains(t, notes[0].TextBody, "a warm scarf")
	assert.NotContains(t, notes[0].ImageBody, "a warm scarf")

	p = newPipeline(t, PipelineDeps{})
	_, err = p.Compose(context.Background(), pairs, true)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunAbortsBeforeSendingOnFatalErrors(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	builder := NewBuilder(BuilderDeps{
		Scrapers: scraper.NewRegistry(amazon()),
		Resolver: &stubResolver{err: fmt.Errorf("amazon/AB12CD34EF: %w", domain.ErrPriceParse)},
	})
	p := newPipeline(t, PipelineDeps{Mailer: mailer, Builder: builder})

	err := p.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, domain.ErrPriceParse)
	assert.Empty(t, mailer.sent)
}

func TestRunAbortsWhenSnapshotFails(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	p := newPipeline(t, PipelineDeps{Mailer: mailer, Snapshotter: &fakeSnapshotter{err: errors.New("no chrome")}})

	err := p.Run(context.Background(), RunOptions{})
	assert.Error(t, err)
	assert.Empty(t, mailer.sent)
}

func TestRunRejectsDuplicateParticipants(t *testing.T) {
	t.Parallel()

	people := append(group(), domain.Participant{Name: "Ann", Email: "ann@example.com"})
	mailer := &recordingMailer{}
	p := newPipeline(t, PipelineDeps{Participants: people, Mailer: mailer})

	err := p.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Empty(t, mailer.sent)
}
