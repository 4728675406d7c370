// Package conversation drives a session through consent, field collection,
// review and contract generation.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creastat/contractbot"
	"github.com/creastat/contractbot/document"
	"github.com/creastat/contractbot/form"
	"github.com/creastat/contractbot/session"
)

// Machine is the conversation state machine. All transitions of one session
// are serialized; different sessions proceed in parallel. Contract
// generation runs in the background, outside the session lock, while the
// session sits in the generating phase and rejects input.
type Machine struct {
	store     session.Store
	catalog   form.Catalog
	generator Generator
	messenger Messenger
	registry  Registry
	locks     session.Locker
	logger    *zap.Logger
	policyURL string

	generations sync.WaitGroup
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRegistry records every delivered contract in r.
func WithRegistry(r Registry) Option {
	return func(m *Machine) {
		m.registry = r
	}
}

// WithPrivacyPolicyURL sets the link shown in the consent message.
func WithPrivacyPolicyURL(url string) Option {
	return func(m *Machine) {
		if url != "" {
			m.policyURL = url
		}
	}
}

// New creates a Machine over the given catalog.
func New(store session.Store, catalog form.Catalog, generator Generator, messenger Messenger, opts ...Option) (*Machine, error) {
	if err := catalog.Check(); err != nil {
		return nil, err
	}
	m := &Machine{
		store:     store,
		catalog:   catalog,
		generator: generator,
		messenger: messenger,
		logger:    zap.NewNop(),
		policyURL: DefaultPrivacyPolicyURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start discards any previous state for id and asks for consent.
func (m *Machine) Start(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	if err := m.store.Create(ctx, session.New(id)); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	m.logger.Debug("session started", zap.String("session", id))

	return m.messenger.Reply(ctx, id, Reply{
		Text:     consentMessage(m.policyURL),
		Markdown: true,
		Keyboard: []string{ConsentPhrase},
	})
}

// Handle advances the session id with one inbound text message. A
// confirmation starts generation in the background and returns; use Wait to
// drain generations before shutdown.
func (m *Machine) Handle(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)

	unlock := m.locks.Lock(id)
	defer unlock()

	st, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if st == nil {
		return m.messenger.Reply(ctx, id, Reply{Text: msgStartFirst})
	}

	switch st.Phase(m.catalog.Len()) {
	case session.PhaseAwaitingConsent:
		return m.handleConsent(ctx, st, text)
	case session.PhaseCollecting:
		return m.handleAnswer(ctx, st, text)
	case session.PhaseGenerating:
		return m.messenger.Reply(ctx, id, Reply{Text: msgGenerating})
	}

	switch {
	case strings.EqualFold(text, ConfirmPhrase):
		attempt, answers, err := m.beginGeneration(ctx, st)
		if err != nil {
			return err
		}
		m.generations.Add(1)
		go func() {
			defer m.generations.Done()
			if err := m.finalize(ctx, id, attempt, answers); err != nil {
				m.logger.Error("finalize failed", zap.String("session", id), zap.Error(err))
			}
		}()
		return m.messenger.Reply(ctx, id, Reply{Text: msgGenerating, RemoveKeyboard: true})
	case strings.EqualFold(text, CancelPhrase):
		st.Reset()
		if err := m.store.Update(ctx, st); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
		m.logger.Debug("session reset", zap.String("session", id))
		return m.messenger.Reply(ctx, id, Reply{
			Text:           msgRetry + m.catalog[0].Prompt,
			RemoveKeyboard: true,
		})
	default:
		return m.messenger.Reply(ctx, id, m.confirmReply(msgChooseOption))
	}
}

// Wait blocks until every background generation has finished.
func (m *Machine) Wait() {
	m.generations.Wait()
}

func (m *Machine) handleConsent(ctx context.Context, st *session.State, text string) error {
	if !strings.EqualFold(text, ConsentPhrase) {
		return m.messenger.Reply(ctx, st.ID, Reply{
			Text:     msgConsentReminder,
			Keyboard: []string{ConsentPhrase},
		})
	}

	st.PrivacyAccepted = true
	st.Step = 0
	if err := m.store.Update(ctx, st); err != nil {
		return fmt.Errorf("accept consent: %w", err)
	}
	m.logger.Debug("consent accepted", zap.String("session", st.ID))

	return m.messenger.Reply(ctx, st.ID, Reply{
		Text:           m.catalog[0].Prompt,
		RemoveKeyboard: true,
	})
}

func (m *Machine) handleAnswer(ctx context.Context, st *session.State, text string) error {
	field := m.catalog[st.Step]
	if !field.Validate(text) {
		m.logger.Debug("answer rejected",
			zap.String("session", st.ID),
			zap.String("field", field.Name))
		return m.messenger.Reply(ctx, st.ID, Reply{Text: msgInvalidAnswer + field.Prompt})
	}

	st.Answers[field.Name] = text
	st.Step++
	if err := m.store.Update(ctx, st); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}

	if st.Step < m.catalog.Len() {
		return m.messenger.Reply(ctx, st.ID, Reply{Text: m.catalog[st.Step].Prompt})
	}
	return m.messenger.Reply(ctx, st.ID, m.confirmReply(summaryMessage(m.catalog.Summary(st.Answers))))
}

func (m *Machine) confirmReply(text string) Reply {
	return Reply{Text: text, Keyboard: []string{ConfirmPhrase, CancelPhrase}}
}

// beginGeneration moves the session into the generating phase and returns
// the attempt id plus a snapshot of the answers.
func (m *Machine) beginGeneration(ctx context.Context, st *session.State) (string, map[string]string, error) {
	st.Attempt = uuid.NewString()
	if err := m.store.Update(ctx, st); err != nil {
		return "", nil, fmt.Errorf("begin generation: %w", err)
	}
	snapshot := st.Clone()
	return snapshot.Attempt, snapshot.Answers, nil
}

// finalize runs on its own goroutine, outside the session lock. Session
// bookkeeping after the attempt ignores cancellation of ctx so the session
// never stays stuck in the generating phase.
func (m *Machine) finalize(ctx context.Context, id, attempt string, answers map[string]string) error {
	logger := m.logger.With(zap.String("session", id), zap.String("attempt", attempt))
	settle := context.WithoutCancel(ctx)

	art, err := m.generator.Generate(ctx, answers)
	if err != nil {
		if document.IsPipelineFailure(err) {
			logger.Error("contract generation failed", zap.Error(err))
		} else {
			logger.Warn("contract generation aborted", zap.Error(err))
		}
		return m.abortGeneration(settle, id, attempt)
	}
	logger = logger.With(zap.Int("contract_number", art.Number))

	if err := m.deliver(ctx, logger, art, answers); err != nil {
		logger.Error("contract delivery failed", zap.Error(err))
		return m.abortGeneration(settle, id, attempt)
	}
	logger.Info("contract delivered", zap.String("contract_id", art.ContractID))

	m.record(settle, logger, id, art, answers)
	return m.completeGeneration(settle, id, attempt)
}

// deliver sends the artifact to the admin sink. The local file is removed
// whether or not the transmission succeeded.
func (m *Machine) deliver(ctx context.Context, logger *zap.Logger, art *document.Artifact, answers map[string]string) error {
	defer func() {
		if err := os.Remove(art.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("artifact cleanup failed", zap.String("path", art.Path), zap.Error(err))
		}
	}()

	caption := adminCaption(answers[form.EmailAddress], answers[form.Telegram])
	if err := m.messenger.SendDocument(ctx, art.Path, caption); err != nil {
		return fmt.Errorf("%w: %v", contractbot.ErrTransmission, err)
	}
	return nil
}

func (m *Machine) record(ctx context.Context, logger *zap.Logger, id string, art *document.Artifact, answers map[string]string) {
	if m.registry == nil {
		return
	}
	err := m.registry.RecordContract(ctx, IssuedContract{
		Number:       art.Number,
		ContractID:   art.ContractID,
		FileName:     filepath.Base(art.Path),
		IssuedAt:     art.IssuedAt,
		SessionID:    id,
		CustomerName: answers[form.CustomerFullName],
		Email:        answers[form.EmailAddress],
		Telegram:     answers[form.Telegram],
	})
	if err != nil {
		logger.Warn("contract registry write failed", zap.Error(err))
	}
}

// abortGeneration returns the session to confirmation with its answers
// intact and tells the user to try again later.
func (m *Machine) abortGeneration(ctx context.Context, id, attempt string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	st, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if st == nil || st.Attempt != attempt {
		// Restarted meanwhile; the new session owns the conversation now.
		return m.messenger.Reply(ctx, id, Reply{Text: msgGenerationFailed})
	}

	st.Attempt = ""
	if err := m.store.Update(ctx, st); err != nil {
		return fmt.Errorf("abort generation: %w", err)
	}
	return m.messenger.Reply(ctx, id, m.confirmReply(msgGenerationFailed))
}

func (m *Machine) completeGeneration(ctx context.Context, id, attempt string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	st, err := m.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if st == nil || st.Attempt != attempt {
		// Restarted meanwhile; leave the new session's keyboard alone.
		return m.messenger.Reply(ctx, id, Reply{Text: msgCompleted})
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return m.messenger.Reply(ctx, id, Reply{Text: msgCompleted, RemoveKeyboard: true})
}
