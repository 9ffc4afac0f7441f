package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/platform/logger"
	"github.com/phrazzld/cardforge/internal/provider"
	"github.com/phrazzld/cardforge/internal/selector"
)

// callAdapter specializes the fallback engine for one provider call shape.
type callAdapter[T any] struct {
	shape string
	// capable reports whether a model can serve the call shape at all.
	capable func(catalog.Model) bool
	vision  bool
	// input is checked against each candidate's context window before the call.
	input string
	call  func(ctx context.Context, model catalog.Model, h provider.Handle) (T, error)
}

// check is the pre-call eligibility test of a model.
func (a callAdapter[T]) check(m catalog.Model) error {
	if !a.capable(m) {
		return fmt.Errorf("%w: %s cannot serve %s requests", ErrCapabilityNotSupported, m.ID, a.shape)
	}
	if a.vision && !m.SupportsVision {
		return fmt.Errorf("%w: %s", ErrVisionNotSupported, m.ID)
	}
	return nil
}

// execute runs the fallback protocol: the primary model first, then every
// eligible fallback candidate in configured order until one succeeds.
// Eligibility failures of the primary are returned without any call.
func execute[T any](
	ctx context.Context,
	o *Orchestrator,
	primary catalog.Model,
	a callAdapter[T],
) (T, []AttemptOutcome, error) {
	var zero T
	if err := a.check(primary); err != nil {
		return zero, nil, err
	}

	log := logger.FromContextOrDefault(ctx, o.logger).With(slog.String("call_shape", a.shape))

	res, outcome := attempt(ctx, o, primary, a)
	attempts := []AttemptOutcome{outcome}
	if outcome.Succeeded() {
		return res, attempts, nil
	}

	log.WarnContext(ctx, "primary model failed",
		slog.String("model", primary.ID),
		slog.String("error", outcome.Err.Error()))

	if !o.cfg.Fallback.Enabled {
		return zero, attempts, fmt.Errorf("%w: %w", ErrServiceUnavailable, outcome.Err)
	}

	tried := map[string]bool{primary.ID: true}
	for _, ref := range o.cfg.Fallback.Models {
		if err := ctx.Err(); err != nil {
			return zero, attempts, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}

		candidate, err := o.catalog.Resolve(ref)
		if err != nil {
			log.WarnContext(ctx, "skipping unknown fallback model", slog.String("model", ref))
			continue
		}
		if tried[candidate.ID] {
			continue
		}
		if err := a.check(candidate); err != nil {
			log.DebugContext(ctx, "skipping ineligible fallback model",
				slog.String("model", candidate.ID),
				slog.String("reason", err.Error()))
			continue
		}
		tried[candidate.ID] = true

		res, outcome = attempt(ctx, o, candidate, a)
		attempts = append(attempts, outcome)
		if outcome.Succeeded() {
			log.InfoContext(ctx, "fallback model succeeded",
				slog.String("primary", primary.ID),
				slog.String("model", candidate.ID),
				slog.Int("attempts", len(attempts)))
			return res, attempts, nil
		}
		log.WarnContext(ctx, "fallback model failed",
			slog.String("model", candidate.ID),
			slog.String("error", outcome.Err.Error()))
	}

	return zero, attempts, &AllProvidersError{Cause: attempts[0].Err, Attempts: attempts}
}

// attempt performs one call under the per-attempt deadline.
func attempt[T any](ctx context.Context, o *Orchestrator, m catalog.Model, a callAdapter[T]) (T, AttemptOutcome) {
	var zero T
	start := time.Now()
	outcome := AttemptOutcome{Model: m.ID, Provider: m.Provider}

	h, err := o.selector.ResolveClient(m)
	if err != nil {
		outcome.Err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		return zero, outcome
	}
	if a.input != "" {
		if err := selector.ValidateModelForText(m, a.input); err != nil {
			outcome.Err = err
			return zero, outcome
		}
	}

	callCtx := ctx
	if o.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		defer cancel()
	}

	res, err := a.call(callCtx, m, h)
	outcome.Duration = time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("attempt timed out after %s: %w", o.cfg.AttemptTimeout, err)
		}
		outcome.Err = err
		return zero, outcome
	}
	return res, outcome
}

// chatAdapter sends messages to chat models and parses the reply with parse.
// A parse failure is an attempt failure.
func chatAdapter[T any](
	o *Orchestrator,
	messages []provider.Message,
	vision bool,
	parse func(ctx context.Context, raw string) (T, error),
) callAdapter[T] {
	input := ""
	for _, m := range messages {
		input += m.Text
	}
	return callAdapter[T]{
		shape:   "chat",
		capable: catalog.Model.SupportsChat,
		vision:  vision,
		input:   input,
		call: func(ctx context.Context, m catalog.Model, h provider.Handle) (T, error) {
			var zero T
			if h.Chat == nil {
				return zero, fmt.Errorf("%w: %s has no chat client", ErrCapabilityNotSupported, m.Provider)
			}
			raw, err := h.Chat.CompleteChat(ctx, messages, provider.ChatOptions{
				Model:       m.ID,
				Temperature: o.cfg.Temperature,
				MaxTokens:   m.MaxOutputTokens,
			})
			if err != nil {
				return zero, err
			}
			return parse(ctx, raw)
		},
	}
}

func imageAdapter(prompt string, opts provider.ImageOptions) callAdapter[[]provider.GeneratedImage] {
	return callAdapter[[]provider.GeneratedImage]{
		shape:   "image generation",
		capable: func(m catalog.Model) bool { return m.SupportsImageGeneration },
		input:   prompt,
		call: func(ctx context.Context, m catalog.Model, h provider.Handle) ([]provider.GeneratedImage, error) {
			if h.Image == nil {
				return nil, fmt.Errorf("%w: %s has no image client", ErrCapabilityNotSupported, m.Provider)
			}
			opts.Model = m.ID
			images, err := h.Image.GenerateImage(ctx, prompt, opts)
			if err != nil {
				return nil, err
			}
			if len(images) == 0 {
				return nil, fmt.Errorf("%w: no images", provider.ErrEmptyResponse)
			}
			return images, nil
		},
	}
}

func speechAdapter(text string, opts provider.SpeechOptions) callAdapter[[]byte] {
	return callAdapter[[]byte]{
		shape:   "speech synthesis",
		capable: func(m catalog.Model) bool { return m.SupportsSpeech },
		input:   text,
		call: func(ctx context.Context, m catalog.Model, h provider.Handle) ([]byte, error) {
			if h.Speech == nil {
				return nil, fmt.Errorf("%w: %s has no speech client", ErrCapabilityNotSupported, m.Provider)
			}
			opts.Model = m.ID
			audio, err := h.Speech.SynthesizeSpeech(ctx, text, opts)
			if err != nil {
				return nil, err
			}
			if len(audio) == 0 {
				return nil, fmt.Errorf("%w: no audio", provider.ErrEmptyResponse)
			}
			return audio, nil
		},
	}
}

func transcriptionAdapter(audio []byte, opts provider.TranscriptionOptions) callAdapter[string] {
	return callAdapter[string]{
		shape:   "transcription",
		capable: func(m catalog.Model) bool { return m.SupportsTranscription },
		call: func(ctx context.Context, m catalog.Model, h provider.Handle) (string, error) {
			if h.Transcription == nil {
				return "", fmt.Errorf("%w: %s has no transcription client", ErrCapabilityNotSupported, m.Provider)
			}
			opts.Model = m.ID
			text, err := h.Transcription.Transcribe(ctx, audio, opts)
			if err != nil {
				return "", err
			}
			if text == "" {
				return "", fmt.Errorf("%w: empty transcript", provider.ErrEmptyResponse)
			}
			return text, nil
		},
	}
}
