package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const defaultFetchTimeout = 5 * time.Second

var HTTPClient = &http.Client{}

type FetchRequest struct {
	Source  string
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Fetch downloads a single document, giving up once the request timeout has passed.
// It never retries.
func Fetch(ctx context.Context, request FetchRequest) ([]byte, error) {
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(request.Source).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return nil, fetchFailed(request, metrics.OutcomeUnavailable, NewError(ErrorUpstreamUnavailable, "Invalid request", err))
	}

	req.Header.Set("User-Agent", "right-track-agency-lirr")
	for key, value := range request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, fetchFailed(request, timeoutOutcome(ctx, err), fetchError(ctx, request, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchFailed(request, metrics.OutcomeUnavailable, NewError(
			ErrorUpstreamUnavailable,
			fmt.Sprintf("%s returned HTTP %d", request.Source, resp.StatusCode),
			nil,
		))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchFailed(request, timeoutOutcome(ctx, err), fetchError(ctx, request, err))
	}

	metrics.FetchTotal.WithLabelValues(request.Source, metrics.OutcomeSuccess).Inc()
	log.Debug().
		Str("source", request.Source).
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched live source")

	return body, nil
}

// ExpandURL fills the {origin}, {destination} and {apiKey} placeholders of a source URL
func ExpandURL(template string, values map[string]string) string {
	var replacements []string
	for key, value := range values {
		replacements = append(replacements, "{"+key+"}", url.QueryEscape(value))
	}

	return strings.NewReplacer(replacements...).Replace(template)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var urlError *url.Error
	return errors.As(err, &urlError) && urlError.Timeout()
}

func timeoutOutcome(ctx context.Context, err error) string {
	if isTimeout(ctx, err) {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeUnavailable
}

func fetchError(ctx context.Context, request FetchRequest, err error) *FeedError {
	if isTimeout(ctx, err) {
		return NewError(ErrorUpstreamTimeout, fmt.Sprintf("%s did not respond in time", request.Source), err)
	}
	return NewError(ErrorUpstreamUnavailable, fmt.Sprintf("Could not download %s", request.Source), err)
}

func fetchFailed(request FetchRequest, outcome string, err *FeedError) error {
	metrics.FetchTotal.WithLabelValues(request.Source, outcome).Inc()
	log.Error().Err(err).Str("source", request.Source).Msg("Live source fetch failed")

	return err
}
