package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

// DefaultMaxRetryAttempts is the number of retries applied to idempotent
// reads on top of the initial attempt.
const DefaultMaxRetryAttempts = 2

// HTTPClient implements Client against the backend REST API.
type HTTPClient struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
}

var _ Client = (*HTTPClient)(nil)
var _ Pinger = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the API at baseURL authenticated with
// apiKey.
func NewHTTPClient(baseURL, apiKey string, retryAttempts uint) *HTTPClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &HTTPClient{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
	}
}

// Close releases the underlying HTTP client.
func (c *HTTPClient) Close() error {
	return c.httpClient.Close()
}

// isRetryableError reports whether a failed request is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	if strings.Contains(errStr, "response error 5") {
		return true
	}
	if strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}

// getWithRetry runs an idempotent GET with backoff on transient failures.
func (c *HTTPClient) getWithRetry(ctx context.Context, do func() error) error {
	return retry.Do(
		func() error {
			if err := do(); err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts+1),
	)
}

// GetChapter implements Client.
func (c *HTTPClient) GetChapter(ctx context.Context, chapterID string) (*Chapter, error) {
	var chapter *Chapter
	err := c.getWithRetry(ctx, func() error {
		response, err := c.httpClient.R().
			SetContext(ctx).
			SetResult(&Chapter{}).
			Get("/chapters/" + chapterID)
		if err != nil {
			return fmt.Errorf("httpClient.Get(chapter) > %w", err)
		}
		if response.IsError() {
			return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}
		chapter = response.Result().(*Chapter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

// GetTopics implements Client.
func (c *HTTPClient) GetTopics(ctx context.Context, chapterID string) ([]Topic, error) {
	var topics []Topic
	err := c.getWithRetry(ctx, func() error {
		response, err := c.httpClient.R().
			SetContext(ctx).
			SetResult(&[]Topic{}).
			Get("/chapters/" + chapterID + "/topics")
		if err != nil {
			return fmt.Errorf("httpClient.Get(topics) > %w", err)
		}
		if response.IsError() {
			return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}
		topics = *response.Result().(*[]Topic)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// GetQuestions implements Client.
func (c *HTTPClient) GetQuestions(ctx context.Context, topicIDs []string, limit int) ([]Question, error) {
	var questions []Question
	err := c.getWithRetry(ctx, func() error {
		response, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParam("topic_ids", strings.Join(topicIDs, ",")).
			SetQueryParam("limit", fmt.Sprintf("%d", limit)).
			SetResult(&[]Question{}).
			Get("/questions")
		if err != nil {
			return fmt.Errorf("httpClient.Get(questions) > %w", err)
		}
		if response.IsError() {
			return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}
		questions = *response.Result().(*[]Question)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetAttempt implements Client. A 404 means no server-recorded attempt and
// returns (nil, nil).
func (c *HTTPClient) GetAttempt(ctx context.Context, studentID, questionID string) (*Attempt, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&Attempt{}).
		Get("/students/" + studentID + "/attempts/" + questionID)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get(attempt) > %w", err)
	}
	if response.StatusCode() == 404 {
		return nil, nil
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	return response.Result().(*Attempt), nil
}

// PutAttempt implements Client.
func (c *HTTPClient) PutAttempt(ctx context.Context, attempt *Attempt) error {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(attempt).
		Put("/students/" + attempt.StudentID + "/attempts/" + attempt.QuestionID)
	if err != nil {
		return fmt.Errorf("httpClient.Put(attempt) > %w", err)
	}
	if response.IsError() {
		return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	return nil
}

// Ping implements Pinger against the API health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	response, err := c.httpClient.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return 0, fmt.Errorf("httpClient.Get(health) > %w", err)
	}
	if response.IsError() {
		return 0, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	return time.Since(start), nil
}
