package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/deltapurge/internal/config"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestDispatcherRoutesByStatus(t *testing.T) {
	rec := &recordingNotifier{}
	d, err := NewDispatcherWith(rec, "failure")
	require.NoError(t, err)

	require.NoError(t, d.Notify(context.Background(), Event{Status: StatusSuccess}))
	require.NoError(t, d.Notify(context.Background(), Event{Status: StatusFailure, Table: "s3://b/t/"}))

	require.Len(t, rec.events, 1)
	assert.Equal(t, "s3://b/t/", rec.events[0].Table)
}

func TestDispatcherJoinsRouteErrors(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("smtp down")}
	d, err := NewDispatcherWith(rec, "both")
	require.NoError(t, err)

	err = d.Notify(context.Background(), Event{Status: StatusSuccess})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NoError(t, d.Notify(context.Background(), Event{Status: StatusFailure}))
}

func TestNewDispatcherValidatesRoutes(t *testing.T) {
	_, err := NewDispatcher([]config.NotificationConfig{{Type: "webhook", On: []string{"success"}}})
	assert.ErrorContains(t, err, "config.url is required")

	_, err = NewDispatcher([]config.NotificationConfig{{Type: "pager", On: []string{"success"}}})
	assert.ErrorContains(t, err, "unsupported notification type")

	_, err = NewDispatcher([]config.NotificationConfig{{Type: "webhook", Config: config.NotificationDetails{URL: "http://x"}}})
	assert.ErrorContains(t, err, "on must include")

	_, err = NewDispatcher([]config.NotificationConfig{{
		Type: "email",
		On:   []string{"failure"},
		Config: config.NotificationDetails{
			SMTPHost: "smtp.example.com",
			SMTPPort: 587,
			From:     "purge@example.com",
			To:       "ops@example.com, data@example.com",
		},
	}})
	assert.NoError(t, err)
}

func TestWebhookPostsEvent(t *testing.T) {
	var got Event
	var runHeader, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runHeader = r.Header.Get(runIDHeader)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n, err := NewWebhookWithClient(srv.URL, map[string]string{"Authorization": "Bearer t"}, srv.Client())
	require.NoError(t, err)

	event := Event{
		RunID:        "run-1",
		Table:        "s3://bucket/table/",
		Status:       StatusFailure,
		Candidates:   3,
		Deleted:      2,
		FailedChunks: []int{1},
		Duration:     "1s",
		Error:        "1 of 2 chunks failed",
	}
	require.NoError(t, n.Notify(context.Background(), event))

	assert.Equal(t, event, got)
	assert.Equal(t, "run-1", runHeader)
	assert.Equal(t, "Bearer t", auth)
}

func TestWebhookReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n, err := NewWebhookWithClient(srv.URL, nil, srv.Client())
	require.NoError(t, err)

	err = n.Notify(context.Background(), Event{Status: StatusSuccess})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestEmailBody(t *testing.T) {
	body := buildEmailBody(Event{
		RunID:        "r",
		Table:        "s3://b/t/",
		Status:       StatusFailure,
		Candidates:   10,
		Deleted:      5,
		FailedChunks: []int{0, 3},
		Duration:     "2s",
		Error:        "boom",
	})

	assert.Contains(t, body, "table: s3://b/t/")
	assert.Contains(t, body, "candidates: 10")
	assert.Contains(t, body, "failed chunks: 0, 3")
	assert.Contains(t, body, "error: boom")
}

func TestNewEmailValidation(t *testing.T) {
	_, err := NewEmail("", 25, "a@x", "b@x", "", "")
	assert.Error(t, err)

	_, err = NewEmail("smtp", 25, "a@x", "b@x", "user", "")
	assert.ErrorContains(t, err, "set together")

	_, err = NewEmail("smtp", 25, "a@x", " , ", "", "")
	assert.Error(t, err)
}
