package controllers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civicsetu-be/controllers"
	"civicsetu-be/events"
	"civicsetu-be/events/mocks"
	"civicsetu-be/metrics"
	"civicsetu-be/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

type sseFrame struct {
	id, event, data string
}

// readFrame reads one server-sent event from r.
func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" || f.data != "" {
				return f
			}
		case strings.HasPrefix(line, "id:"):
			f.id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "event:"):
			f.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			f.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestStreamStatusEvents(t *testing.T) {
	hub := events.NewHub(4)
	m := metrics.New()
	ec := controllers.NewEventsController(hub, m, time.Hour)

	r := gin.New()
	r.GET("/api/events/status", ec.StreamStatusEvents)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events/status", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)
	assert.Equal(t, "ready", readFrame(t, body).event)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventSubscribers))

	reportID := primitive.NewObjectID()
	require.NoError(t, hub.Publish(ctx, events.NewStatusEvent(reportID.Hex(), models.StatusChange{
		From:      models.StatusInProgress,
		Status:    models.StatusResolved,
		ChangedBy: staffID,
		ChangedAt: time.Now(),
	})))

	frame := readFrame(t, body)
	assert.Equal(t, "status", frame.event)
	assert.Equal(t, reportID.Hex(), frame.id)
	var ev events.StatusEvent
	require.NoError(t, json.Unmarshal([]byte(frame.data), &ev))
	assert.Equal(t, models.StatusResolved, ev.To)
	assert.Equal(t, "Resolved", ev.Label)
	assert.Equal(t, models.ColorSuccess, ev.Color)

	cancel()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.EventSubscribers) == 0 && hub.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamStatusEvents_Ping(t *testing.T) {
	hub := events.NewHub(1)
	ec := controllers.NewEventsController(hub, metrics.New(), 20*time.Millisecond)

	r := gin.New()
	r.GET("/events", ec.StreamStatusEvents)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := bufio.NewReader(resp.Body)
	assert.Equal(t, "ready", readFrame(t, body).event)
	assert.Equal(t, "ping", readFrame(t, body).event)
}

func TestStatusChangePublishesToSubscribers(t *testing.T) {
	report := newReport(models.StatusAcknowledged)
	h := newHarness(t, models.StrictTransitions{}, report)

	w, _ := h.do(http.MethodPatch, statusPath(report.ID), staffID, map[string]string{"status": "assigned"})
	require.Equal(t, http.StatusOK, w.Code)

	published := h.pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, models.StatusAcknowledged, published[0].From)
	assert.Equal(t, models.StatusAssigned, published[0].To)
	assert.Equal(t, staffID.Hex(), published[0].ChangedBy)
}

func TestStreamStatusEvents_EndsWhenSubscriptionCloses(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := mocks.NewMockSubscriber(ctrl)

	ch := make(chan events.StatusEvent, 1)
	unsubscribed := make(chan struct{})
	sub.EXPECT().Subscribe().Return((<-chan events.StatusEvent)(ch), func() { close(unsubscribed) }).Times(1)

	r := gin.New()
	r.GET("/events", controllers.NewEventsController(sub, metrics.New(), time.Hour).StreamStatusEvents)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := bufio.NewReader(resp.Body)
	assert.Equal(t, "ready", readFrame(t, body).event)

	ch <- events.NewStatusEvent("r1", models.StatusChange{From: models.StatusSubmitted, Status: models.StatusAcknowledged})
	close(ch)
	frame := readFrame(t, body)
	assert.Equal(t, "status", frame.event)
	assert.Equal(t, "r1", frame.id)

	_, err = io.ReadAll(body)
	require.NoError(t, err)
	select {
	case <-unsubscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not released")
	}
}

func TestStatusChange_SucceedsWhenPublishFails(t *testing.T) {
	report := newReport(models.StatusAcknowledged)
	h := newHarness(t, models.StrictTransitions{}, report)

	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev events.StatusEvent) error {
			assert.Equal(t, report.ID.Hex(), ev.ReportID)
			assert.Equal(t, models.StatusInProgress, ev.To)
			return errors.New("redis: connection refused")
		}).
		Times(1)
	h.build(pub)

	w, _ := h.do(http.MethodPatch, statusPath(report.ID), staffID, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ := h.reports.get(report.ID)
	assert.Equal(t, models.StatusInProgress, stored.Status)
}
