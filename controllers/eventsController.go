package controllers

import (
	"io"
	"log/slog"
	"time"

	"civicsetu-be/events"
	"civicsetu-be/logger"
	"civicsetu-be/metrics"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const defaultPingInterval = 25 * time.Second

// EventsController streams status changes as server-sent events.
type EventsController struct {
	subscriber   events.Subscriber
	metrics      *metrics.Metrics
	pingInterval time.Duration
	log          *slog.Logger
}

func NewEventsController(sub events.Subscriber, m *metrics.Metrics, pingInterval time.Duration) *EventsController {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &EventsController{
		subscriber:   sub,
		metrics:      m,
		pingInterval: pingInterval,
		log:          logger.WithComponent("events"),
	}
}

// StreamStatusEvents writes a "status" event per change and a "ping" event
// every pingInterval until the client goes away.
func (ec *EventsController) StreamStatusEvents(c *gin.Context) {
	ch, unsubscribe := ec.subscriber.Subscribe()
	defer unsubscribe()

	ec.metrics.EventSubscribers.Inc()
	defer ec.metrics.EventSubscribers.Dec()

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(ec.pingInterval)
	defer ticker.Stop()

	c.Render(-1, sse.Event{Event: "ready", Data: gin.H{"at": time.Now()}})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Id: ev.ReportID, Event: "status", Data: ev})
			return true
		case t := <-ticker.C:
			c.Render(-1, sse.Event{Event: "ping", Data: gin.H{"at": t}})
			return true
		}
	})
	ec.log.Debug("status stream closed", "client_ip", c.ClientIP())
}
