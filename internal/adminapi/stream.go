package adminapi

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// eventStream pushes every bus event to the client as server-sent
// events, so the admin UI refreshes without polling. The subscription
// ends when the client disconnects.
func (s *Server) eventStream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	watcher := events.NewWatcher(s.bus, nil, nil, streamTopics...)
	defer watcher.Close()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case e := <-watcher.Events():
			payload, err := json.Marshal(e.Payload)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload)
			flusher.Flush()
		}
	}
}

var streamTopics = []string{
	events.DataUpdated,
	events.ProductUpdated,
	events.CategoryUpdated,
	events.TestimonialUpdated,
	events.ContentUpdated,
	events.SettingsUpdated,
	events.MediaUpdated,
	events.DatabaseReconnected,
}
