package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gmaps2nav/notify"
	"gmaps2nav/resolver"
	"gmaps2nav/service"
)

// Priority accepts either a JSON string or a JSON number.
type Priority string

func (p *Priority) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Priority(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("priority must be a string or a number: %w", err)
	}
	*p = Priority(n.String())
	return nil
}

type pushRequest struct {
	APIKey   string   `json:"apiKey"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
	Sound    string   `json:"sound"`
	Device   string   `json:"device"`
}

func errorBody(msg string) gin.H {
	return gin.H{"ok": false, "error": msg}
}

func (s *Server) authorized(key string) bool {
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.config.APIKey)) == 1
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) push(c *gin.Context) {
	var req pushRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid JSON"))
		return
	}
	if !s.authorized(req.APIKey) {
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized"))
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, errorBody("Missing url"))
		return
	}

	out, err := s.svc.ExpandAndPush(c.Request.Context(), req.URL, service.Options{
		Title:    req.Title,
		Priority: string(req.Priority),
		Sound:    req.Sound,
		Device:   req.Device,
	})
	if err != nil {
		s.fail(c, req.URL, err)
		return
	}
	if !out.OK {
		c.JSON(http.StatusUnprocessableEntity, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

// resolve runs the pipeline without pushing.
func (s *Server) resolve(c *gin.Context) {
	key := c.GetHeader("X-API-Key")
	if key == "" {
		key = c.Query("key")
	}
	if !s.authorized(key) {
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized"))
		return
	}
	shareURL := c.Query("url")
	if shareURL == "" {
		c.JSON(http.StatusBadRequest, errorBody("Missing url"))
		return
	}

	res, err := s.svc.Resolve(c.Request.Context(), shareURL)
	if err != nil {
		s.fail(c, shareURL, err)
		return
	}

	body := gin.H{
		"ok":            res.Found(),
		"resolvedUrl":   res.ResolvedURL,
		"navigationUrl": res.NavigationURL,
		"debug":         res.Debug,
	}
	if !res.Found() {
		body["error"] = service.ErrNoNavigationURL
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) fail(c *gin.Context, input string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, notify.ErrMissingCredentials):
		status = http.StatusInternalServerError
	case resolver.IsRequest(err):
		status = http.StatusBadRequest
	case resolver.IsTimeout(err):
		status = http.StatusGatewayTimeout
	}
	s.log.Error().Err(err).Str("input", input).Int("status", status).Msg("expansion failed")
	c.JSON(status, errorBody(err.Error()))
}
