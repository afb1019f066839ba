package api

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/sigprobe/internal/signature"
)

type Server struct {
	matcher   *signature.Matcher
	store     *ProbeStore
	prefixLen int
	clock     func() time.Time
}

// NewServer wires a matcher to the HTTP handlers. prefixLen bounds how many
// leading bytes of a raw upload are matched.
func NewServer(matcher *signature.Matcher, store *ProbeStore, prefixLen int) (*Server, error) {
	if matcher == nil {
		return nil, errors.New("api: matcher is required")
	}
	if store == nil {
		var err error
		store, err = NewProbeStore(DefaultStoreSize)
		if err != nil {
			return nil, err
		}
	}
	return &Server{
		matcher:   matcher,
		store:     store,
		prefixLen: matcher.PrefixLen(prefixLen),
		clock:     time.Now,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/rules", s.handleRules)
	e.POST("/v1/detect", s.handleDetect)
	e.POST("/v1/detect/raw", s.handleDetectRaw)
	e.GET("/v1/probes/:id", s.handleGetProbe)
	e.DELETE("/v1/probes/:id", s.handleDeleteProbe)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRules(c *echo.Context) error {
	rules := s.matcher.Rules().Rules()
	out := RuleList{
		Object:    "list",
		Tolerance: s.matcher.Tolerance(),
		Data:      make([]RuleInfo, 0, len(rules)),
	}
	for _, r := range rules {
		out.Data = append(out.Data, RuleInfo{
			Type:     r.Label,
			Magic:    r.MagicHex(),
			MagicLen: r.MagicLen(),
			SizeMin:  r.SizeMin,
			SizeMax:  r.SizeMax,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDetect(c *echo.Context) error {
	req, err := decodeJSON[DetectRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	prefix, err := parsePrefix(req.PrefixHex)
	if err != nil {
		return writeRequestError(c, err)
	}
	if req.Size != nil && *req.Size < 0 {
		return writeRequestError(c, newRequestError("size", "must not be negative"))
	}
	return c.JSON(http.StatusOK, s.detect(prefix, req.Size))
}

// handleDetectRaw matches the leading bytes of the request body and uses the
// full body length as the file size.
func (s *Server) handleDetectRaw(c *echo.Context) error {
	body := c.Request().Body
	head := make([]byte, s.prefixLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return writeBadRequest(c, err.Error())
	}
	rest, err := io.Copy(io.Discard, body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if n == 0 {
		return writeBadRequest(c, "request body is empty")
	}
	size := int64(n) + rest
	return c.JSON(http.StatusOK, s.detect(head[:n], &size))
}

func (s *Server) detect(prefix []byte, size *int64) Probe {
	sz := signature.UnknownSize
	if size != nil {
		sz = *size
	}
	p := Probe{
		ID:        newProbeID(),
		Object:    "probe",
		CreatedAt: s.clock().Unix(),
		Type:      signature.Unknown,
		PrefixHex: strings.ToUpper(hex.EncodeToString(prefix)),
		Size:      size,
	}
	if r, ok := s.matcher.DetectRule(prefix, sz); ok {
		p.Type = r.Label
		p.Matched = true
		p.Magic = r.MagicHex()
	}
	s.store.Save(p)
	return p
}

func (s *Server) handleGetProbe(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "probe not found")
	}
	p, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "probe not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProbe(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "probe not found")
	}
	return c.JSON(http.StatusOK, DeleteProbeResp{
		ID:      id,
		Object:  "probe",
		Deleted: true,
	})
}
