package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"seo_article_studio/config"
	"seo_article_studio/genai"
	"seo_article_studio/model"
	"seo_article_studio/pipeline"
	"seo_article_studio/publish"
	"seo_article_studio/store"
)

// Server exposes the authoring pipeline over HTTP. Each draft gets one
// session (controller + autosaver); the pipeline components themselves are
// stateless and shared.
type Server struct {
	store      store.Store
	window     time.Duration
	connectors map[string]publish.Connector
	log        zerolog.Logger

	researcher *pipeline.Researcher
	outliner   *pipeline.Outliner
	generator  *pipeline.Generator
	analyzer   *pipeline.Analyzer
	optimizer  *pipeline.Optimizer
	images     *pipeline.ImageGen

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	ctrl  *pipeline.Controller
	saver *store.Autosaver
}

func New(text genai.TextClient, img genai.ImageClient, st store.Store, cfg config.Config, log zerolog.Logger) (*Server, error) {
	if text == nil || img == nil {
		return nil, errors.New("text and image clients are required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}

	connectors := make(map[string]publish.Connector, len(cfg.Integrations))
	for _, integ := range cfg.Integrations {
		conn, err := publish.NewREST(publish.Descriptor{
			Platform:   integ.Platform,
			BaseURL:    integ.BaseURL,
			Credential: integ.Credential,
		}, nil, log)
		if err != nil {
			return nil, errors.Wrapf(err, "integration %s", integ.Platform)
		}
		connectors[integ.Platform] = conn
	}

	return &Server{
		store:      st,
		window:     time.Duration(cfg.AutosaveDebounceMS) * time.Millisecond,
		connectors: connectors,
		log:        log.With().Str("component", "server").Logger(),
		researcher: pipeline.NewResearcher(text, log),
		outliner:   pipeline.NewOutliner(text, log),
		generator:  pipeline.NewGenerator(text, log),
		analyzer:   pipeline.NewAnalyzer(text, log),
		optimizer:  pipeline.NewOptimizer(text, log),
		images:     pipeline.NewImageGen(img, log),
		sessions:   make(map[string]*session),
	}, nil
}

// Echo builds the routed application.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.POST("/api/drafts", s.handleCreate)
	e.GET("/api/drafts", s.handleList)
	e.GET("/api/drafts/:id", s.handleGet)
	e.PUT("/api/drafts/:id/brief", s.handleUpdateBrief)
	e.POST("/api/drafts/:id/outline", s.handleBuildOutline)
	e.PUT("/api/drafts/:id/outline", s.handleUpdateOutline)
	e.PUT("/api/drafts/:id/body", s.handleUpdateBody)
	e.GET("/api/drafts/:id/generate", s.handleGenerate)
	e.POST("/api/drafts/:id/analyze", s.handleAnalyze)
	e.POST("/api/drafts/:id/optimize", s.handleOptimize)
	e.POST("/api/drafts/:id/images", s.handleAddImage)
	e.GET("/api/drafts/:id/preview", s.handlePreview)
	e.POST("/api/drafts/:id/publish", s.handlePublish)
	return e
}

// Close drains every session's unsaved state.
func (s *Server) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if err := sess.saver.Close(ctx); err != nil {
			s.log.Warn().Err(err).Str("draft", id).Msg("drain on close failed")
		}
	}
}

func (s *Server) newSession() *session {
	ctrl := pipeline.NewController(pipeline.Deps{
		Researcher: s.researcher,
		Outliner:   s.outliner,
		Generator:  s.generator,
		Analyzer:   s.analyzer,
		Optimizer:  s.optimizer,
		Images:     s.images,
	}, s.log)
	saver := store.NewAutosaver(s.store, ctrl.Snapshot, s.window, s.log)
	ctrl.AttachSaver(saver)
	return &session{ctrl: ctrl, saver: saver}
}

// open returns the live session for a draft, loading and hydrating it from
// the store on first access.
func (s *Server) open(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	persisted, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := s.newSession()
	sess.ctrl.Hydrate(*persisted)
	sess.saver.MarkSaved(sess.ctrl.Snapshot())

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		// Lost the open race; the earlier session owns the draft.
		return existing, nil
	}
	s.sessions[id] = sess
	return sess, nil
}

func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "draft not found"})
	case errors.Is(err, pipeline.ErrGenerationInFlight),
		errors.Is(err, pipeline.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
}

type createReq struct {
	Topic string `json:"topic"`
}

func (s *Server) handleCreate(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil || req.Topic == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "topic is required"})
	}

	sess := s.newSession()
	brief, err := sess.ctrl.CreateBrief(c.Request().Context(), req.Topic)
	if err != nil {
		return httpError(c, err)
	}

	s.mu.Lock()
	s.sessions[brief.ID] = sess
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, sess.ctrl.Snapshot())
}

func (s *Server) handleList(c echo.Context) error {
	metas, err := s.store.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	if metas == nil {
		metas = []model.ArticleMetadata{}
	}
	return c.JSON(http.StatusOK, metas)
}

func (s *Server) handleGet(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

func (s *Server) handleUpdateBrief(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	var req model.ContentBrief
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := sess.ctrl.UpdateBrief(func(b *model.ContentBrief) { *b = req }); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

func (s *Server) handleBuildOutline(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	if _, err := sess.ctrl.BuildOutline(c.Request().Context()); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

func (s *Server) handleUpdateOutline(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	var req model.ContentOutline
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := sess.ctrl.UpdateOutline(req); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

type bodyReq struct {
	Body string `json:"body"`
}

func (s *Server) handleUpdateBody(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	var req bodyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := sess.ctrl.SetBody(req.Body); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

func (s *Server) handleAnalyze(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	analysis, err := sess.ctrl.Analyze(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleOptimize(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	if _, err := sess.ctrl.Optimize(c.Request().Context()); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, sess.ctrl.Snapshot())
}

type imageReq struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAddImage(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	var req imageReq
	if err := c.Bind(&req); err != nil || req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prompt is required"})
	}
	img, err := sess.ctrl.AddImage(c.Request().Context(), req.Prompt)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (s *Server) handlePreview(c echo.Context) error {
	sess, err := s.open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	html, err := pipeline.RenderHTML(sess.ctrl.Snapshot().Body)
	if err != nil {
		return httpError(c, err)
	}
	return c.HTML(http.StatusOK, html)
}

type publishReq struct {
	Platform string `json:"platform"`
}

func (s *Server) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := s.open(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	var req publishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	conn, ok := s.connectors[req.Platform]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown platform"})
	}

	if err := sess.ctrl.Finalize(); err != nil {
		return httpError(c, err)
	}
	draft := sess.ctrl.Snapshot()
	html, err := pipeline.RenderHTML(draft.Body)
	if err != nil {
		return httpError(c, err)
	}
	url, err := conn.Publish(ctx, draft, html)
	if err != nil {
		return httpError(c, err)
	}
	if err := sess.saver.Flush(ctx); err != nil {
		s.log.Warn().Err(err).Str("draft", draft.ID).Msg("flush after publish failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
