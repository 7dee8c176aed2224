package pipeline

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

var (
	// ErrGenerationInFlight rejects duplicate generation starts and body
	// edits while a stream is being applied.
	ErrGenerationInFlight = errors.New("generation already in flight for this draft")
	// ErrInvalidState rejects operations outside their state-machine window.
	ErrInvalidState = errors.New("operation not valid in current draft state")
)

// Saver is notified after every draft mutation; the persistence layer
// debounces and reads a fresh snapshot when it decides to write.
type Saver interface {
	Notify()
}

// StreamEvents are optional per-generation callbacks, used by the server to
// push fragments to a connected client. All fields may be nil.
type StreamEvents struct {
	OnFragment func(text string)
	OnCitation func(c model.Citation)
	OnDone     func(body string)
	OnError    func(err error)
}

// Deps wires the pipeline components into a controller.
type Deps struct {
	Researcher *Researcher
	Outliner   *Outliner
	Generator  *Generator
	Analyzer   *Analyzer
	Optimizer  *Optimizer
	Images     *ImageGen
	Saver      Saver
}

// Controller owns one draft and funnels every mutation through its methods,
// which is what makes the single-writer invariant enforceable. One logical
// consumer applies stream fragments; enrichment results are folded in under
// the same lock.
type Controller struct {
	mu         sync.Mutex
	draft      model.Draft
	generating bool
	localStart bool   // generation started during this session
	epoch      uint64 // bumped per generation start; stale enrichment checks it
	touched    touchedFields

	deps   Deps
	log    zerolog.Logger
	enrich sync.WaitGroup
}

type touchedFields struct {
	brief   bool
	outline bool
	body    bool
}

func NewController(deps Deps, log zerolog.Logger) *Controller {
	return &Controller{
		deps:  deps,
		log:   log.With().Str("component", "controller").Logger(),
		draft: model.Draft{State: model.StateEmpty},
	}
}

// AttachSaver late-binds the persistence observer; the autosaver needs the
// controller's snapshot func, so it is constructed after the controller.
func (c *Controller) AttachSaver(s Saver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps.Saver = s
}

// Hydrate merges a persisted draft into the session. Persisted values take
// precedence only for fields the current session has not touched; a locally
// started generation always wins over a stale persisted body.
func (c *Controller) Hydrate(p model.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft.ID == "" {
		c.draft.ID = p.ID
	}
	if !c.touched.brief && p.Brief.ID != "" {
		c.draft.Brief = p.Brief
	}
	if !c.touched.outline && c.draft.Outline == nil {
		c.draft.Outline = p.Outline
	}
	if !c.touched.body && !c.localStart {
		c.draft.Body = p.Body
	}
	if c.draft.Analysis == nil {
		c.draft.Analysis = p.Analysis
	}
	if len(c.draft.Images) == 0 {
		c.draft.Images = p.Images
	}
	if len(c.draft.Citations) == 0 {
		c.draft.Citations = p.Citations
	}
	if p.HasStarted {
		c.draft.HasStarted = true
	}
	if c.draft.State == model.StateEmpty && p.State != "" {
		c.draft.State = p.State
	}
	c.draft.UpdatedAt = p.UpdatedAt
}

// CreateBrief runs research and moves EMPTY -> BRIEF_READY. Research has a
// deterministic fallback, so the transition always succeeds.
func (c *Controller) CreateBrief(ctx context.Context, topicOrURL string) (model.ContentBrief, error) {
	c.mu.Lock()
	if c.draft.State != model.StateEmpty {
		c.mu.Unlock()
		return model.ContentBrief{}, errors.Wrap(ErrInvalidState, "brief already exists")
	}
	c.mu.Unlock()

	brief := c.deps.Researcher.Research(ctx, topicOrURL)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.ID = brief.ID
	c.draft.Brief = brief
	c.draft.State = model.StateBriefReady
	c.touched.brief = true
	c.notify()
	return brief, nil
}

// UpdateBrief applies a user edit. The brief identity is immutable; every
// other field is editable until the draft is finalized.
func (c *Controller) UpdateBrief(edit func(*model.ContentBrief)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.State == model.StateEmpty || c.draft.State == model.StateFinalized {
		return ErrInvalidState
	}
	id, created := c.draft.Brief.ID, c.draft.Brief.CreatedAt
	edit(&c.draft.Brief)
	c.draft.Brief.ID, c.draft.Brief.CreatedAt = id, created
	c.touched.brief = true
	c.notify()
	return nil
}

// BuildOutline runs the outliner and moves to OUTLINE_READY. Re-invocation
// from OUTLINE_READY regenerates the skeleton.
func (c *Controller) BuildOutline(ctx context.Context) (model.ContentOutline, error) {
	c.mu.Lock()
	if c.draft.State != model.StateBriefReady && c.draft.State != model.StateOutlineReady {
		c.mu.Unlock()
		return model.ContentOutline{}, ErrInvalidState
	}
	brief := c.draft.Brief
	c.mu.Unlock()

	outline := c.deps.Outliner.Outline(ctx, brief)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Outline = &outline
	c.draft.State = model.StateOutlineReady
	c.draft.Brief.Status = model.StatusOutlineReady
	c.touched.outline = true
	c.notify()
	return outline, nil
}

// UpdateOutline applies a user edit to the skeleton. Section order is
// preserved verbatim through every later stage, so the edit is stored as
// given.
func (c *Controller) UpdateOutline(outline model.ContentOutline) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.Outline == nil || c.draft.State == model.StateFinalized {
		return ErrInvalidState
	}
	c.draft.Outline = &outline
	c.touched.outline = true
	c.notify()
	return nil
}

// Generate runs one full streaming pass, blocking until the stream closes.
// Callers wanting concurrency run it on their own goroutine; the controller
// guarantees at most one in flight per draft. Prior body, citations and
// analysis are overwritten, never merged.
func (c *Controller) Generate(ctx context.Context, events StreamEvents) error {
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return ErrGenerationInFlight
	}
	if c.draft.State != model.StateOutlineReady && c.draft.State != model.StateGenerated {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.draft.Outline == nil {
		c.mu.Unlock()
		return errors.Wrap(ErrInvalidState, "no outline")
	}
	c.generating = true
	c.localStart = true
	c.epoch++
	c.draft.HasStarted = true
	c.draft.State = model.StateGenerating
	c.draft.Body = ""
	c.draft.Citations = nil
	c.draft.Analysis = nil
	c.touched.body = true
	brief, outline, epoch := c.draft.Brief, *c.draft.Outline, c.epoch
	c.notify()
	c.mu.Unlock()

	c.deps.Generator.Run(ctx, brief, outline, &genSink{c: c, events: events, ctx: ctx, epoch: epoch})
	return nil
}

// genSink applies stream output to the controller's draft in strict arrival
// order. Generator.Run drives it from a single goroutine.
type genSink struct {
	c      *Controller
	events StreamEvents
	ctx    context.Context
	epoch  uint64
}

func (s *genSink) AppendFragment(text string) {
	s.c.mu.Lock()
	s.c.draft.Body += text
	s.c.notify()
	s.c.mu.Unlock()
	if s.events.OnFragment != nil {
		s.events.OnFragment(text)
	}
}

func (s *genSink) AddCitations(refs []genai.GroundingRef) {
	s.c.mu.Lock()
	before := len(s.c.draft.Citations)
	s.c.draft.Citations = MergeCitations(s.c.draft.Citations, refs)
	added := append([]model.Citation(nil), s.c.draft.Citations[before:]...)
	s.c.notify()
	s.c.mu.Unlock()
	if s.events.OnCitation != nil {
		for _, cit := range added {
			s.events.OnCitation(cit)
		}
	}
}

func (s *genSink) StreamDone(finalBody string) {
	s.c.mu.Lock()
	s.c.draft.Body = finalBody
	s.c.draft.State = model.StateGenerated
	s.c.draft.Brief.Status = model.StatusContentReady
	s.c.generating = false
	s.c.notify()
	s.c.mu.Unlock()
	if s.events.OnDone != nil {
		s.events.OnDone(finalBody)
	}
	// Body text is final and displayed; analysis and the hero image populate
	// asynchronously afterward.
	s.c.startEnrichment(s.ctx, finalBody, s.epoch)
}

func (s *genSink) StreamFailed(err error) {
	s.c.mu.Lock()
	s.c.generating = false
	if s.c.draft.Body != "" {
		// Partial body retained; draft stays usable and regeneration
		// overwrites.
		s.c.draft.State = model.StateGenerated
	} else {
		s.c.draft.State = model.StateOutlineReady
	}
	s.c.notify()
	s.c.mu.Unlock()
	if s.events.OnError != nil {
		s.events.OnError(err)
	}
}

// startEnrichment fires exactly one analysis call and exactly one hero image
// render after a completed stream. Both are fire-and-continue; failures only
// log. Results are tagged with the generation epoch that produced them: if
// the user regenerates before a result lands, the draft has moved on and the
// stale result is dropped instead of overwriting the fresh run's.
func (c *Controller) startEnrichment(ctx context.Context, body string, epoch uint64) {
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	keywords := append([]string(nil), c.draft.Brief.TargetKeywords...)
	brief := c.draft.Brief
	title := c.draft.Title()
	c.mu.Unlock()

	c.enrich.Add(2)
	go func() {
		defer c.enrich.Done()
		analysis, err := c.deps.Analyzer.Analyze(ctx, body, keywords)
		if err != nil {
			c.log.Warn().Err(err).Str("draft", c.ID()).Msg("post-stream analysis failed")
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != epoch {
			c.log.Debug().Str("draft", c.draft.ID).Msg("dropping analysis from superseded generation")
			return
		}
		c.draft.Analysis = &analysis
		c.notify()
	}()
	go func() {
		defer c.enrich.Done()
		img, err := c.deps.Images.Hero(ctx, brief, title)
		if err != nil {
			c.log.Warn().Err(err).Str("draft", c.ID()).Msg("hero image generation failed")
			return
		}
		img.IsHero = true
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != epoch {
			c.log.Debug().Str("draft", c.draft.ID).Msg("dropping hero from superseded generation")
			return
		}
		c.insertHeroLocked(img)
		c.notify()
	}()
}

// WaitEnrichment blocks until in-flight post-stream enrichment settles.
func (c *Controller) WaitEnrichment() {
	c.enrich.Wait()
}

// insertHeroLocked enforces hero uniqueness: the incoming hero replaces any
// existing one, so at no instant do two images carry the flag.
func (c *Controller) insertHeroLocked(img model.ArticleImage) {
	kept := c.draft.Images[:0]
	for _, existing := range c.draft.Images {
		if !existing.IsHero {
			kept = append(kept, existing)
		}
	}
	c.draft.Images = append(kept, img)
}

// SetBody is a wholesale manual replacement. It must never interleave with
// streaming on the same draft.
func (c *Controller) SetBody(body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generating {
		return ErrGenerationInFlight
	}
	if c.draft.State == model.StateEmpty || c.draft.State == model.StateFinalized {
		return ErrInvalidState
	}
	c.draft.Body = body
	c.touched.body = true
	c.notify()
	return nil
}

// Analyze re-scores the current body on demand.
func (c *Controller) Analyze(ctx context.Context) (model.SEOAnalysis, error) {
	c.mu.Lock()
	body := c.draft.Body
	keywords := append([]string(nil), c.draft.Brief.TargetKeywords...)
	c.mu.Unlock()

	analysis, err := c.deps.Analyzer.Analyze(ctx, body, keywords)
	if err != nil {
		return model.SEOAnalysis{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Analysis = &analysis
	c.notify()
	return analysis, nil
}

// Optimize runs the rewrite pass (GENERATED -> OPTIMIZING -> GENERATED) and
// re-triggers analysis on the result. On engine failure the body is
// unchanged and the state settles back to GENERATED.
func (c *Controller) Optimize(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.generating || c.draft.State != model.StateGenerated {
		c.mu.Unlock()
		return "", ErrInvalidState
	}
	c.draft.State = model.StateOptimizing
	body, brief := c.draft.Body, c.draft.Brief
	c.notify()
	c.mu.Unlock()

	rewritten := c.deps.Optimizer.Optimize(ctx, body, brief)

	c.mu.Lock()
	c.draft.Body = rewritten
	c.draft.State = model.StateGenerated
	c.touched.body = true
	keywords := append([]string(nil), c.draft.Brief.TargetKeywords...)
	c.notify()
	c.mu.Unlock()

	if analysis, err := c.deps.Analyzer.Analyze(ctx, rewritten, keywords); err != nil {
		c.log.Warn().Err(err).Str("draft", c.ID()).Msg("post-optimization analysis failed")
	} else {
		c.mu.Lock()
		c.draft.Analysis = &analysis
		c.notify()
		c.mu.Unlock()
	}
	return rewritten, nil
}

// AddImage renders an additional non-hero image from a user prompt.
func (c *Controller) AddImage(ctx context.Context, prompt string) (model.ArticleImage, error) {
	img, err := c.deps.Images.Illustration(ctx, prompt)
	if err != nil {
		return model.ArticleImage{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Images = append(c.draft.Images, img)
	c.notify()
	return img, nil
}

// Finalize marks the draft accepted by a deployment collaborator. No
// transition ever leaves FINALIZED automatically.
func (c *Controller) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.State != model.StateGenerated || c.draft.Body == "" {
		return ErrInvalidState
	}
	c.draft.State = model.StateFinalized
	c.notify()
	return nil
}

// Snapshot returns a deep copy of the current draft; this is what the
// autosaver reads at flush time.
func (c *Controller) Snapshot() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.ID
}

func (c *Controller) State() model.DraftState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.State
}

func (c *Controller) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// notify must be called with the lock held.
func (c *Controller) notify() {
	if c.deps.Saver != nil {
		c.deps.Saver.Notify()
	}
}
