package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"seo_article_studio/model"
	"seo_article_studio/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsMessage is one event pushed to a generation client.
type wsMessage struct {
	Type     string              `json:"type"` // fragment, citation, done, analysis, hero, error
	Text     string              `json:"text,omitempty"`
	Citation *model.Citation     `json:"citation,omitempty"`
	Analysis *model.SEOAnalysis  `json:"analysis,omitempty"`
	Image    *model.ArticleImage `json:"image,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// handleGenerate upgrades to a websocket and runs one generation pass,
// pushing fragments as they are applied. All writes happen on this handler's
// goroutine: the stream consumer drives the callbacks, so ordering on the
// wire matches ordering in the body.
func (s *Server) handleGenerate(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := s.open(ctx, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	send := func(msg wsMessage) {
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	events := pipeline.StreamEvents{
		OnFragment: func(text string) { send(wsMessage{Type: "fragment", Text: text}) },
		OnCitation: func(cit model.Citation) { send(wsMessage{Type: "citation", Citation: &cit}) },
		OnDone:     func(string) { send(wsMessage{Type: "done"}) },
		OnError:    func(err error) { send(wsMessage{Type: "error", Error: err.Error()}) },
	}
	if err := sess.ctrl.Generate(ctx, events); err != nil {
		send(wsMessage{Type: "error", Error: err.Error()})
		return nil
	}

	// Enrichment populates asynchronously after the body is final; relay the
	// results before closing so the client sees score and hero arrive.
	sess.ctrl.WaitEnrichment()
	snap := sess.ctrl.Snapshot()
	if snap.Analysis != nil {
		send(wsMessage{Type: "analysis", Analysis: snap.Analysis})
	}
	if hero := snap.Hero(); hero != nil {
		send(wsMessage{Type: "hero", Image: hero})
	}
	return nil
}
