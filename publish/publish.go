package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"seo_article_studio/model"
)

// Descriptor identifies one deployment target. The concrete CMS protocol
// lives behind the target's endpoint; this package only hands the finished
// draft over.
type Descriptor struct {
	Platform   string
	BaseURL    string
	Credential string
}

// Connector accepts a finalized draft and returns the remote URL.
type Connector interface {
	Publish(ctx context.Context, draft model.Draft, html string) (string, error)
}

// RESTConnector posts the draft to a JSON endpoint with a bearer credential.
type RESTConnector struct {
	desc   Descriptor
	client *http.Client
	log    zerolog.Logger
}

func NewREST(desc Descriptor, client *http.Client, log zerolog.Logger) (*RESTConnector, error) {
	if desc.BaseURL == "" {
		return nil, errors.New("integration base_url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RESTConnector{
		desc:   desc,
		client: client,
		log:    log.With().Str("component", "publish").Str("platform", desc.Platform).Logger(),
	}, nil
}

type publishPayload struct {
	Title     string           `json:"title"`
	Markdown  string           `json:"markdown"`
	HTML      string           `json:"html"`
	HeroImage string           `json:"hero_image,omitempty"`
	Keywords  []string         `json:"keywords"`
	Citations []model.Citation `json:"citations,omitempty"`
}

type publishResp struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (c *RESTConnector) Publish(ctx context.Context, draft model.Draft, html string) (string, error) {
	payload := publishPayload{
		Title:     draft.Title(),
		Markdown:  draft.Body,
		HTML:      html,
		Keywords:  draft.Brief.TargetKeywords,
		Citations: draft.Citations,
	}
	if hero := draft.Hero(); hero != nil {
		payload.HeroImage = hero.URL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encode publish payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.desc.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build publish request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.desc.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.desc.Credential)
	}

	c.log.Info().Str("draft", draft.ID).Str("title", payload.Title).Msg("publishing draft")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "publish request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read publish response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("publish rejected: status %d: %s", resp.StatusCode, string(raw))
	}

	var envelope publishResp
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", errors.Wrap(err, "decode publish response")
	}
	if envelope.Error != "" {
		return "", fmt.Errorf("publish rejected: %s", envelope.Error)
	}
	return envelope.URL, nil
}
