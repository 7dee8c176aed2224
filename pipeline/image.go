package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// ImageGen wraps the generative image service. It is not ordered with
// respect to text generation; callers decide when to invoke it.
type ImageGen struct {
	client genai.ImageClient
	log    zerolog.Logger
}

func NewImageGen(client genai.ImageClient, log zerolog.Logger) *ImageGen {
	return &ImageGen{client: client, log: log.With().Str("component", "imagegen").Logger()}
}

// Hero renders the lead image for a draft. The hero flag itself is set by
// the controller's insert policy, not here.
func (g *ImageGen) Hero(ctx context.Context, brief model.ContentBrief, title string) (model.ArticleImage, error) {
	return g.render(ctx, BuildHeroImagePrompt(brief, title), "16:9")
}

// Illustration renders an additional in-article image from a user prompt.
func (g *ImageGen) Illustration(ctx context.Context, prompt string) (model.ArticleImage, error) {
	return g.render(ctx, prompt, "1:1")
}

func (g *ImageGen) render(ctx context.Context, prompt, aspect string) (model.ArticleImage, error) {
	uri, err := g.client.Generate(ctx, genai.ImageRequest{Prompt: prompt, AspectRatio: aspect})
	if err != nil {
		return model.ArticleImage{}, errors.Wrap(err, "generate image")
	}
	return model.ArticleImage{
		ID:     uuid.NewString(),
		URL:    uri,
		Prompt: prompt,
	}, nil
}
