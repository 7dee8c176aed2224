package genai

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Settings configures the OpenAI-compatible backend. BaseURL supports
// compatible gateways (deepseek etc.).
type Settings struct {
	Model      string
	ImageModel string
	APIKey     string
	BaseURL    string
}

// OpenAIText implements TextClient using the official openai-go SDK.
type OpenAIText struct {
	model string
	opts  []option.RequestOption
}

// OpenAIImage implements ImageClient on the same SDK.
type OpenAIImage struct {
	model string
	opts  []option.RequestOption
}

func NewOpenAIText(cfg Settings) (*OpenAIText, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	return &OpenAIText{model: cfg.Model, opts: requestOpts(cfg)}, nil
}

func NewOpenAIImage(cfg Settings) (*OpenAIImage, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	model := cfg.ImageModel
	if model == "" {
		model = "dall-e-3"
	}
	return &OpenAIImage{model: model, opts: requestOpts(cfg)}, nil
}

func requestOpts(cfg Settings) []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return opts
}

func (o *OpenAIText) params(prompt Prompt) openai.ChatCompletionNewParams {
	system := prompt.System
	if prompt.WebSearch {
		system += "\nWhen you rely on a source, cite its URL."
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt.User),
		},
	}
	if prompt.Temperature > 0 {
		params.Temperature = openai.Float(prompt.Temperature)
	}
	if prompt.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

func (o *OpenAIText) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.opts...)
	resp, err := client.Chat.Completions.New(ctx, o.params(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIText) Stream(ctx context.Context, prompt Prompt) (Stream, error) {
	client := openai.NewClient(o.opts...)
	raw := client.Chat.Completions.NewStreaming(ctx, o.params(prompt))
	return &openaiStream{raw: raw}, nil
}

// openaiStream adapts the SDK's SSE stream to the Stream interface, skipping
// chunks that carry no text delta.
type openaiStream struct {
	raw     *ssestream.Stream[openai.ChatCompletionChunk]
	current Fragment
}

func (s *openaiStream) Next() bool {
	for s.raw.Next() {
		chunk := s.raw.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		refs := groundingFromChunk(chunk.RawJSON())
		if text == "" && len(refs) == 0 {
			continue
		}
		s.current = Fragment{Text: text, Grounding: refs}
		return true
	}
	return false
}

func (s *openaiStream) Current() Fragment { return s.current }
func (s *openaiStream) Err() error        { return s.raw.Err() }
func (s *openaiStream) Close() error      { return s.raw.Close() }

// groundingFromChunk pulls url_citation annotations out of a chunk's raw
// JSON. Only search-capable models emit them; everything else yields nil.
func groundingFromChunk(raw string) []GroundingRef {
	anns := gjson.Get(raw, "choices.0.delta.annotations")
	if !anns.IsArray() {
		return nil
	}
	var refs []GroundingRef
	anns.ForEach(func(_, ann gjson.Result) bool {
		if ann.Get("type").String() != "url_citation" {
			return true
		}
		cite := ann.Get("url_citation")
		url := cite.Get("url").String()
		if url == "" {
			return true
		}
		refs = append(refs, GroundingRef{
			URL:   url,
			Title: cite.Get("title").String(),
		})
		return true
	})
	return refs
}

func (o *OpenAIImage) Generate(ctx context.Context, req ImageRequest) (string, error) {
	client := openai.NewClient(o.opts...)
	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(o.model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           imageSize(req),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("openai: empty image response")
	}
	return fmt.Sprintf("data:image/png;base64,%s", resp.Data[0].B64JSON), nil
}

func imageSize(req ImageRequest) openai.ImageGenerateParamsSize {
	if req.Size != "" {
		return openai.ImageGenerateParamsSize(req.Size)
	}
	switch req.AspectRatio {
	case "16:9":
		return openai.ImageGenerateParamsSize1792x1024
	case "9:16":
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}
