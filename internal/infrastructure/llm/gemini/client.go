// Package gemini backs the Embedder, TextGenerator and SubjectTagger ports
// with the hosted Gemini REST API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter

	embedExec *resilience.Executor
	genExec   *resilience.Executor
}

// New fails fast on a missing API key rather than surfacing auth errors on
// the first generation request.
func New(baseURL, apiKey, genModel, embedModel string, requestsPerMinute int, embedExec, genExec *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "init gemini client", errors.New("api key is empty"))
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		embedExec:  embedExec,
		genExec:    genExec,
	}, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type embedRequest struct {
		Model   string  `json:"model"`
		Content content `json:"content"`
	}
	requests := make([]embedRequest, 0, len(texts))
	for _, text := range texts {
		requests = append(requests, embedRequest{
			Model:   "models/" + e.client.embedModel,
			Content: content{Parts: []part{{Text: text}}},
		})
	}

	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	path := fmt.Sprintf("/models/%s:batchEmbedContents", e.client.embedModel)
	call := func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, path, map[string]any{"requests": requests}, &response, "embed")
	}
	err := e.client.embedExec.Execute(ctx, "gemini.embed", call, classifyGeminiError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(response.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(response.Embeddings))
	for _, embedding := range response.Embeddings {
		vectors = append(vectors, embedding.Values)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, promptText string) (string, error) {
	return g.client.generateContent(ctx, promptText)
}

type Tagger struct {
	client *Client
}

func NewTagger(client *Client) *Tagger {
	return &Tagger{client: client}
}

func (t *Tagger) Tag(ctx context.Context, text string) (domain.SubjectTags, error) {
	raw, err := t.client.generateContent(ctx, prompt.BuildSubjectTagRequest(text))
	if err != nil {
		return domain.SubjectTags{}, err
	}
	return parser.ParseSubjectTags(raw)
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

func (c *Client) generateContent(ctx context.Context, promptText string) (string, error) {
	request := map[string]any{
		"contents": []content{{Parts: []part{{Text: promptText}}}},
	}

	var response struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}
	path := fmt.Sprintf("/models/%s:generateContent", c.genModel)
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, request, &response, "generate")
	}
	err := c.genExec.Execute(ctx, "gemini.generate", call, classifyGeminiError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate text", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty generation response")
	}

	var out strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return strings.TrimSpace(out.String()), nil
}
