// Package ollama backs the Embedder, TextGenerator and SubjectTagger ports
// with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/sat-prep-backend/internal/core/domain"
	"github.com/avolkov/sat-prep-backend/internal/core/parser"
	"github.com/avolkov/sat-prep-backend/internal/core/prompt"
	"github.com/avolkov/sat-prep-backend/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client

	embedExec *resilience.Executor
	genExec   *resilience.Executor
}

// New builds a client for the given server. embedExec wraps embedding calls
// and may retry; genExec wraps generation calls and must not, question
// generation runs at most once per request.
func New(baseURL, genModel, embedModel string, embedExec, genExec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		embedExec:  embedExec,
		genExec:    genExec,
	}
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

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	call := func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}
	err := e.client.embedExec.Execute(ctx, "ollama.embed", call, classifyOllamaError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
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
	return g.client.generateText(ctx, promptText)
}

// Tagger classifies study material into an SAT section via a JSON-mode
// generation call.
type Tagger struct {
	client *Client
}

func NewTagger(client *Client) *Tagger {
	return &Tagger{client: client}
}

func (t *Tagger) Tag(ctx context.Context, text string) (domain.SubjectTags, error) {
	raw, err := t.client.generateJSON(ctx, prompt.BuildSubjectTagRequest(text))
	if err != nil {
		return domain.SubjectTags{}, err
	}
	return parser.ParseSubjectTags(raw)
}

func (c *Client) generateJSON(ctx context.Context, promptText string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": promptText,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, promptText string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": promptText,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	}
	err := c.genExec.Execute(ctx, "ollama.generate", call, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate text", err)
	}
	return strings.TrimSpace(response.Response), nil
}
