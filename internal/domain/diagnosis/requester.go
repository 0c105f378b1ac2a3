package diagnosis

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"

	domainimage "plant-diagnosis-server/internal/domain/image"
	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
)

// provider issues one multimodal request and returns the raw reply text.
type provider interface {
	generate(ctx context.Context, prompt string, img *domainimage.Output) (string, error)
}

// Requester sends an image plus caption to the vision model and validates
// the reply into clean JSON text. The cleaned text is returned verbatim so
// field order and formatting from the inference service are preserved.
type Requester struct {
	cfg      config.VisionConfig
	pipeline *domainimage.Pipeline
	provider provider
	logger   *logging.Logger
}

func NewRequester(cfg config.VisionConfig, pipeline *domainimage.Pipeline, logger *logging.Logger) (*Requester, error) {
	r := &Requester{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logger,
	}

	switch strings.ToLower(cfg.Type) {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New(errors.KindConfig, "diagnosis.new", "OpenAI API key is required")
		}
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		r.provider = &openaiProvider{
			client: openai.NewClientWithConfig(clientConfig),
			cfg:    cfg,
		}

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		r.provider = &ollamaProvider{
			baseURL:    baseURL,
			httpClient: &http.Client{Timeout: 120 * time.Second},
			cfg:        cfg,
		}

	default:
		return nil, errors.New(errors.KindConfig, "diagnosis.new",
			fmt.Sprintf("unsupported vision provider: %s", cfg.Type))
	}

	logger.InfoTag("VISION", "provider initialised: type=%s model=%s prompt=%s",
		cfg.Type, cfg.ModelName, PromptVersion)

	return r, nil
}

// Diagnose submits the composed prompt and image in a single multimodal
// request and returns the cleaned JSON reply.
func (r *Requester) Diagnose(ctx context.Context, imageBytes []byte, caption string) (string, error) {
	img, err := r.pipeline.Process(imageBytes)
	if err != nil {
		return "", errors.Wrap(errors.KindVision, "diagnosis.prepare", "prepare image payload", err)
	}

	prompt := ComposePrompt(caption)

	r.logger.DebugTag("VISION", "invoking vision API: type=%s model=%s caption_length=%d image_bytes=%d",
		r.cfg.Type, r.cfg.ModelName, len(caption), len(img.Bytes))

	raw, err := r.provider.generate(ctx, prompt, img)
	if err != nil {
		r.logger.ErrorTag("VISION", "error generating diagnosis: %v", err)
		return "", errors.Wrap(errors.KindVision, "diagnosis.generate", "vision API call failed", err)
	}

	cleaned := StripCodeFence(raw)

	if !sonic.Valid([]byte(cleaned)) {
		r.logger.ErrorTag("VISION",
			"invalid JSON response after cleaning. cleaned: %q, original: %q",
			cleaned, strings.TrimSpace(raw))
		return "", errors.New(errors.KindValidation, "diagnosis.validate",
			"reply is not valid JSON after cleanup")
	}

	return cleaned, nil
}

type openaiProvider struct {
	client *openai.Client
	cfg    config.VisionConfig
}

func (p *openaiProvider) generate(ctx context.Context, prompt string, img *domainimage.Output) (string, error) {
	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:image/%s;base64,%s", img.Format, img.Base64),
				},
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.ModelName,
		Messages:    []openai.ChatCompletionMessage{message},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: float32(p.cfg.Temperature),
		TopP:        float32(p.cfg.TopP),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}

type ollamaProvider struct {
	baseURL    string
	httpClient *http.Client
	cfg        config.VisionConfig
}

type ollamaRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func (p *ollamaProvider) generate(ctx context.Context, prompt string, img *domainimage.Output) (string, error) {
	request := ollamaRequest{
		Model: p.cfg.ModelName,
		Messages: []ollamaMessage{
			{
				Role:    "user",
				Content: prompt,
				// Ollama wants plain base64 without a data URL prefix.
				Images: []string{img.Base64},
			},
		},
		Stream: false,
		Options: map[string]interface{}{
			"temperature": p.cfg.Temperature,
			"top_p":       p.cfg.TopP,
		},
	}

	body, err := sonic.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimSuffix(p.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	var response ollamaResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	return response.Message.Content, nil
}
