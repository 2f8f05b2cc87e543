package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ingredient-safety/internal/infrastructure/config"
	"ingredient-safety/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Generator 外部替代食材生成來源
type Generator interface {
	Generate(ctx context.Context, ingredient string, restrictions []string) ([]string, error)
}

// RemoteSubstitutes 以 OpenRouter chat completions 生成替代食材
type RemoteSubstitutes struct {
	config config.OpenRouterConfig
	client *resty.Client
}

// NewRemoteSubstitutes 創建 OpenRouter 替代食材服務
func NewRemoteSubstitutes(cfg config.OpenRouterConfig, appName string) *RemoteSubstitutes {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("X-Title", appName)

	return &RemoteSubstitutes{
		config: cfg,
		client: client,
	}
}

func buildPrompt(ingredient string, restrictions []string) string {
	var b strings.Builder
	b.WriteString("Sugira até 6 ingredientes substitutos para \"")
	b.WriteString(strings.TrimSpace(ingredient))
	b.WriteString("\" em uma receita.")
	if len(restrictions) > 0 {
		b.WriteString(" O usuário tem as seguintes restrições: ")
		b.WriteString(strings.Join(restrictions, ", "))
		b.WriteString(". Nenhum substituto pode conter ingredientes dessas restrições.")
	}
	b.WriteString(" Responda somente com um array JSON de strings em português, sem explicações.")
	return b.String()
}

// Generate 實作 Generator
func (s *RemoteSubstitutes) Generate(ctx context.Context, ingredient string, restrictions []string) ([]string, error) {
	// 構建請求
	req := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildPrompt(ingredient, restrictions),
			},
		},
		"max_tokens": s.config.MaxTokens,
	}

	// 發送請求
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}

	if len(result.Choices) == 0 {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("no choices in OpenRouter response"))
	}

	content := result.Choices[0].Message.Content
	common.LogDebug("OpenRouter 替代食材回應",
		zap.String("ingredient", ingredient),
		zap.Int("content_length", len(content)),
	)
	return parseSuggestions(content), nil
}

// parseSuggestions 優先解析 JSON 陣列，失敗時改用逐行清單
func parseSuggestions(content string) []string {
	var list []string
	raw := common.ExtractJSON(content, '[', ']')
	if err := common.ParseJSON(raw, &list); err == nil {
		return cleanList(list)
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		lines = append(lines, line)
	}
	return cleanList(lines)
}

func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.Trim(strings.TrimSpace(item), `"'`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
