package provider

import (
	"encoding/json"
	"strings"
)

// call describes one HTTP request to a backend.
type call struct {
	path   string
	query  map[string]string
	bearer bool
	body   any
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type dashscopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt string `json:"prompt"`
	} `json:"input"`
	Parameters struct {
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	} `json:"parameters"`
}

type dashscopeResponse struct {
	Output struct {
		Text string `json:"text"`
	} `json:"output"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type wenxinRequest struct {
	Messages        []chatMessage `json:"messages"`
	Temperature     float64       `json:"temperature"`
	MaxOutputTokens int           `json:"max_output_tokens"`
}

type wenxinResponse struct {
	Result    string `json:"result"`
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// errorBody covers the error shapes of every backend.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message  string `json:"message"`
	ErrorMsg string `json:"error_msg"`
}

func buildCall(k Kind, spec Spec, apiKey, prompt string) call {
	user := []chatMessage{{Role: "user", Content: prompt}}

	switch k {
	case Tongyi:
		var req dashscopeRequest
		req.Model = spec.Model
		req.Input.Prompt = prompt
		req.Parameters.Temperature = spec.Temperature
		req.Parameters.MaxTokens = spec.MaxTokens
		return call{path: "/services/aigc/text-generation/generation", bearer: true, body: req}
	case Gemini:
		var req geminiRequest
		req.Contents = []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
		req.GenerationConfig.Temperature = spec.Temperature
		req.GenerationConfig.MaxOutputTokens = spec.MaxTokens
		return call{
			path:  "/models/" + spec.Model + ":generateContent",
			query: map[string]string{"key": apiKey},
			body:  req,
		}
	case Wenxin:
		return call{
			path:  "/ai_custom/v1/wenxinworkshop/chat/eb-instant",
			query: map[string]string{"access_token": apiKey},
			body:  wenxinRequest{Messages: user, Temperature: spec.Temperature, MaxOutputTokens: spec.MaxTokens},
		}
	default:
		// DeepSeek and OpenAI share the chat completion shape.
		return call{
			path:   "/chat/completions",
			bearer: true,
			body:   chatRequest{Model: spec.Model, Messages: user, MaxTokens: spec.MaxTokens, Temperature: spec.Temperature},
		}
	}
}

// extractText pulls the translation out of a successful response body.
// The second return value carries a backend message when the text is missing.
func extractText(k Kind, body []byte) (string, string) {
	switch k {
	case Tongyi:
		var resp dashscopeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", ""
		}
		return strings.TrimSpace(resp.Output.Text), ""
	case Gemini:
		var resp geminiResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", ""
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", ""
		}
		return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), ""
	case Wenxin:
		var resp wenxinResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", ""
		}
		return strings.TrimSpace(resp.Result), resp.ErrorMsg
	default:
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", ""
		}
		if len(resp.Choices) == 0 {
			return "", ""
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), ""
	}
}

// extractErrorMessage reads the backend message of a failed response.
func extractErrorMessage(k Kind, body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	switch k {
	case Tongyi:
		return e.Message
	case Wenxin:
		return e.ErrorMsg
	default:
		return e.Error.Message
	}
}
