package provider

import (
	"fmt"
	"strings"
	"time"

	"goflare.io/glossa/internal/models"
)

// Kind identifies a translation backend.
type Kind int

const (
	DeepSeek Kind = iota
	Tongyi
	OpenAI
	Gemini
	Wenxin
)

// Spec is the fixed descriptor of a backend.
type Spec struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MinDelay    time.Duration
}

var specs = map[Kind]Spec{
	DeepSeek: {BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat", MaxTokens: 2000, Temperature: 0.3, MinDelay: 500 * time.Millisecond},
	Tongyi:   {BaseURL: "https://dashscope.aliyuncs.com/api/v1", Model: "qwen-turbo", MaxTokens: 2000, Temperature: 0.3, MinDelay: 800 * time.Millisecond},
	OpenAI:   {BaseURL: "https://api.openai.com/v1", Model: "gpt-3.5-turbo", MaxTokens: 2000, Temperature: 0.3, MinDelay: time.Second},
	Gemini:   {BaseURL: "https://generativelanguage.googleapis.com/v1", Model: "gemini-pro", MaxTokens: 2000, Temperature: 0.3, MinDelay: 1200 * time.Millisecond},
	Wenxin:   {BaseURL: "https://aip.baidubce.com/rpc/2.0", Model: "ernie-bot-turbo", MaxTokens: 2000, Temperature: 0.3, MinDelay: time.Second},
}

var names = map[Kind]string{
	DeepSeek: "deepseek",
	Tongyi:   "tongyi",
	OpenAI:   "openai",
	Gemini:   "gemini",
	Wenxin:   "wenxin",
}

// FailoverOrder is the priority in which backends are tried after the
// configured one is exhausted.
var FailoverOrder = []Kind{DeepSeek, Tongyi, Wenxin, OpenAI, Gemini}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Spec returns the descriptor of k.
func (k Kind) Spec() Spec { return specs[k] }

// Valid reports whether k is a known backend.
func (k Kind) Valid() bool {
	_, ok := specs[k]
	return ok
}

// ParseKind maps a provider name to its Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, v := range names {
		if v == n {
			return k, nil
		}
	}
	return 0, &models.ConfigError{Provider: name, Err: models.ErrUnknownProvider}
}

// Names lists every backend name in failover order.
func Names() []string {
	out := make([]string, 0, len(FailoverOrder))
	for _, k := range FailoverOrder {
		out = append(out, k.String())
	}
	return out
}
