package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
)

// 訊息類型
const (
	TypeTranslate         = "TRANSLATE_REQUEST"
	TypeToggle            = "TOGGLE_TRANSLATION"
	TypeGetSettings       = "GET_SETTINGS"
	TypeUpdateSettings    = "UPDATE_SETTINGS"
	TypeTestAPI           = "TEST_API"
	TypeGetUsageStats     = "GET_USAGE_STATS"
	TypeClearCache        = "CLEAR_CACHE"
	TypeTranslationStatus = "GET_TRANSLATION_STATUS"
	TypeOCRTranslate      = "OCR_TRANSLATE_REQUEST"
	TypePing              = "ping"
)

var (
	errInvalidMessage = errors.New("invalid message format")
	errUnknownType    = errors.New("unknown message type")
	errEmptyImageData = errors.New("image data is empty")
)

// Message is the envelope posted to /v1/messages.
type Message struct {
	Type      string                `json:"type"`
	Text      string                `json:"text,omitempty"`
	Options   models.Options        `json:"options"`
	Settings  *models.SettingsPatch `json:"settings,omitempty"`
	Provider  string                `json:"provider,omitempty"`
	APIKey    string                `json:"apiKey,omitempty"`
	ImageData string                `json:"imageData,omitempty"`
}

type toggleResult struct {
	Enabled bool `json:"enabled"`
}

type statusResult struct {
	Enabled bool `json:"enabled"`
	Service any  `json:"service"`
}

type pingResult struct {
	Pong      bool   `json:"pong"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) handleMessage(c echo.Context) error {
	var msg Message
	if err := c.Bind(&msg); err != nil || strings.TrimSpace(msg.Type) == "" {
		return fail(c, http.StatusBadRequest, errInvalidMessage.Error())
	}

	ctx := c.Request().Context()
	switch msg.Type {
	case TypeTranslate:
		res, err := s.svc.Translate(ctx, msg.Text, msg.Options)
		if err != nil {
			return failWith(c, err)
		}
		return success(c, res)

	case TypeToggle:
		// Toggle 回傳切換前的狀態
		enabled := !s.enabled.Toggle()
		s.logger.Info("Translation toggled", zap.Bool("enabled", enabled))
		return success(c, toggleResult{Enabled: enabled})

	case TypeGetSettings:
		return success(c, s.svc.Settings())

	case TypeUpdateSettings:
		if msg.Settings == nil {
			return fail(c, http.StatusBadRequest, "settings are required")
		}
		updated, err := s.svc.UpdateSettings(ctx, *msg.Settings)
		if err != nil {
			return failWith(c, err)
		}
		return success(c, updated)

	case TypeTestAPI:
		res := s.svc.TestConnection(ctx, msg.Provider, msg.APIKey)
		return c.JSON(http.StatusOK, response{Success: res.Success, Result: res, Error: res.Error})

	case TypeGetUsageStats:
		snap, err := s.svc.UsageStats(ctx)
		if err != nil {
			return failWith(c, err)
		}
		return success(c, snap)

	case TypeClearCache:
		if err := s.svc.ClearCache(ctx); err != nil {
			return failWith(c, err)
		}
		return success(c, nil)

	case TypeTranslationStatus:
		return success(c, statusResult{Enabled: s.enabled.Load(), Service: s.svc.Status()})

	case TypeOCRTranslate:
		image, err := decodeImage(msg.ImageData)
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		res, err := s.svc.TranslateImage(ctx, image, msg.Options)
		if err != nil {
			return failWith(c, err)
		}
		return success(c, res)

	case TypePing:
		return success(c, pingResult{Pong: true, Status: "ok", Timestamp: s.clock().UnixMilli()})

	default:
		return fail(c, http.StatusBadRequest, fmt.Sprintf("%s: %s", errUnknownType, msg.Type))
	}
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, errEmptyImageData
	}
	image, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return image, nil
}
