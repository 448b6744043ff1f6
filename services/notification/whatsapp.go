package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// WhatsApp talks to the wappi.pro gateway.
type WhatsApp interface {
	Chats(ctx context.Context) (json.RawMessage, error)
	FilterChats(ctx context.Context, clientName string) (json.RawMessage, error)
	Send(ctx context.Context, msg models.WhatsAppMessage) (json.RawMessage, error)
	Messages(ctx context.Context, chatID string) ([]json.RawMessage, error)
	Media(ctx context.Context, messageID string) (*models.WhatsAppMedia, error)
	SendDocument(ctx context.Context, doc models.WhatsAppDocument) (json.RawMessage, error)
}

// WappiConfig holds the gateway credentials.
type WappiConfig struct {
	BaseURL    string
	Token      string
	ProfileID  string
	Timeout    time.Duration
	MaxRetries int
}

// GatewayError carries a non-2xx answer from the gateway.
type GatewayError struct {
	Status int
	Body   json.RawMessage
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("whatsapp gateway returned %d", e.Status)
}

// WappiClient retries reads only. Sends go through the plain client so a
// timed-out send is never delivered twice.
type WappiClient struct {
	cfg   WappiConfig
	reads *retryablehttp.Client
	sends *http.Client
}

// NewWappiClient returns nil when no token is configured.
func NewWappiClient(cfg WappiConfig) *WappiClient {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	reads := retryablehttp.NewClient()
	reads.RetryMax = cfg.MaxRetries
	reads.RetryWaitMin = 200 * time.Millisecond
	reads.RetryWaitMax = 2 * time.Second
	reads.HTTPClient.Timeout = cfg.Timeout
	reads.Logger = nil

	return &WappiClient{
		cfg:   cfg,
		reads: reads,
		sends: &http.Client{Timeout: cfg.Timeout},
	}
}

func (w *WappiClient) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("profile_id", w.cfg.ProfileID)
	return w.cfg.BaseURL + path + "?" + params.Encode()
}

func (w *WappiClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, w.endpoint(path, params), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build whatsapp request")
	}
	req.Header.Set("Authorization", w.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := w.reads.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	return readGatewayResponse(resp)
}

func (w *WappiClient) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode whatsapp payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint(path, nil), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build whatsapp request")
	}
	req.Header.Set("Authorization", w.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.sends.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "POST %s", path)
	}
	return readGatewayResponse(resp)
}

func readGatewayResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read whatsapp response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if !json.Valid(raw) {
			raw, _ = json.Marshal(map[string]string{"error": string(raw)})
		}
		return nil, &GatewayError{Status: resp.StatusCode, Body: raw}
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return raw, nil
}

func (w *WappiClient) Chats(ctx context.Context) (json.RawMessage, error) {
	return w.get(ctx, "/api/sync/chats/get", url.Values{"show_all": {"true"}})
}

func (w *WappiClient) FilterChats(ctx context.Context, clientName string) (json.RawMessage, error) {
	return w.get(ctx, "/api/sync/chats/filter", url.Values{"client_name": {clientName}})
}

func (w *WappiClient) Send(ctx context.Context, msg models.WhatsAppMessage) (json.RawMessage, error) {
	utils.GetLogger().Info("Sending WhatsApp message", zap.String("to", msg.To))
	return w.post(ctx, "/api/async/message/send", map[string]string{
		"body":      msg.Message,
		"recipient": msg.To,
	})
}

// Messages returns a chat's messages with repeated ids collapsed; the last
// copy of each id wins and first-seen order is kept.
func (w *WappiClient) Messages(ctx context.Context, chatID string) ([]json.RawMessage, error) {
	if chatID == "" {
		return nil, utils.NewValidationError("chat_id", "chat_id is required")
	}
	raw, err := w.get(ctx, "/api/sync/messages/get", url.Values{"chat_id": {chatID}})
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode whatsapp messages")
	}
	return dedupeMessages(envelope.Messages), nil
}

func dedupeMessages(messages []json.RawMessage) []json.RawMessage {
	type keyed struct {
		ID  string
		Raw json.RawMessage
	}
	items := lo.Map(messages, func(m json.RawMessage, _ int) keyed {
		var head struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(m, &head)
		return keyed{ID: head.ID, Raw: m}
	})

	latest := lo.SliceToMap(items, func(k keyed) (string, json.RawMessage) { return k.ID, k.Raw })
	order := lo.Uniq(lo.Map(items, func(k keyed, _ int) string { return k.ID }))
	return lo.Map(order, func(id string, _ int) json.RawMessage { return latest[id] })
}

func (w *WappiClient) Media(ctx context.Context, messageID string) (*models.WhatsAppMedia, error) {
	if messageID == "" {
		return nil, utils.NewValidationError("message_id", "message_id is required")
	}
	raw, err := w.get(ctx, "/api/sync/message/media/download", url.Values{"message_id": {messageID}})
	if err != nil {
		return nil, err
	}
	var media models.WhatsAppMedia
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, errors.Wrap(err, "decode whatsapp media")
	}
	if media.FileLink == "" {
		return nil, utils.NewNotFound("media", messageID)
	}
	return &media, nil
}

var documentPaths = map[string]string{
	"document": "/api/sync/message/document/send",
	"image":    "/api/sync/message/img/send",
	"video":    "/api/sync/message/video/send",
}

func (w *WappiClient) SendDocument(ctx context.Context, doc models.WhatsAppDocument) (json.RawMessage, error) {
	path, ok := documentPaths[doc.FileType]
	if !ok {
		return nil, utils.NewValidationError("file_type", "unsupported file type %q", doc.FileType)
	}
	recipient := strings.TrimSuffix(doc.To, "@c.us")
	utils.GetLogger().Info("Sending WhatsApp file",
		zap.String("to", recipient),
		zap.String("type", doc.FileType),
		zap.String("file", doc.FileName),
	)
	return w.post(ctx, path, map[string]string{
		"recipient": recipient,
		"file_name": doc.FileName,
		"b64_file":  doc.FileData,
	})
}
