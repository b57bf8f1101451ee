package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// Webhook events registered on every instance this service provisions.
var subscribedEvents = []string{
	"MESSAGES_UPSERT",
	"MESSAGES_UPDATE",
	"CONNECTION_UPDATE",
	"QRCODE_UPDATED",
	"CONTACTS_UPSERT",
}

// CreateInstanceRequest describes a new WhatsApp session to provision.
type CreateInstanceRequest struct {
	InstanceName string
	Integration  string // WHATSAPP-BAILEYS or WHATSAPP-BUSINESS
	WebhookURL   string
	Token        string // Business API only
	Number       string // Business API only
}

// InstanceResult is the gateway's answer to instance provisioning.
type InstanceResult struct {
	InstanceID   string
	APIKey       string
	QRCodeBase64 string
}

// QRCodeResult carries a pairing QR code.
type QRCodeResult struct {
	Base64 string
	Code   string
}

// SendResult identifies a message accepted by the gateway.
type SendResult struct {
	MessageID string
}

// MediaAttachment is an outbound media payload.
type MediaAttachment struct {
	MediaType string // image, video, document
	Base64    string
	Caption   string
	Filename  string
	Mimetype  string
}

// MediaPayload is media fetched back from the gateway.
type MediaPayload struct {
	Base64   string
	Mimetype string
}

// Client is the outbound surface of the WhatsApp gateway.
type Client interface {
	CreateInstance(ctx context.Context, req CreateInstanceRequest) (*InstanceResult, error)
	ConnectInstance(ctx context.Context, instanceName string) (*QRCodeResult, error)
	GetConnectionState(ctx context.Context, instanceName string) (string, error)
	RestartInstance(ctx context.Context, instanceName string) error
	LogoutInstance(ctx context.Context, instanceName string) error
	DeleteInstance(ctx context.Context, instanceName string) error
	SendText(ctx context.Context, instanceName, number, text string) (*SendResult, error)
	SendMedia(ctx context.Context, instanceName, number string, media MediaAttachment) (*SendResult, error)
	FetchMediaBase64(ctx context.Context, instanceName, messageID, remoteJID string, fromMe bool) (*MediaPayload, error)
}

// HTTPClient talks to an Evolution-compatible gateway over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a gateway client with a bounded request timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// request performs one gateway call and decodes the JSON response into out
// when out is non-nil. Non-2xx responses become *Error.
func (c *HTTPClient) request(ctx context.Context, method, path, operation string, payload, out interface{}) error {
	start := utils.Now()
	err := c.doRequest(ctx, method, path, payload, out)
	observer.ObserveGatewayRequestDuration(operation, time.Since(start), err)

	if err != nil {
		logger.FromContext(ctx).Warn("Gateway request failed",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.Error(err),
		)
		if gwErr, ok := err.(*Error); ok {
			gwErr.Operation = operation
			return gwErr
		}
		return &Error{Operation: operation, Message: err.Error()}
	}
	return nil
}

func (c *HTTPClient) doRequest(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := gatewayErrorMessage(data, resp.StatusCode)
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// gatewayErrorMessage extracts a human message from an error body.
func gatewayErrorMessage(data []byte, statusCode int) string {
	var body struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != nil {
			return fmt.Sprint(body.Message)
		}
		if body.Error != nil {
			return fmt.Sprint(body.Error)
		}
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// CreateInstance provisions a new WhatsApp session, registering this
// service's webhook for the events it consumes.
func (c *HTTPClient) CreateInstance(ctx context.Context, req CreateInstanceRequest) (*InstanceResult, error) {
	integration := req.Integration
	if integration == "" {
		integration = "WHATSAPP-BAILEYS"
	}

	payload := map[string]interface{}{
		"instanceName": req.InstanceName,
		"integration":  integration,
		"qrcode":       true,
	}
	if req.Token != "" {
		payload["token"] = req.Token
	}
	if req.Number != "" {
		payload["number"] = utils.NormalizePhoneNumber(req.Number)
	}
	if req.WebhookURL != "" {
		payload["webhook"] = map[string]interface{}{
			"enabled": true,
			"url":     req.WebhookURL,
			"events":  subscribedEvents,
		}
	}

	var body struct {
		Instance struct {
			InstanceID string `json:"instanceId"`
		} `json:"instance"`
		Hash struct {
			APIKey string `json:"apikey"`
		} `json:"hash"`
		QRCode struct {
			Base64 string `json:"base64"`
		} `json:"qrcode"`
	}
	if err := c.request(ctx, http.MethodPost, "/instance/create", "create_instance", payload, &body); err != nil {
		return nil, err
	}

	return &InstanceResult{
		InstanceID:   body.Instance.InstanceID,
		APIKey:       body.Hash.APIKey,
		QRCodeBase64: body.QRCode.Base64,
	}, nil
}

// ConnectInstance starts pairing and returns the QR code when one is issued.
func (c *HTTPClient) ConnectInstance(ctx context.Context, instanceName string) (*QRCodeResult, error) {
	var body struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	}
	if err := c.request(ctx, http.MethodGet, "/instance/connect/"+instanceName, "connect_instance", nil, &body); err != nil {
		return nil, err
	}
	return &QRCodeResult{Base64: body.Base64, Code: body.Code}, nil
}

// GetConnectionState returns the raw connection state of an instance.
func (c *HTTPClient) GetConnectionState(ctx context.Context, instanceName string) (string, error) {
	var body struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := c.request(ctx, http.MethodGet, "/instance/connectionState/"+instanceName, "connection_state", nil, &body); err != nil {
		return "", err
	}
	return body.Instance.State, nil
}

// RestartInstance restarts the gateway session.
func (c *HTTPClient) RestartInstance(ctx context.Context, instanceName string) error {
	return c.request(ctx, http.MethodPut, "/instance/restart/"+instanceName, "restart_instance", nil, nil)
}

// LogoutInstance disconnects the session without deleting it.
func (c *HTTPClient) LogoutInstance(ctx context.Context, instanceName string) error {
	return c.request(ctx, http.MethodDelete, "/instance/logout/"+instanceName, "logout_instance", nil, nil)
}

// DeleteInstance removes the session from the gateway.
func (c *HTTPClient) DeleteInstance(ctx context.Context, instanceName string) error {
	return c.request(ctx, http.MethodDelete, "/instance/delete/"+instanceName, "delete_instance", nil, nil)
}

// SendText sends a plain text message.
func (c *HTTPClient) SendText(ctx context.Context, instanceName, number, text string) (*SendResult, error) {
	payload := map[string]interface{}{
		"number":      utils.NormalizePhoneNumber(number),
		"text":        text,
		"delay":       0,
		"linkPreview": true,
	}

	var body struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := c.request(ctx, http.MethodPost, "/message/sendText/"+instanceName, "send_text", payload, &body); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: body.Key.ID}, nil
}

// SendMedia sends an image, video or document with an optional caption.
func (c *HTTPClient) SendMedia(ctx context.Context, instanceName, number string, media MediaAttachment) (*SendResult, error) {
	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	payload := map[string]interface{}{
		"number":    utils.NormalizePhoneNumber(number),
		"mediatype": media.MediaType,
		"media":     media.Base64,
		"mimetype":  mimetype,
	}
	if media.Caption != "" {
		payload["caption"] = media.Caption
	}
	if media.Filename != "" {
		payload["fileName"] = media.Filename
	}

	var body struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := c.request(ctx, http.MethodPost, "/message/sendMedia/"+instanceName, "send_media", payload, &body); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: body.Key.ID}, nil
}

// FetchMediaBase64 downloads the media of a stored message.
func (c *HTTPClient) FetchMediaBase64(ctx context.Context, instanceName, messageID, remoteJID string, fromMe bool) (*MediaPayload, error) {
	payload := map[string]interface{}{
		"message": map[string]interface{}{
			"key": map[string]interface{}{
				"remoteJid": remoteJID,
				"fromMe":    fromMe,
				"id":        messageID,
			},
		},
		"convertToMp4": false,
	}

	var body struct {
		Base64   string `json:"base64"`
		Mimetype string `json:"mimetype"`
	}
	if err := c.request(ctx, http.MethodPost, "/chat/getBase64FromMediaMessage/"+instanceName, "fetch_media", payload, &body); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Fetched media from gateway",
		zap.String("message_id", messageID),
		zap.String("size", utils.ByteCountSI(len(body.Base64))),
	)
	return &MediaPayload{Base64: body.Base64, Mimetype: body.Mimetype}, nil
}
