package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/schoolpay/payments/internal"
)

const collectPath = "/v1/collect"

// Client calls the payment gateway's collect API. A collect request asks the
// gateway to charge the payer and returns a hosted payment page URL; the
// final outcome arrives later on the webhook endpoint.
type Client struct {
	httpClient *http.Client
	config     internal.GatewayConfig
	logger     *slog.Logger
}

func NewClient(config internal.GatewayConfig, logger *slog.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		logger:     logger,
	}
}

type CollectRequest struct {
	MerchantID    string `json:"merchant_id"`
	CustomOrderID string `json:"order_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CallbackURL   string `json:"callback_url"`
	StudentName   string `json:"student_name"`
	StudentEmail  string `json:"student_email"`
}

type CollectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		CollectRequestID string `json:"collect_request_id"`
		PaymentURL       string `json:"payment_url"`
		Status           string `json:"status"`
	} `json:"data"`
}

// CreateCollectRequest submits a collect request and returns the gateway's
// response. Network failures and non-2xx responses both surface as
// EXTERNAL_ERROR so handlers map them to 502.
func (c *Client) CreateCollectRequest(ctx context.Context, req *CollectRequest) (*CollectResponse, error) {
	req.MerchantID = c.config.MerchantID
	if req.CallbackURL == "" {
		req.CallbackURL = c.config.CallbackURL
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode collect request", err)
	}

	url := c.config.BaseURL + collectPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, internal.NewInternalError("failed to build collect request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("X-Verify", c.sign(reqBody))

	c.logger.Info("sending collect request",
		"url", url,
		"order_id", req.CustomOrderID,
		"amount", req.Amount)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("collect request failed", "error", err, "order_id", req.CustomOrderID)
		return nil, internal.NewExternalError("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal.NewExternalError("failed to read gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("gateway returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"order_id", req.CustomOrderID)
		return nil, internal.NewExternalError(
			fmt.Sprintf("payment gateway error: status %d", resp.StatusCode), nil)
	}

	var collectResp CollectResponse
	if err := json.Unmarshal(respBody, &collectResp); err != nil {
		c.logger.Error("failed to decode gateway response", "error", err, "response", string(respBody))
		return nil, internal.NewExternalError("malformed gateway response", err)
	}

	if !collectResp.Success {
		c.logger.Error("gateway rejected collect request",
			"message", collectResp.Message,
			"order_id", req.CustomOrderID)
		return nil, internal.NewExternalError("payment gateway rejected request: "+collectResp.Message, nil)
	}

	c.logger.Info("collect request accepted",
		"collect_request_id", collectResp.Data.CollectRequestID,
		"order_id", req.CustomOrderID)

	return &collectResp, nil
}

// sign computes the X-Verify checksum: sha256(body + path + salt) hex.
func (c *Client) sign(body []byte) string {
	h := sha256.New()
	h.Write(body)
	h.Write([]byte(collectPath))
	h.Write([]byte(c.config.KeySalt))
	return hex.EncodeToString(h.Sum(nil))
}
