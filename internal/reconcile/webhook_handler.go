package reconcile

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/schoolpay/payments/internal/transport"
	"github.com/schoolpay/payments/pkg/logger"
)

type WebhookHandler struct {
	*transport.BaseHandler
	engine *Engine
}

func NewWebhookHandler(engine *Engine) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		engine:      engine,
	}
}

type webhookAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandlePaymentWebhook ingests a gateway delivery. The response is 200 for
// anything we managed to log, even deliveries that reference no known order;
// only a failure to persist the log returns 5xx so the gateway retries.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	rawPayload, err := io.ReadAll(r.Body)
	if err != nil || len(rawPayload) == 0 {
		h.WriteError(w, http.StatusBadRequest, "empty request body")
		return
	}

	headers := headersJSON(r.Header)
	sourceIP := clientIP(r)

	if err := h.engine.ProcessWebhook(r.Context(), rawPayload, headers, sourceIP); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, webhookAck{
		Status:  "ok",
		Message: "webhook received",
	})
}

func headersJSON(header http.Header) json.RawMessage {
	flat := make(map[string]string, len(header))
	for name, values := range header {
		if strings.EqualFold(name, "Authorization") {
			continue
		}
		flat[name] = strings.Join(values, ", ")
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
