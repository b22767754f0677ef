package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger はデータベース接続の生存確認インターフェース。
// インメモリバックエンドの場合はnilを渡す。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Check はプロセスとデータベース接続の生存確認を行う。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			writeJSONResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}
