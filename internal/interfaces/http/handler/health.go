// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookgen-ai-api/internal/infrastructure/persistence/milvus"
	"bookgen-ai-api/internal/infrastructure/persistence/postgres"
	"bookgen-ai-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	pg     *postgres.Client
	redis  *redis.Client
	milvus *milvus.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client) *HealthHandler {
	return &HealthHandler{
		pg:     pg,
		redis:  redisClient,
		milvus: milvusClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready 就绪检查接口
// Postgres 与 Redis 为必需依赖；Milvus 降级不影响就绪态，
// 写作流水线会以无检索上下文的方式继续。
// @Summary 就绪检查
// @Description 检查服务是否可以接收流量
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{}
	ready := true

	checks["postgres"] = runCheck(ctx, h.pg, func(p *postgres.Client) error { return p.HealthCheck(ctx) })
	checks["redis"] = runCheck(ctx, h.redis, func(r *redis.Client) error { return r.HealthCheck(ctx) })
	if checks["postgres"].Status != "ok" || checks["redis"].Status != "ok" {
		ready = false
	}

	if h.milvus == nil {
		checks["milvus"] = &readinessCheck{Status: "disabled"}
	} else {
		check := runCheck(ctx, h.milvus, func(m *milvus.Client) error { return m.HealthCheck(ctx) })
		if check.Status != "ok" {
			check.Status = "degraded"
		}
		checks["milvus"] = check
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// runCheck 执行单项依赖检查并记录耗时。客户端未装配视为失败。
func runCheck[T any](_ context.Context, client *T, probe func(*T) error) *readinessCheck {
	if client == nil {
		return &readinessCheck{Status: "missing", Error: "client not configured"}
	}

	start := time.Now()
	err := probe(client)
	check := &readinessCheck{
		Status:    "ok",
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
