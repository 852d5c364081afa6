package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything that can report backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	db    Pinger
	minio Pinger
	queue Pinger
}

func NewSystemHandler(db, minio, queue Pinger) *SystemHandler {
	return &SystemHandler{db: db, minio: minio, queue: queue}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz probes every backing service. Any failure returns 503 with the
// per-service breakdown so the failing dependency is visible.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	probes := []struct {
		name string
		p    Pinger
	}{
		{"postgres", h.db},
		{"minio", h.minio},
		{"nats", h.queue},
	}

	for _, probe := range probes {
		if probe.p == nil {
			continue
		}
		if err := probe.p.Ping(ctx); err != nil {
			checks[probe.name] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
		} else {
			checks[probe.name] = gin.H{"status": "up"}
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
}
