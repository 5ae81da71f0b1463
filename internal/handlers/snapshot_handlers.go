package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/treasury-snapshot/api"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/orchestrator"
)

var chainNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ArtifactReader returns a published artifact by name. Missing artifacts
// yield an error satisfying os.IsNotExist.
type ArtifactReader interface {
	Read(name string) ([]byte, error)
}

type SnapshotHandler struct {
	artifacts ArtifactReader
}

func NewSnapshotHandler(artifacts ArtifactReader) *SnapshotHandler {
	return &SnapshotHandler{artifacts: artifacts}
}

// GetIndex serves the latest index.json.
func (h *SnapshotHandler) GetIndex(c *gin.Context) {
	body, ok := h.read(c, orchestrator.IndexArtifactName)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetChain serves the latest snapshot of one chain. The symbol, direction
// and limit query parameters narrow its recentTransfers.
func (h *SnapshotHandler) GetChain(c *gin.Context) {
	chain := c.Param("chain")
	if !chainNamePattern.MatchString(chain) {
		api.BadRequestErrorHandler(c, fmt.Errorf("invalid chain name %q", chain))
		return
	}

	params, err := api.ParseTransferQueryParams(c.Request)
	if err != nil {
		api.BadRequestErrorHandler(c, err)
		return
	}

	body, ok := h.read(c, orchestrator.ChainArtifactName(chain))
	if !ok {
		return
	}
	if params.IsZero() {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	var snapshot common.ChainSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		log.Error().Err(err).Str("chain", chain).Msg("Stored snapshot is not valid JSON")
		api.InternalErrorHandler(c)
		return
	}
	snapshot.RecentTransfers = params.FilterTransfers(snapshot.RecentTransfers)
	c.JSON(http.StatusOK, snapshot)
}

func (h *SnapshotHandler) read(c *gin.Context, name string) ([]byte, bool) {
	body, err := h.artifacts.Read(name)
	if err == nil {
		return body, true
	}
	if os.IsNotExist(err) {
		api.NotFoundErrorHandler(c, fmt.Errorf("artifact %s not found", name))
		return nil, false
	}
	log.Error().Err(err).Str("artifact", name).Msg("Failed to read artifact")
	api.InternalErrorHandler(c)
	return nil, false
}
