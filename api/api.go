package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TransferQueryParams narrows the recentTransfers section of a chain snapshot.
type TransferQueryParams struct {
	Symbol    string `schema:"symbol"`
	Direction string `schema:"direction"`
	Limit     int    `schema:"limit"`
}

func writeError(c *gin.Context, message string, code int) {
	c.AbortWithStatusJSON(code, Error{
		Code:    code,
		Message: message,
	})
}

var (
	BadRequestErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusBadRequest)
	}
	NotFoundErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusNotFound)
	}
	InternalErrorHandler = func(c *gin.Context) {
		writeError(c, "An unexpected error occurred.", http.StatusInternalServerError)
	}
	UnauthorizedErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusUnauthorized)
	}
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func ParseTransferQueryParams(r *http.Request) (TransferQueryParams, error) {
	var params TransferQueryParams
	if err := decoder.Decode(&params, r.URL.Query()); err != nil {
		log.Error().Err(err).Msg("Error parsing query params")
		return TransferQueryParams{}, err
	}

	params.Symbol = strings.TrimSpace(params.Symbol)
	params.Direction = strings.ToLower(strings.TrimSpace(params.Direction))
	if params.Direction != "" && !isDirection(params.Direction) {
		return TransferQueryParams{}, fmt.Errorf("invalid direction %q", params.Direction)
	}
	if params.Limit < 0 {
		return TransferQueryParams{}, fmt.Errorf("limit must not be negative")
	}
	return params, nil
}

func isDirection(value string) bool {
	switch common.Direction(value) {
	case common.DirectionIn, common.DirectionOut, common.DirectionSelf, common.DirectionOther:
		return true
	}
	return false
}

// FilterTransfers applies the query to a snapshot's transfer lists. Symbols
// not named by the query are dropped when one is given.
func (p TransferQueryParams) FilterTransfers(transfers map[string][]common.TransferRecord) map[string][]common.TransferRecord {
	filtered := make(map[string][]common.TransferRecord, len(transfers))
	for symbol, records := range transfers {
		if p.Symbol != "" && !strings.EqualFold(symbol, p.Symbol) {
			continue
		}
		kept := make([]common.TransferRecord, 0, len(records))
		for _, record := range records {
			if p.Direction != "" && string(record.Direction) != p.Direction {
				continue
			}
			if p.Limit > 0 && len(kept) == p.Limit {
				break
			}
			kept = append(kept, record)
		}
		filtered[symbol] = kept
	}
	return filtered
}

func (p TransferQueryParams) IsZero() bool {
	return p == TransferQueryParams{}
}
