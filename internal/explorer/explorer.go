package explorer

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
	"github.com/thirdweb-dev/treasury-snapshot/internal/metrics"
)

const (
	statusOK          = "1"
	noTransfersFound  = "no transactions found"
	excerptMaxBytes   = 256
	transferAction    = "tokentx"
	accountModule     = "account"
	descendingByBlock = "desc"
)

type IExplorerClient interface {
	FetchTransfers(ctx context.Context, chainID uint64, address string, contract string, page int, pageSize int) ([]common.RawTransferEvent, error)
}

// Client talks to an Etherscan-compatible multichain API.
type Client struct {
	httpClient *resty.Client
	apiURL     string
	apiKey     string
}

var _ IExplorerClient = (*Client)(nil)

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func NewClient(apiURL string, apiKey string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

// FetchTransfers returns one page of token transfers for address on contract,
// most recent first.
func (c *Client) FetchTransfers(ctx context.Context, chainID uint64, address string, contract string, page int, pageSize int) ([]common.RawTransferEvent, error) {
	log.Debug().
		Uint64("chainId", chainID).
		Str("address", address).
		Str("contract", contract).
		Int("page", page).
		Int("pageSize", pageSize).
		Msg("Fetching token transfers")

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chainid":         strconv.FormatUint(chainID, 10),
			"module":          accountModule,
			"action":          transferAction,
			"address":         address,
			"contractaddress": contract,
			"page":            strconv.Itoa(page),
			"offset":          strconv.Itoa(pageSize),
			"sort":            descendingByBlock,
			"apikey":          c.apiKey,
		}).
		Get(c.apiURL)
	if err != nil {
		metrics.ExplorerRequests.WithLabelValues("transport_error").Inc()
		return nil, common.NewTransportError(err, "explorer request for chain %d failed", chainID)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		metrics.ExplorerRequests.WithLabelValues("transport_error").Inc()
		return nil, common.NewTransportError(nil, "explorer returned HTTP %d for chain %d: %s", resp.StatusCode(), chainID, common.Truncate(string(resp.Body()), excerptMaxBytes))
	}

	var payload apiResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		metrics.ExplorerRequests.WithLabelValues("transport_error").Inc()
		return nil, common.NewTransportError(err, "explorer returned a non-JSON body for chain %d: %s", chainID, common.Truncate(string(resp.Body()), excerptMaxBytes))
	}

	if payload.Status != statusOK {
		if isEmptyResult(payload.Message) {
			metrics.ExplorerRequests.WithLabelValues("empty").Inc()
			return []common.RawTransferEvent{}, nil
		}
		metrics.ExplorerRequests.WithLabelValues("api_error").Inc()
		return nil, common.NewAPIError(payload.Status, payload.Message, common.Truncate(resultText(payload.Result), excerptMaxBytes))
	}

	metrics.ExplorerRequests.WithLabelValues("ok").Inc()
	var events []common.RawTransferEvent
	if len(payload.Result) == 0 {
		return []common.RawTransferEvent{}, nil
	}
	if err := json.Unmarshal(payload.Result, &events); err != nil {
		log.Warn().Err(err).
			Uint64("chainId", chainID).
			Str("result", common.Truncate(string(payload.Result), excerptMaxBytes)).
			Msg("Explorer result is not a transfer list, treating as empty")
		return []common.RawTransferEvent{}, nil
	}
	if events == nil {
		events = []common.RawTransferEvent{}
	}
	return events, nil
}

// the API reports an empty history as a failure status
func isEmptyResult(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), noTransfersFound)
}

func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
