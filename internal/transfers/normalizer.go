package transfers

import (
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

// Classify tags a transfer relative to the tracked address. Addresses are
// compared case-insensitively.
func Classify(from string, to string, tracked string) common.Direction {
	fromTracked := sameAddress(from, tracked)
	toTracked := sameAddress(to, tracked)
	switch {
	case fromTracked && toTracked:
		return common.DirectionSelf
	case toTracked:
		return common.DirectionIn
	case fromTracked:
		return common.DirectionOut
	default:
		return common.DirectionOther
	}
}

func sameAddress(a string, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && strings.EqualFold(a, strings.TrimSpace(b))
}

// Normalize converts explorer events into transfer records, keeping their
// order and formatting amounts with the token's decimals. At most limit
// records are returned when limit is positive.
func Normalize(events []common.RawTransferEvent, tracked string, decimals int, chain common.ChainContext, limit int) ([]common.TransferRecord, error) {
	if decimals < 0 {
		return nil, common.NewFormatError("negative token decimals %d", decimals)
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	records := make([]common.TransferRecord, 0, len(events))
	for _, event := range events {
		record, err := normalizeOne(event, tracked, decimals, chain)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func normalizeOne(event common.RawTransferEvent, tracked string, decimals int, chain common.ChainContext) (common.TransferRecord, error) {
	raw, err := rawAmount(event.Value)
	if err != nil {
		return common.TransferRecord{}, err
	}
	formatted, err := common.ToDecimalString(raw, decimals)
	if err != nil {
		return common.TransferRecord{}, err
	}
	if event.TimeStamp <= 0 {
		return common.TransferRecord{}, common.NewFormatError("transfer %s has no timestamp", event.Hash)
	}

	return common.TransferRecord{
		Hash:            event.Hash,
		Timestamp:       common.FormatTimestamp(time.Unix(int64(event.TimeStamp), 0)),
		From:            event.From,
		To:              event.To,
		Direction:       Classify(event.From, event.To, tracked),
		AmountRaw:       raw,
		AmountFormatted: formatted,
		ExplorerURL:     chain.TxURL(event.Hash),
	}, nil
}

// rawAmount validates an ERC-20 value as a uint256 and returns its canonical
// decimal form. Missing values count as zero.
func rawAmount(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "0", nil
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return "", common.NewFormatError("invalid transfer value %q: %v", value, err)
	}
	return amount.Dec(), nil
}
