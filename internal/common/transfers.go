package common

import (
	"bytes"
	"strconv"
	"strings"
)

type Direction string

const (
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
	DirectionSelf  Direction = "self"
	DirectionOther Direction = "other"
)

// EpochSeconds decodes a unix timestamp given either as a JSON number or as a
// numeric string.
type EpochSeconds int64

func (e *EpochSeconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*e = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NewFormatError("invalid epoch timestamp %s", string(data))
	}
	*e = EpochSeconds(v)
	return nil
}

// RawTransferEvent is one entry of the explorer tokentx result.
type RawTransferEvent struct {
	BlockNumber     string       `json:"blockNumber"`
	TimeStamp       EpochSeconds `json:"timeStamp"`
	Hash            string       `json:"hash"`
	From            string       `json:"from"`
	To              string       `json:"to"`
	Value           string       `json:"value"`
	ContractAddress string       `json:"contractAddress"`
	TokenSymbol     string       `json:"tokenSymbol"`
	TokenDecimal    string       `json:"tokenDecimal"`
}

type TransferRecord struct {
	Hash            string    `json:"hash"`
	Timestamp       string    `json:"timestamp"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Direction       Direction `json:"direction"`
	AmountRaw       string    `json:"amountRaw"`
	AmountFormatted string    `json:"amountFormatted"`
	ExplorerURL     string    `json:"explorerUrl"`
}
