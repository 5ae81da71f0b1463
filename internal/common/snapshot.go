package common

import "time"

// TimestampLayout is the ISO-8601 form used for every timestamp in the
// artifacts, e.g. 2023-11-14T22:13:20.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type Sources struct {
	RPC      string `json:"rpc"`
	Explorer string `json:"explorer"`
}

type ChainSnapshot struct {
	Chain           string                      `json:"chain"`
	ChainID         uint64                      `json:"chainId"`
	TreasuryAddress string                      `json:"treasuryAddress"`
	GeneratedAt     string                      `json:"generatedAt"`
	Native          NativeBalance               `json:"native"`
	Tokens          map[string]TokenBalance     `json:"tokens"`
	RecentTransfers map[string][]TransferRecord `json:"recentTransfers"`
	Sources         Sources                     `json:"sources"`
}

type SnapshotIndex struct {
	GeneratedAt string              `json:"generatedAt"`
	Address     string              `json:"address"`
	Assets      map[string][]string `json:"assets"`
}

// IndexArtifactName is the document that lists every chain of a run.
const IndexArtifactName = "index.json"

// Artifact is one serialized output document.
type Artifact struct {
	Name string
	Body []byte
}

type Artifacts struct {
	CapturedAt time.Time
	Snapshots  []ChainSnapshot
	Index      SnapshotIndex
	Documents  []Artifact
}
