package journal

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Run is one recorded simulation run.
type Run struct {
	RunID     string
	StartDate string
	EndDate   string
	Agents    int
	CreatedAt time.Time
}

// DecisionRow is one agent decision, whether or not it executed.
type DecisionRow struct {
	RunID    string
	Agent    string
	Date     string
	Action   string
	Symbol   string
	Shares   int
	Reason   string
	Executed bool
}

// TradeRow is one executed trade within a run.
type TradeRow struct {
	TradeID    string
	RunID      string
	Agent      string
	Date       string
	Action     string
	Symbol     string
	Price      float64
	Shares     int
	Amount     float64
	Commission float64
	Reason     string
}

// SnapshotRow is one end-of-day portfolio valuation within a run.
type SnapshotRow struct {
	RunID       string
	Agent       string
	Date        string
	Cash        float64
	MarketValue float64
	TotalAssets float64
	ReturnPct   float64
}

var (
	idMu   sync.Mutex
	idMono io.Reader
)

func init() {
	// PRNG seeded from crypto/rand; ulid.Monotonic keeps same-millisecond
	// IDs lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	idMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// newID returns a ULID string, time-sortable so run and trade IDs index
// in creation order.
func newID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), idMono)
	if err != nil {
		panic(err)
	}
	return id.String()
}
