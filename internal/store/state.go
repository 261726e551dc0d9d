package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AgentState is the full serializable state of one agent's simulation.
// The schema matches the per-agent JSON state files the data pipeline
// already produces, so a partially run simulation can resume from disk.
type AgentState struct {
	AgentName             string              `json:"agent_name"`
	InitialCapital        float64             `json:"initial_capital"`
	CurrentCapital        float64             `json:"current_capital"`
	Positions             map[string]Position `json:"positions"`
	TradeHistory          []Trade             `json:"trade_history"`
	DailySnapshots        []Snapshot          `json:"daily_snapshots"`
	LastUpdate            string              `json:"last_update"`
	SimulationStartDate   string              `json:"simulation_start_date"`
	SimulationCurrentDate string              `json:"simulation_current_date"`
}

type Position struct {
	Name      string  `json:"name"`
	Shares    int     `json:"shares"`
	AvgCost   float64 `json:"avg_cost"`
	LastPrice float64 `json:"last_price"`
}

type Trade struct {
	Date       string  `json:"date"`
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Shares     int     `json:"shares"`
	Amount     float64 `json:"amount"`
	Commission float64 `json:"commission"`
	Reason     string  `json:"reason"`
}

type Snapshot struct {
	Date        string  `json:"date"`
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"market_value"`
	TotalAssets float64 `json:"total_assets"`
	ReturnPct   float64 `json:"return_pct"`
}

// StateStore persists agent state. Load after Save must reconstruct an
// equivalent state (round-trip identity).
type StateStore interface {
	Save(st *AgentState) error
	Load(agent string) (*AgentState, bool, error)
	Reset(agent string) error
}

// FileStore keeps one <agent>_state.json per agent in a directory.
type FileStore struct {
	dir string
}

var _ StateStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(agent string) string {
	return filepath.Join(s.dir, agent+"_state.json")
}

func (s *FileStore) Save(st *AgentState) error {
	st.LastUpdate = time.Now().Format("2006-01-02 15:04:05")
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state for %s: %w", st.AgentName, err)
	}
	tmp := s.path(st.AgentName) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(st.AgentName))
}

func (s *FileStore) Load(agent string) (*AgentState, bool, error) {
	b, err := os.ReadFile(s.path(agent))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var st AgentState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, false, fmt.Errorf("parse state for %s: %w", agent, err)
	}
	return &st, true, nil
}

func (s *FileStore) Reset(agent string) error {
	err := os.Remove(s.path(agent))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
