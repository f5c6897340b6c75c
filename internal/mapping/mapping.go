// Package mapping holds the process-wide upload-controlled configuration: the
// game-id mapping tables and the KPI config. Both are read-mostly values
// replaced atomically by the admin endpoints; readers snapshot what they need
// under the lock and release it before starting computation.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"go.uber.org/zap"
)

// Mapping is the uploaded game-id mapping blob. Sets are encoded as JSON
// string arrays.
type Mapping struct {
	CharacterMapping   map[string]string `json:"character_mapping"`
	EntityMapping      map[string]string `json:"entity_mapping"`
	EntityBlacklist    []string          `json:"entity_blacklist_set"`
	EntityCombine      map[string]string `json:"entity_combine"`
	MissionTypeMapping map[string]string `json:"mission_type_mapping"`
	ResourceMapping    map[string]string `json:"resource_mapping"`
	WeaponMapping      map[string]string `json:"weapon_mapping"`
	WeaponCombine      map[string]string `json:"weapon_combine"`
	WeaponCharacter    map[string]string `json:"weapon_character"`
	ScoutSpecialPlayer []string          `json:"scout_special_player_set"`
}

// Snapshot is a deep copy of the mapping fields the cache builders consume.
type Snapshot struct {
	EntityBlacklistSet    map[string]struct{}
	EntityCombine         map[string]string
	WeaponCombine         map[string]string
	ScoutSpecialPlayerSet map[string]struct{}
}

const (
	mappingFileName   = "mapping.json"
	kpiConfigFileName = "kpi_config.json"
)

// State is the shared holder. Writers persist to disk before releasing the
// lock so a restart observes the last accepted upload.
type State struct {
	mu           sync.Mutex
	instancePath string
	mapping      Mapping
	kpiConfig    *kpi.Config
	logger       *zap.SugaredLogger
}

// NewState creates a holder rooted at instancePath, loading any previously
// persisted mapping and KPI config. Missing files are not an error: the
// server starts unconfigured and answers ConfigRequired until uploads arrive.
func NewState(instancePath string, logger *zap.Logger) (*State, error) {
	if err := os.MkdirAll(instancePath, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create instance path %s: %w", instancePath, err)
	}

	s := &State{
		instancePath: instancePath,
		logger:       logger.Sugar(),
	}

	mappingPath := filepath.Join(instancePath, mappingFileName)
	if content, err := os.ReadFile(mappingPath); err == nil {
		if err := json.Unmarshal(content, &s.mapping); err != nil {
			return nil, fmt.Errorf("cannot parse persisted mapping %s: %w", mappingPath, err)
		}
		s.logger.Infow("loaded persisted mapping", "path", mappingPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read persisted mapping %s: %w", mappingPath, err)
	}

	kpiConfigPath := filepath.Join(instancePath, kpiConfigFileName)
	if content, err := os.ReadFile(kpiConfigPath); err == nil {
		var cfg kpi.Config
		if err := json.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("cannot parse persisted kpi config %s: %w", kpiConfigPath, err)
		}
		s.kpiConfig = &cfg
		s.logger.Infow("loaded persisted kpi config", "path", kpiConfigPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read persisted kpi config %s: %w", kpiConfigPath, err)
	}

	return s, nil
}

// Mapping returns a copy of the full mapping blob.
func (s *State) Mapping() Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMapping(s.mapping)
}

// SnapshotMapping deep-copies the cache-builder inputs.
func (s *State) SnapshotMapping() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		EntityBlacklistSet:    sliceToSet(s.mapping.EntityBlacklist),
		EntityCombine:         copyStringMap(s.mapping.EntityCombine),
		WeaponCombine:         copyStringMap(s.mapping.WeaponCombine),
		ScoutSpecialPlayerSet: sliceToSet(s.mapping.ScoutSpecialPlayer),
	}
}

// KPIConfig deep-copies the current KPI config, or returns false when none
// has been uploaded yet.
func (s *State) KPIConfig() (kpi.Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kpiConfig == nil {
		return kpi.Config{}, false
	}
	return copyKPIConfig(*s.kpiConfig), true
}

// ReplaceMapping persists then installs a new mapping blob.
func (s *State) ReplaceMapping(m Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.instancePath, mappingFileName)
	content, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("cannot encode mapping: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("cannot write mapping to %s: %w", path, err)
	}

	s.mapping = m
	return nil
}

// ReplaceKPIConfig persists then installs a new KPI config.
func (s *State) ReplaceKPIConfig(cfg kpi.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.instancePath, kpiConfigFileName)
	content, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot encode kpi config: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("cannot write kpi config to %s: %w", path, err)
	}

	s.kpiConfig = &cfg
	return nil
}

func sliceToSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func copyStringMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func copyMapping(m Mapping) Mapping {
	return Mapping{
		CharacterMapping:   copyStringMap(m.CharacterMapping),
		EntityMapping:      copyStringMap(m.EntityMapping),
		EntityBlacklist:    append([]string(nil), m.EntityBlacklist...),
		EntityCombine:      copyStringMap(m.EntityCombine),
		MissionTypeMapping: copyStringMap(m.MissionTypeMapping),
		ResourceMapping:    copyStringMap(m.ResourceMapping),
		WeaponMapping:      copyStringMap(m.WeaponMapping),
		WeaponCombine:      copyStringMap(m.WeaponCombine),
		WeaponCharacter:    copyStringMap(m.WeaponCharacter),
		ScoutSpecialPlayer: append([]string(nil), m.ScoutSpecialPlayer...),
	}
}

func copyKPIConfig(cfg kpi.Config) kpi.Config {
	result := kpi.Config{
		CharacterWeightTable:     make(map[kpi.CharacterType]map[string]float64, len(cfg.CharacterWeightTable)),
		PriorityTable:            make(map[string]float64, len(cfg.PriorityTable)),
		ResourceWeightTable:      make(map[string]float64, len(cfg.ResourceWeightTable)),
		CharacterComponentWeight: make(map[kpi.CharacterType]map[kpi.Component]float64, len(cfg.CharacterComponentWeight)),
		TransformRange:           append([]kpi.TransformRangeConfig(nil), cfg.TransformRange...),
	}

	for characterType, table := range cfg.CharacterWeightTable {
		result.CharacterWeightTable[characterType] = copyFloatMap(table)
	}
	for k, v := range cfg.PriorityTable {
		result.PriorityTable[k] = v
	}
	for k, v := range cfg.ResourceWeightTable {
		result.ResourceWeightTable[k] = v
	}
	for characterType, weights := range cfg.CharacterComponentWeight {
		componentWeights := make(map[kpi.Component]float64, len(weights))
		for component, weight := range weights {
			componentWeights[component] = weight
		}
		result.CharacterComponentWeight[characterType] = componentWeights
	}

	return result
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
