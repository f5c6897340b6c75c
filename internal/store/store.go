// Package store is the pgx repository over the mission schema. All cache
// artifacts are derived from what these queries return; there is no other
// authoritative source.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// PgPool defines the interface for the PostgreSQL connection pool.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store wraps the connection pool with typed queries.
type Store struct {
	pg PgPool
}

func New(pg PgPool) *Store {
	return &Store{pg: pg}
}

// Lookup bundles the append-only id-to-game-id tables.
type Lookup struct {
	PlayerIDToName        map[int16]string
	EntityIDToGameID      map[int16]string
	WeaponIDToGameID      map[int16]string
	ResourceIDToGameID    map[int16]string
	CharacterIDToGameID   map[int16]string
	MissionTypeIDToGameID map[int16]string
}

// MissionEvents are the child rows of one mission.
type MissionEvents struct {
	PlayerInfo []models.PlayerInfo
	Damage     []models.DamageRow
	Kill       []models.KillRow
	Resource   []models.ResourceRow
	Supply     []models.SupplyRow
}

// LoadLookup loads every id table in parallel.
func (s *Store) LoadLookup(ctx context.Context) (*Lookup, error) {
	lookup := &Lookup{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		players, err := s.Players(ctx)
		if err != nil {
			return fmt.Errorf("player table: %w", err)
		}
		lookup.PlayerIDToName = make(map[int16]string, len(players))
		for _, p := range players {
			lookup.PlayerIDToName[p.ID] = p.PlayerName
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lookup.EntityIDToGameID, err = s.idTable(ctx, "SELECT id, entity_game_id FROM entity")
		if err != nil {
			return fmt.Errorf("entity table: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lookup.WeaponIDToGameID, err = s.idTable(ctx, "SELECT id, weapon_game_id FROM weapon")
		if err != nil {
			return fmt.Errorf("weapon table: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lookup.ResourceIDToGameID, err = s.idTable(ctx, "SELECT id, resource_game_id FROM resource")
		if err != nil {
			return fmt.Errorf("resource table: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lookup.CharacterIDToGameID, err = s.idTable(ctx, "SELECT id, character_game_id FROM character")
		if err != nil {
			return fmt.Errorf("character table: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		lookup.MissionTypeIDToGameID, err = s.idTable(ctx, "SELECT id, mission_type_game_id FROM mission_type")
		if err != nil {
			return fmt.Errorf("mission type table: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lookup, nil
}

func (s *Store) idTable(ctx context.Context, sql string) (map[int16]string, error) {
	rows, err := s.pg.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int16]string)
	for rows.Next() {
		var id int16
		var gameID string
		if err := rows.Scan(&id, &gameID); err != nil {
			return nil, err
		}
		result[id] = gameID
	}
	return result, rows.Err()
}

// Players returns every known player including the watchlist flag.
func (s *Store) Players(ctx context.Context) ([]models.Player, error) {
	rows, err := s.pg.Query(ctx, "SELECT id, player_name, friend FROM player")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.PlayerName, &p.Friend); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Missions returns every mission row, ordered by begin timestamp.
func (s *Store) Missions(ctx context.Context) ([]models.Mission, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, begin_timestamp, mission_time, mission_type_id, hazard_id,
		       result, reward_credit, total_supply_count
		FROM mission
		ORDER BY begin_timestamp
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Mission
	for rows.Next() {
		var m models.Mission
		if err := rows.Scan(&m.ID, &m.BeginTimestamp, &m.MissionTime, &m.MissionTypeID,
			&m.HazardID, &m.Result, &m.RewardCredit, &m.TotalSupplyCount); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Mission returns one mission row, or models.ErrNotFound.
func (s *Store) Mission(ctx context.Context, missionID int32) (models.Mission, error) {
	var m models.Mission
	err := s.pg.QueryRow(ctx, `
		SELECT id, begin_timestamp, mission_time, mission_type_id, hazard_id,
		       result, reward_credit, total_supply_count
		FROM mission
		WHERE id = $1
	`, missionID).Scan(&m.ID, &m.BeginTimestamp, &m.MissionTime, &m.MissionTypeID,
		&m.HazardID, &m.Result, &m.RewardCredit, &m.TotalSupplyCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Mission{}, models.ErrNotFound
	}
	if err != nil {
		return models.Mission{}, err
	}
	return m, nil
}

// MissionEvents loads every child row of one mission, in parallel.
func (s *Store) MissionEvents(ctx context.Context, missionID int32) (*MissionEvents, error) {
	events := &MissionEvents{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		events.PlayerInfo, err = s.playerInfo(ctx, "WHERE mission_id = $1", missionID)
		return err
	})
	g.Go(func() error {
		var err error
		events.Damage, err = s.damageRows(ctx, "WHERE mission_id = $1", missionID)
		return err
	})
	g.Go(func() error {
		var err error
		events.Kill, err = s.killRows(ctx, "WHERE mission_id = $1", missionID)
		return err
	})
	g.Go(func() error {
		var err error
		events.Resource, err = s.resourceRows(ctx, "WHERE mission_id = $1", missionID)
		return err
	})
	g.Go(func() error {
		var err error
		events.Supply, err = s.supplyRows(ctx, "WHERE mission_id = $1", missionID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mission %d events: %w", missionID, err)
	}
	return events, nil
}

// AllMissionEvents loads the child rows of every mission, grouped by mission
// id.
func (s *Store) AllMissionEvents(ctx context.Context) (map[int32]*MissionEvents, error) {
	var (
		playerInfo []models.PlayerInfo
		damage     []models.DamageRow
		kill       []models.KillRow
		resource   []models.ResourceRow
		supply     []models.SupplyRow
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		playerInfo, err = s.playerInfo(ctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		damage, err = s.damageRows(ctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		kill, err = s.killRows(ctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		resource, err = s.resourceRows(ctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = s.supplyRows(ctx, "")
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("all mission events: %w", err)
	}

	result := make(map[int32]*MissionEvents)
	group := func(missionID int32) *MissionEvents {
		e, ok := result[missionID]
		if !ok {
			e = &MissionEvents{}
			result[missionID] = e
		}
		return e
	}

	for _, row := range playerInfo {
		e := group(row.MissionID)
		e.PlayerInfo = append(e.PlayerInfo, row)
	}
	for _, row := range damage {
		e := group(row.MissionID)
		e.Damage = append(e.Damage, row)
	}
	for _, row := range kill {
		e := group(row.MissionID)
		e.Kill = append(e.Kill, row)
	}
	for _, row := range resource {
		e := group(row.MissionID)
		e.Resource = append(e.Resource, row)
	}
	for _, row := range supply {
		e := group(row.MissionID)
		e.Supply = append(e.Supply, row)
	}

	return result, nil
}

func (s *Store) playerInfo(ctx context.Context, where string, args ...any) ([]models.PlayerInfo, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, mission_id, player_id, character_id, player_rank, character_rank,
		       character_promotion, present_time, kill_num, revive_num, death_num,
		       gold_mined, minerals_mined, player_escaped
		FROM player_info
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.PlayerInfo
	for rows.Next() {
		var p models.PlayerInfo
		if err := rows.Scan(&p.ID, &p.MissionID, &p.PlayerID, &p.CharacterID, &p.PlayerRank,
			&p.CharacterRank, &p.CharacterPromotion, &p.PresentTime, &p.KillNum,
			&p.ReviveNum, &p.DeathNum, &p.GoldMined, &p.MineralsMined, &p.PlayerEscaped); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) damageRows(ctx context.Context, where string, args ...any) ([]models.DamageRow, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, mission_id, time, damage, causer_id, taker_id, weapon_id,
		       causer_type, taker_type
		FROM damage_info
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.DamageRow
	for rows.Next() {
		var d models.DamageRow
		if err := rows.Scan(&d.ID, &d.MissionID, &d.Time, &d.Damage, &d.CauserID,
			&d.TakerID, &d.WeaponID, &d.CauserKind, &d.TakerKind); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) killRows(ctx context.Context, where string, args ...any) ([]models.KillRow, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, mission_id, time, player_id, entity_id
		FROM kill_info
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.KillRow
	for rows.Next() {
		var k models.KillRow
		if err := rows.Scan(&k.ID, &k.MissionID, &k.Time, &k.PlayerID, &k.EntityID); err != nil {
			return nil, err
		}
		result = append(result, k)
	}
	return result, rows.Err()
}

func (s *Store) resourceRows(ctx context.Context, where string, args ...any) ([]models.ResourceRow, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, mission_id, player_id, time, resource_id, amount
		FROM resource_info
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ResourceRow
	for rows.Next() {
		var r models.ResourceRow
		if err := rows.Scan(&r.ID, &r.MissionID, &r.PlayerID, &r.Time, &r.ResourceID, &r.Amount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) supplyRows(ctx context.Context, where string, args ...any) ([]models.SupplyRow, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, mission_id, player_id, time, ammo, health
		FROM supply_info
	`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SupplyRow
	for rows.Next() {
		var r models.SupplyRow
		if err := rows.Scan(&r.ID, &r.MissionID, &r.PlayerID, &r.Time, &r.Ammo, &r.Health); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// InvalidMissions returns the excluded-mission rows.
func (s *Store) InvalidMissions(ctx context.Context) ([]models.MissionInvalid, error) {
	rows, err := s.pg.Query(ctx, "SELECT id, mission_id, reason FROM mission_invalid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.MissionInvalid
	for rows.Next() {
		var m models.MissionInvalid
		if err := rows.Scan(&m.ID, &m.MissionID, &m.Reason); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// InvalidMissionIDs returns just the excluded mission ids.
func (s *Store) InvalidMissionIDs(ctx context.Context) ([]int32, error) {
	invalid, err := s.InvalidMissions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, len(invalid))
	for _, m := range invalid {
		ids = append(ids, m.MissionID)
	}
	return ids, nil
}

// ReplaceWatchlist clears the friend flag everywhere, then sets it for the
// given names, inserting players the store has not seen yet.
func (s *Store) ReplaceWatchlist(ctx context.Context, playerNames []string) error {
	if _, err := s.pg.Exec(ctx, "UPDATE player SET friend = false"); err != nil {
		return fmt.Errorf("cannot clear watchlist: %w", err)
	}

	for _, name := range playerNames {
		if _, err := s.pg.Exec(ctx, `
			INSERT INTO player (player_name, friend) VALUES ($1, true)
			ON CONFLICT (player_name) DO UPDATE SET friend = true
		`, name); err != nil {
			return fmt.Errorf("cannot set watchlist for %q: %w", name, err)
		}
	}
	return nil
}

// DeleteMission removes a mission and all of its child rows.
func (s *Store) DeleteMission(ctx context.Context, missionID int32) error {
	for _, table := range []string{
		"damage_info", "kill_info", "resource_info", "supply_info",
		"player_info", "mission_invalid",
	} {
		if _, err := s.pg.Exec(ctx, "DELETE FROM "+table+" WHERE mission_id = $1", missionID); err != nil {
			return fmt.Errorf("cannot delete %s rows for mission %d: %w", table, missionID, err)
		}
	}

	tag, err := s.pg.Exec(ctx, "DELETE FROM mission WHERE id = $1", missionID)
	if err != nil {
		return fmt.Errorf("cannot delete mission %d: %w", missionID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
