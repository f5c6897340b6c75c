package kpi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The loaders in this file parse the companion text blobs the KPI config is
// assembled from before upload. Formats:
//
//   - entity weight table: CSV, header
//     entity_game_id,priority,driller,gunner,engineer,scout,scout_special
//   - resource weight table: CSV, header resource_game_id,weight
//   - character component weight: whitespace-separated lines, '#' comments,
//     one line per role id followed by nine floats in component order
//   - transform range: two data lines ('#' comments skipped), N+1 rank
//     breakpoints then N+1 transformed breakpoints

// LoadCharacterComponentWeight parses the per-role component weight text.
func LoadCharacterComponentWeight(r io.Reader) (map[CharacterType]map[Component]float64, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	result := make(map[CharacterType]map[Component]float64)

	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != ComponentCount+1 {
			return nil, fmt.Errorf("expected role id and %d weights, got %d fields: %q", ComponentCount, len(fields), line)
		}

		characterTypeID, err := strconv.ParseInt(fields[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid character type id %q: %w", fields[0], err)
		}

		characterType, err := CharacterTypeFromID(int16(characterTypeID))
		if err != nil {
			return nil, err
		}

		componentWeight := make(map[Component]float64, ComponentCount)
		for index, field := range fields[1:] {
			component, err := ComponentFromID(int16(index))
			if err != nil {
				return nil, err
			}

			weight, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight %q for %s/%s: %w", field, characterType, component, err)
			}

			componentWeight[component] = weight
		}

		result[characterType] = componentWeight
	}

	return result, nil
}

// LoadDamageWeightTable parses the entity weight CSV into the per-role
// character weight table and the priority table.
func LoadDamageWeightTable(r io.Reader) (map[CharacterType]map[string]float64, map[string]float64, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read entity weight header: %w", err)
	}

	want := []string{"entity_game_id", "priority", "driller", "gunner", "engineer", "scout", "scout_special"}
	if len(header) != len(want) {
		return nil, nil, fmt.Errorf("entity weight header has %d columns, want %d", len(header), len(want))
	}
	for i, name := range want {
		if strings.TrimSpace(header[i]) != name {
			return nil, nil, fmt.Errorf("entity weight header column %d is %q, want %q", i, header[i], name)
		}
	}

	characterWeightTable := map[CharacterType]map[string]float64{
		CharacterDriller:      {},
		CharacterGunner:       {},
		CharacterEngineer:     {},
		CharacterScout:        {},
		CharacterScoutSpecial: {},
	}
	priorityTable := make(map[string]float64)

	perRoleColumn := map[int]CharacterType{
		2: CharacterDriller,
		3: CharacterGunner,
		4: CharacterEngineer,
		5: CharacterScout,
		6: CharacterScoutSpecial,
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read entity weight record: %w", err)
		}

		entityGameID := record[0]

		priority, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid priority for %q: %w", entityGameID, err)
		}
		priorityTable[entityGameID] = priority

		for column, characterType := range perRoleColumn {
			weight, err := strconv.ParseFloat(record[column], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid %s weight for %q: %w", characterType, entityGameID, err)
			}
			characterWeightTable[characterType][entityGameID] = weight
		}
	}

	return characterWeightTable, priorityTable, nil
}

// LoadResourceWeightTable parses the resource weight CSV.
func LoadResourceWeightTable(r io.Reader) (map[string]float64, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read resource weight header: %w", err)
	}
	if len(header) != 2 || strings.TrimSpace(header[0]) != "resource_game_id" || strings.TrimSpace(header[1]) != "weight" {
		return nil, fmt.Errorf("unexpected resource weight header: %v", header)
	}

	resourceTable := make(map[string]float64)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read resource weight record: %w", err)
		}

		weight, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %q: %w", record[0], err)
		}

		resourceTable[record[0]] = weight
	}

	return resourceTable, nil
}

// LoadTransformRange parses the two-line transform breakpoint text into
// consecutive rank segments.
func LoadTransformRange(r io.Reader) ([]TransformRangeConfig, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var dataLines []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") || strings.TrimSpace(line) == "" {
			continue
		}
		dataLines = append(dataLines, line)
	}

	if len(dataLines) < 2 {
		return nil, fmt.Errorf("transform range needs a rank line and a transformed line, got %d lines", len(dataLines))
	}

	rankFields := strings.Fields(dataLines[0])
	transformedFields := strings.Fields(dataLines[1])

	if len(rankFields) != len(transformedFields) {
		return nil, fmt.Errorf("rank line has %d breakpoints but transformed line has %d", len(rankFields), len(transformedFields))
	}
	if len(rankFields) < 2 {
		return nil, fmt.Errorf("transform range needs at least two breakpoints")
	}

	parse := func(fields []string) ([]float64, error) {
		values := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid breakpoint %q: %w", field, err)
			}
			values[i] = v
		}
		return values, nil
	}

	ranks, err := parse(rankFields)
	if err != nil {
		return nil, err
	}
	transformed, err := parse(transformedFields)
	if err != nil {
		return nil, err
	}

	result := make([]TransformRangeConfig, 0, len(ranks)-1)
	for i := 0; i < len(ranks)-1; i++ {
		result = append(result, TransformRangeConfig{
			RankRange:      [2]float64{ranks[i], ranks[i+1]},
			TransformRange: [2]float64{transformed[i], transformed[i+1]},
		})
	}

	return result, nil
}
