package replay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Replay JSON layout. Only the fields the decoder reads are declared.

type rawReplay struct {
	ProductionMap rawProductionMap `json:"production_map"`
	Players       []rawPlayer      `json:"players"`
	Frames        []rawFrame       `json:"full_frames"`
	Constants     map[string]any   `json:"GAME_CONSTANTS"`
}

type rawProductionMap struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Grid   [][]rawEnergy `json:"grid"`
}

type rawEnergy struct {
	Energy float32 `json:"energy"`
}

type rawLocation struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type rawPlayer struct {
	Name     string      `json:"name"`
	PlayerID int         `json:"player_id"`
	Factory  rawLocation `json:"factory_location"`
}

type rawFrame struct {
	Cells    []rawCell                       `json:"cells"`
	Energy   map[string]int                  `json:"energy"`
	Entities map[string]map[string]rawEntity `json:"entities"`
	Events   []rawEvent                      `json:"events"`
	Moves    map[string][]rawMove            `json:"moves"`
}

type rawCell struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Production float32 `json:"production"`
}

type rawEntity struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Energy float32 `json:"energy"`
}

type rawEvent struct {
	Type     string      `json:"type"`
	Location rawLocation `json:"location"`
	OwnerID  int         `json:"owner_id"`
	ID       int         `json:"id"`
}

type rawMove struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	Direction string `json:"direction"`
}

// Constant names read from GAME_CONSTANTS.
const (
	ConstMoveCostRatio     = "MOVE_COST_RATIO"
	ConstMaxCellProduction = "MAX_CELL_PRODUCTION"
	ConstMaxEnergy         = "MAX_ENERGY"

	defaultMaxEnergy = 1000
)

// replaySchema lists the top-level sections every replay must carry.
const replaySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["production_map", "players", "full_frames", "GAME_CONSTANTS"],
  "properties": {
    "production_map": {
      "type": "object",
      "required": ["width", "height", "grid"],
      "properties": {
        "width":  {"type": "integer", "minimum": 1},
        "height": {"type": "integer", "minimum": 1},
        "grid":   {"type": "array"}
      }
    },
    "players": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "player_id"],
        "properties": {
          "name": {"type": "string"},
          "player_id": {"type": "integer"}
        }
      }
    },
    "full_frames": {"type": "array"},
    "GAME_CONSTANTS": {
      "type": "object",
      "required": ["MOVE_COST_RATIO", "MAX_CELL_PRODUCTION"],
      "properties": {
        "MOVE_COST_RATIO":     {"type": "number", "exclusiveMinimum": 0},
        "MAX_CELL_PRODUCTION": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("replay.schema.json", replaySchema)
	})
	return schema, schemaErr
}

// parseRaw checks the top-level sections and unmarshals the typed layout.
func parseRaw(raw []byte) (*rawReplay, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReplay, err)
	}
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile replay schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var r rawReplay
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReplay, err)
	}
	return &r, nil
}

// BaseName strips a trailing version token from a replay player name:
// "teccles v12" -> "teccles". Single-word names are returned unchanged.
func BaseName(name string) string {
	fields := strings.Fields(name)
	if len(fields) <= 1 {
		return strings.TrimSpace(name)
	}
	return strings.Join(fields[:len(fields)-1], " ")
}

// MatchesPlayer reports whether a replay player name refers to want, either
// exactly or once its version token is stripped.
func MatchesPlayer(replayName, want string) bool {
	return replayName == want || BaseName(replayName) == want
}

func constFloat(m map[string]any, key string) (float32, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return float32(f), true
	}
	return 0, false
}

func parseOwner(key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%w: owner key %q is not an integer", ErrMalformedReplay, key)
	}
	return id, nil
}
