package mcpserver

import (
	"encoding/json"
	"fmt"

	"layr/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// getInt reads a JSON number as an int. Missing or non-numeric values
// return fallback.
func getInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func getString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func getBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// getPoint reads x/y. Both must be present.
func getPoint(args map[string]any) (domain.Point, bool) {
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	return domain.Point{X: x, Y: y}, hasX && hasY
}

// parsePoints accepts "[[x,y],...]" or "[{"x":..,"y":..},...]".
func parsePoints(data string) ([]domain.Point, error) {
	var pairs [][2]float64
	if err := parseJSON(data, &pairs); err == nil {
		out := make([]domain.Point, len(pairs))
		for i, p := range pairs {
			out[i] = domain.Point{X: p[0], Y: p[1]}
		}
		return out, nil
	}
	var pts []domain.Point
	if err := parseJSON(data, &pts); err != nil {
		return nil, fmt.Errorf("points must be a JSON array of [x,y] pairs: %w", err)
	}
	return pts, nil
}

func boolPtr(v bool) *bool { return &v }
