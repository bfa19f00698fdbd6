package main

import (
	"encoding/json"
	"fmt"
	"os"

	api "genesim/pkg/genesim"
)

func loadRunRequestFromConfig(path string) (api.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.RunRequest{}, err
	}

	var req api.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asStringSlice(raw["genes"]); ok {
		req.Genes = v
	}
	if v, ok := asFloatSlice(raw["initial_expression"]); ok {
		req.InitialExpression = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}

	if v, ok := asString(raw["expression"]); ok {
		req.Expression = v
	}
	if v, ok := asFloat64(raw["expression_slope"]); ok {
		req.ExpressionSlope = v
	}
	if v, ok := asFloat64(raw["expression_intercept"]); ok {
		req.ExpressionIntercept = v
	}
	if v, ok := asString(raw["expression_condition"]); ok {
		req.ExpressionCondition = v
	}
	if v, ok := asFloat64(raw["expression_condition_gain"]); ok {
		req.ExpressionConditionGain = v
	}
	if v, ok := asFloat64(raw["hill_vmax"]); ok {
		req.HillVmax = v
	}
	if v, ok := asFloat64(raw["hill_k"]); ok {
		req.HillK = v
	}
	if v, ok := asFloat64(raw["hill_n"]); ok {
		req.HillN = v
	}
	if v, ok := asString(raw["regulated_base"]); ok {
		req.RegulatedBase = v
	}
	if v, ok := asFloat64(raw["regulatory_gain"]); ok {
		req.RegulatoryGain = v
	}

	if v, ok := asString(raw["selection"]); ok {
		req.Selection = v
	}
	if v, ok := asFloat64(raw["threshold"]); ok {
		req.Threshold = v
	}
	if v, ok := asFloatMatrix(raw["interaction_matrix"]); ok {
		req.InteractionMatrix = v
	}
	if v, ok := asFloatSlice(raw["objective_weights"]); ok {
		req.ObjectiveWeights = v
	}

	if v, ok := asString(raw["mutation"]); ok {
		req.Mutation = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asFloat64(raw["mutation_magnitude"]); ok {
		req.MutationMagnitude = v
	}

	if conditions, ok := raw["conditions"].(map[string]any); ok {
		req.Conditions = make(map[string]float64, len(conditions))
		for name, value := range conditions {
			scalar, ok := asFloat64(value)
			if !ok {
				return api.RunRequest{}, fmt.Errorf("condition %q is not numeric", name)
			}
			req.Conditions[name] = scalar
		}
	}

	if edges, ok := raw["regulation"].([]any); ok {
		for i, entry := range edges {
			edge, ok := entry.(map[string]any)
			if !ok {
				return api.RunRequest{}, fmt.Errorf("regulation entry %d is not an object", i)
			}
			source, _ := asString(edge["source"])
			target, _ := asString(edge["target"])
			weight, _ := asFloat64(edge["weight"])
			req.Regulation = append(req.Regulation, api.RegulationEdge{
				Source: source,
				Target: target,
				Weight: weight,
			})
		}
	}
	if v, ok := asBool(raw["detect_circuits"]); ok {
		req.DetectCircuits = v
	}
	if v, ok := asInt(raw["snapshot_every"]); ok {
		req.SnapshotEvery = v
	}

	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := asString(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asFloatSlice(v any) ([]float64, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := asFloat64(item)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func asFloatMatrix(v any) ([][]float64, bool) {
	rows, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([][]float64, 0, len(rows))
	for _, row := range rows {
		values, ok := asFloatSlice(row)
		if !ok {
			return nil, false
		}
		out = append(out, values)
	}
	return out, true
}
