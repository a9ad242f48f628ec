package workflow

import "github.com/periplon/metis/engine/config"

// topologicalLevels groups step ids into levels by dependency depth
// (spec.md §4.2: "steps at the same topological depth MAY execute in
// parallel"), preserving config order within a level for deterministic
// execution when concurrency is effectively 1.
func topologicalLevels(steps []config.WorkflowStep) ([][]string, error) {
	depth := make(map[string]int, len(steps))
	byID := make(map[string]*config.WorkflowStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}
	var compute func(id string, visiting map[string]bool) int
	compute = func(id string, visiting map[string]bool) int {
		if d, ok := depth[id]; ok {
			return d
		}
		step := byID[id]
		if len(step.DependsOn) == 0 {
			depth[id] = 0
			return 0
		}
		max := 0
		for _, dep := range step.DependsOn {
			d := compute(dep, visiting) + 1
			if d > max {
				max = d
			}
		}
		depth[id] = max
		return max
	}
	for i := range steps {
		compute(steps[i].ID, map[string]bool{})
	}
	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([][]string, maxDepth+1)
	for i := range steps {
		d := depth[steps[i].ID]
		levels[d] = append(levels[d], steps[i].ID)
	}
	return levels, nil
}
