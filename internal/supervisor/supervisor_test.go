package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noscope-dev/noscope/internal/plan"
)

func TestSplitSetupPicksT1ByID(t *testing.T) {
	t.Parallel()
	tasks := []plan.Task{
		{ID: "t1", Title: "Set up project structure and install dependencies", Kind: plan.KindShell},
		{ID: "t2", Title: "Build the home page", Kind: plan.KindEdit, DependsOn: []string{"t1"}},
	}
	setup, rest := splitSetup(tasks)
	require.NotNil(t, setup)
	require.Equal(t, "t1", setup.ID)
	require.Len(t, rest, 1)
}

func TestSplitSetupFallsBackToTitleKeyword(t *testing.T) {
	t.Parallel()
	tasks := []plan.Task{
		{ID: "x1", Title: "Create data model", Kind: plan.KindEdit},
		{ID: "x2", Title: "Scaffold the project skeleton", Kind: plan.KindShell},
		{ID: "x3", Title: "Wire up routes", Kind: plan.KindEdit},
	}
	setup, rest := splitSetup(tasks)
	require.NotNil(t, setup)
	require.Equal(t, "x2", setup.ID)
	require.Len(t, rest, 2)
}

func TestSplitSetupFallsBackToFirstTask(t *testing.T) {
	t.Parallel()
	tasks := []plan.Task{
		{ID: "x1", Title: "Create data model", Kind: plan.KindEdit},
		{ID: "x2", Title: "Wire up routes", Kind: plan.KindEdit},
	}
	setup, rest := splitSetup(tasks)
	require.NotNil(t, setup)
	require.Equal(t, "x1", setup.ID)
	require.Len(t, rest, 1)
}

func TestPartitionTasksRespectsDependencyChains(t *testing.T) {
	t.Parallel()
	tasks := []plan.Task{
		{ID: "a1", Title: "a1"},
		{ID: "a2", Title: "a2", DependsOn: []string{"a1"}},
		{ID: "b1", Title: "b1"},
	}
	groups := partitionTasks(tasks)
	require.LessOrEqual(t, len(groups), MaxWorkers)

	var group1 []plan.Task
	for _, g := range groups {
		for _, task := range g {
			if task.ID == "a1" || task.ID == "a2" {
				group1 = g
			}
		}
	}
	ids := make(map[string]bool)
	for _, t := range group1 {
		ids[t.ID] = true
	}
	require.True(t, ids["a1"])
	require.True(t, ids["a2"])
}

func TestPartitionTasksCapsAtMaxWorkers(t *testing.T) {
	t.Parallel()
	tasks := make([]plan.Task, 0, 8)
	for i := 0; i < 8; i++ {
		tasks = append(tasks, plan.Task{ID: string(rune('a' + i)), Title: "independent task"})
	}
	groups := partitionTasks(tasks)
	require.LessOrEqual(t, len(groups), MaxWorkers)
}
