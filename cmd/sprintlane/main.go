package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sprintlane/sprintlane/internal/plan"
	"github.com/sprintlane/sprintlane/internal/schedule"
	"github.com/sprintlane/sprintlane/internal/sprint"
	sprintrepo "github.com/sprintlane/sprintlane/internal/sprint/repositoryimpl"
	"github.com/sprintlane/sprintlane/internal/task"
	taskrepo "github.com/sprintlane/sprintlane/internal/task/repositoryimpl"
	"github.com/sprintlane/sprintlane/pkg/storage"
)

const baselineKey = "schedule/baseline.txt"

var (
	app     = kingpin.New("sprintlane", "Sprint schedule prediction tool")
	dataDir = app.Flag("data", "Data directory").Default(".sprintlane/data").String()

	predictCmd = app.Command("predict", "Print the predicted schedule")

	endCmd = app.Command("end", "Print the predicted end date of a task")
	endID  = endCmd.Arg("id", "Task ID").Required().Int()

	cyclesCmd = app.Command("cycles", "List tasks whose dependencies form a cycle")

	velocityCmd = app.Command("velocity", "Print per-person average slip")

	stampCmd = app.Command("stamp", "Freeze planned end dates for unbaselined tasks")

	diffCmd  = app.Command("diff", "Diff the current schedule against the saved baseline")
	diffSave = diffCmd.Flag("save", "Save the current schedule as the new baseline").Bool()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	ctx := context.Background()

	store, err := storage.NewLocalStorage(*dataDir)
	if err != nil {
		fatalf("failed to open data directory: %v", err)
	}
	taskRepo := taskrepo.NewYAMLRepository(store)
	sprintRepo := sprintrepo.NewYAMLRepository(store)

	var runErr error
	switch command {
	case predictCmd.FullCommand():
		runErr = runPredict(ctx, taskRepo, sprintRepo)
	case endCmd.FullCommand():
		runErr = runEnd(ctx, taskRepo, sprintRepo, *endID)
	case cyclesCmd.FullCommand():
		runErr = runCycles(ctx, taskRepo)
	case velocityCmd.FullCommand():
		runErr = runVelocity(ctx, taskRepo)
	case stampCmd.FullCommand():
		runErr = schedule.NewStamper(taskRepo, sprintRepo).Stamp(ctx)
	case diffCmd.FullCommand():
		runErr = runDiff(ctx, taskRepo, sprintRepo, store, *diffSave)
	}
	if runErr != nil {
		fatalf("%v", runErr)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sprintlane: "+format+"\n", args...)
	os.Exit(1)
}

func load(ctx context.Context, taskRepo task.Repository, sprintRepo sprint.Repository) ([]*plan.Task, *plan.SprintConfig, error) {
	tasks, err := taskRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := sprintRepo.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tasks, cfg, nil
}

// renderSchedule formats predictions as a fixed-width table, one line per
// scheduled lane, sorted by task then lane. The same rendering feeds the
// predict command and the baseline diff so the two never disagree.
func renderSchedule(tasks []*plan.Task, preds plan.PredictionMap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %-30s %-8s %-12s %-12s\n", "ID", "NAME", "LANE", "START", "END")
	ids := make([]int, 0, len(tasks))
	byID := make(map[int]*plan.Task, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}
	sort.Ints(ids)
	for _, id := range ids {
		lanes, ok := preds[id]
		if !ok {
			continue
		}
		t := byID[id]
		for _, lane := range plan.Lanes {
			span, ok := lanes[lane]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%-5d %-30s %-8s %-12s %-12s\n", id, truncate(t.Name, 30), lane, span.Start, span.End)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func runPredict(ctx context.Context, taskRepo task.Repository, sprintRepo sprint.Repository) error {
	tasks, cfg, err := load(ctx, taskRepo, sprintRepo)
	if err != nil {
		return err
	}
	preds := plan.ComputePredictions(tasks, cfg)
	out := renderSchedule(tasks, preds)
	lines := strings.SplitN(out, "\n", 2)
	color.New(color.Bold).Println(strings.TrimRight(lines[0], "\n"))
	if len(lines) > 1 {
		fmt.Print(lines[1])
	}
	return nil
}

func runEnd(ctx context.Context, taskRepo task.Repository, sprintRepo sprint.Repository, id int) error {
	tasks, cfg, err := load(ctx, taskRepo, sprintRepo)
	if err != nil {
		return err
	}
	preds := plan.ComputePredictions(tasks, cfg)
	end, ok := plan.TaskPredictedEnd(id, preds)
	if !ok {
		fmt.Println("unscheduled")
		return nil
	}
	fmt.Println(end)
	return nil
}

func runCycles(ctx context.Context, taskRepo task.Repository) error {
	tasks, err := taskRepo.List(ctx)
	if err != nil {
		return err
	}
	cycles := plan.FindCycles(tasks)
	if len(cycles) == 0 {
		fmt.Println("no cycles")
		return nil
	}
	warn := color.New(color.FgYellow)
	byID := make(map[int]*plan.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, id := range cycles {
		name := ""
		if t, ok := byID[id]; ok {
			name = t.Name
		}
		warn.Printf("%d\t%s\n", id, name)
	}
	return nil
}

func runVelocity(ctx context.Context, taskRepo task.Repository) error {
	tasks, err := taskRepo.List(ctx)
	if err != nil {
		return err
	}
	velocity := plan.ComputeVelocity(tasks)
	people := make([]string, 0, len(velocity))
	for person := range velocity {
		people = append(people, person)
	}
	sort.Strings(people)
	color.New(color.Bold).Printf("%-20s %-10s %-6s\n", "PERSON", "AVG SLIP", "TASKS")
	for _, person := range people {
		v := velocity[person]
		fmt.Printf("%-20s %-10d %-6d\n", person, v.AvgSlip, v.Count)
	}
	return nil
}

func runDiff(ctx context.Context, taskRepo task.Repository, sprintRepo sprint.Repository, store storage.Storage, save bool) error {
	tasks, cfg, err := load(ctx, taskRepo, sprintRepo)
	if err != nil {
		return err
	}
	current := renderSchedule(tasks, plan.ComputePredictions(tasks, cfg))

	if save {
		if err := store.Write(ctx, baselineKey, []byte(current)); err != nil {
			return err
		}
		fmt.Println("baseline saved")
		return nil
	}

	saved, err := store.Read(ctx, baselineKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no saved baseline, run with --save first")
		}
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(saved)),
		B:        difflib.SplitLines(current),
		FromFile: "baseline",
		ToFile:   "current",
		Context:  3,
	})
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Println("schedule unchanged")
		return nil
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			color.New(color.FgGreen).Print(line)
		case strings.HasPrefix(line, "-"):
			color.New(color.FgRed).Print(line)
		default:
			fmt.Print(line)
		}
	}
	return nil
}
