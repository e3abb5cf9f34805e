package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"projectdesk/internal/models"
)

func TestGenerateTaskSheet(t *testing.T) {
	dir := t.TempDir()
	g := NewTaskSheetGenerator(dir, "")

	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	parent := int64(3)
	detail := &models.TaskDetail{
		Task: &models.Task{
			ID: 42, SAccountID: 1, ProjectID: 7, ParentTaskID: &parent,
			Name: "Write release notes", Description: "Cover the new search filters.",
			Status: models.StatusInProgress, Priority: models.PriorityHigh,
			PercentageComplete: 40, DueDate: &due, LogBy: "alice", AssignUser: "bob",
			CreatedAt: due.AddDate(0, 0, -10),
		},
		Parent:      &models.Task{ID: 3, Name: "Release 2.0"},
		People:      models.PeopleInfo{LogBy: "alice", LogByFullName: "Alice A", AssignUser: "bob"},
		Followers:   []models.Follower{{Username: "carol"}},
		Tags:        []string{"docs", "release"},
		LoggedHours: 2.5,
		Activities:  []models.Activity{{Action: "status", CreatedBy: "alice", Detail: "Open -> InProgress", CreatedAt: due}},
		IsOverdue:   true,
	}

	path, err := g.GenerateTaskSheet(detail)
	if err != nil {
		t.Fatalf("GenerateTaskSheet: %v", err)
	}
	if filepath.Dir(path) != filepath.Clean(dir) {
		t.Errorf("sheet written to %s, want under %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Errorf("output is not a PDF, starts with %q", b[:min(len(b), 8)])
	}
}

func TestGenerateTaskSheetRejectsEmpty(t *testing.T) {
	g := NewTaskSheetGenerator(t.TempDir(), "")
	if _, err := g.GenerateTaskSheet(&models.TaskDetail{}); err == nil {
		t.Fatal("expected error")
	}
}
