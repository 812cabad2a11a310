package dataset

import (
	"strings"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
)

// Task identifies a challenge task.
type Task string

const (
	TaskMain Task = "MAIN"
	TaskSLU  Task = "SLU"
	TaskSAP  Task = "SAP"
	TaskSLG  Task = "SLG"
)

// ParseTask maps a case-insensitive task name to a Task.
func ParseTask(s string) (Task, error) {
	switch t := Task(strings.ToUpper(strings.TrimSpace(s))); t {
	case TaskMain, TaskSLU, TaskSAP, TaskSLG:
		return t, nil
	}
	return "", cerrors.NewUnsupported("task", s+" is not one of MAIN, SLU, SAP, SLG")
}

// Role is the speaker role a pilot-task system plays.
type Role string

const (
	RoleGuide   Role = "GUIDE"
	RoleTourist Role = "TOURIST"
)

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleGuide, RoleTourist:
		return r, nil
	}
	return "", cerrors.NewUnsupported("roletype", s+" is not one of GUIDE, TOURIST")
}

// Speaker returns the speaker name used in the corpus, "Guide" or
// "Tourist".
func (r Role) Speaker() string {
	switch r {
	case RoleGuide:
		return "Guide"
	case RoleTourist:
		return "Tourist"
	}
	return ""
}

// Speaks reports whether speaker is this role.
func (r Role) Speaks(speaker string) bool {
	return r != "" && strings.EqualFold(speaker, string(r))
}

// Files returns the log and label file names for a task and role.
func Files(task Task, role Role) (log, label string, err error) {
	switch task {
	case TaskMain, TaskSLU:
		return "log.json", "label.json", nil
	case TaskSAP, TaskSLG:
		if role != RoleGuide && role != RoleTourist {
			return "", "", cerrors.NewUnsupported("roletype", "task "+string(task)+" needs GUIDE or TOURIST")
		}
		prefix := strings.ToLower(string(task)) + "." + strings.ToLower(string(role))
		return prefix + ".in.json", prefix + ".label.json", nil
	}
	return "", "", cerrors.NewUnsupported("task", string(task))
}
