package chem

import (
	"fmt"
	"os"
	"strings"
)

// Task selects which set of mandatory engine parameters a calculation
// mode requires.
type Task int

const (
	TaskInteractive Task = iota
	TaskSinglePoint
	TaskFrequency
)

func (t Task) String() string {
	switch t {
	case TaskInteractive:
		return "interactive"
	case TaskSinglePoint:
		return "single-point"
	case TaskFrequency:
		return "frequency"
	default:
		return "unknown"
	}
}

// MandatoryParams returns the "KEY = VALUE" lines this task mode requires
// in the engine's input deck. Interactive mode in particular needs
// INTERACTIVE = .TRUE. plus a huge NSW so VASP keeps reading positions.
func (t Task) MandatoryParams() []string {
	switch t {
	case TaskInteractive:
		return []string{
			"EDIFFG = -1E-5",
			"NSW = 99999",
			"IBRION = -1",
			"NWRITE = 1",
			"NELMIN=10",
			"INTERACTIVE = .TRUE.",
			"LCHARG = .FALSE.",
			"LWAVE  = .FALSE.",
			"POTIM = 0",
			"ISYM = 0",
		}
	case TaskSinglePoint:
		return []string{
			"EDIFFG = -1E-5",
			"NSW = 0",
			"IBRION = -1",
			"NWRITE = 1",
			"INTERACTIVE = .FALSE.",
			"POTIM = 0",
			"ISYM = 0",
		}
	case TaskFrequency:
		return []string{
			"EDIFFG = -1E-5",
			"NSW = 1",
			"NFREE = 2",
			"POTIM = 0.015",
			"IBRION = 5",
			"INTERACTIVE = .FALSE.",
			"LCHARG = .FALSE.",
			"LWAVE  = .FALSE.",
		}
	default:
		return nil
	}
}

// UpdateMandatoryParams rewrites the config deck at path so that every key
// in params is present exactly once with the caller-supplied value: any
// existing "KEY = ..." line (case-insensitive on the key, '#'-comments
// excluded) whose key is a prefix match of one of params is dropped, then
// every param is appended.
//
// Returns the rewritten text; writing it back is the caller's job.
func UpdateMandatoryParams(path string, params []string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("chem: read config %s: %w", path, err)
	}

	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") && strings.Contains(trimmed, "=") {
			parts := strings.SplitN(trimmed, "=", 2)
			tag := strings.ToUpper(strings.TrimSpace(parts[0]))
			if mandatoryKeyMatches(tag, params) {
				continue
			}
		}
		kept = append(kept, line)
	}
	kept = append(kept, params...)
	return strings.Join(kept, "\n"), nil
}

func mandatoryKeyMatches(tag string, params []string) bool {
	for _, p := range params {
		paramTag := strings.ToUpper(strings.TrimSpace(strings.SplitN(p, "=", 2)[0]))
		if strings.HasPrefix(paramTag, tag) {
			return true
		}
	}
	return false
}

// RewriteForTask loads, rewrites, and writes back the config deck at path
// for the given Task, returning the list of parameter lines applied.
func RewriteForTask(path string, t Task) ([]string, error) {
	params := t.MandatoryParams()
	text, err := UpdateMandatoryParams(path, params)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("chem: write config %s: %w", path, err)
	}
	return params, nil
}
