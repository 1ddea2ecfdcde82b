package engine

import "testing"

func TestCommandTableCoversEveryDbgpCommand(t *testing.T) {
	want := []string{
		"status", "feature_get", "feature_set",
		"run", "step_into", "step_over", "step_out",
		"stop", "detach",
		"breakpoint_set", "breakpoint_get", "breakpoint_update", "breakpoint_remove", "breakpoint_list",
		"stack_depth", "stack_get",
		"context_names", "context_get",
		"property_get", "property_set",
		"eval", "source",
		"stdout", "stderr",
	}
	for _, name := range want {
		if _, ok := lookupCommand(name); !ok {
			t.Errorf("commandTable missing entry for %q", name)
		}
	}
}

func TestLookupCommandUnknownIsNotOK(t *testing.T) {
	if _, ok := lookupCommand("not_a_real_command"); ok {
		t.Error("lookupCommand should report false for a name the adapter doesn't recognize")
	}
}

func TestPostMortemCommandsStayAvailableAfterStopping(t *testing.T) {
	postMortem := []string{"status", "feature_get", "feature_set", "stop", "detach", "stack_get", "eval"}
	for _, name := range postMortem {
		e, ok := lookupCommand(name)
		if !ok {
			t.Fatalf("missing %q", name)
		}
		if !e.flags.postMortem {
			t.Errorf("%q should be marked postMortem", name)
		}
	}
}

func TestContinuesCommandsResumeExecution(t *testing.T) {
	continues := []string{"run", "step_into", "step_over", "step_out"}
	for _, name := range continues {
		e, ok := lookupCommand(name)
		if !ok {
			t.Fatalf("missing %q", name)
		}
		if !e.flags.continues {
			t.Errorf("%q should be marked continues", name)
		}
	}
}
