// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

// commandFlags records the handling metadata xdebug keeps alongside each
// entry of its dbgp_commands[] table.
type commandFlags struct {
	// postMortem means the command stays available once the session has
	// entered "stopping" (e.g. stack_get after the script has ended).
	postMortem bool
	// continues means the command resumes execution: status moves to
	// "running" before the handler hands control to the runtime.
	continues bool
}

// commandEntry pairs a command's dispatch flags with its handler.
type commandEntry struct {
	flags   commandFlags
	handler func(s *SessionController, cmd *dbgpCmd) (string, error)
}

// commandTable is the static dispatch table, keyed by DBGp command name.
// It is built once in init() and never mutated, matching xdebug's static
// dbgp_commands[] array.
var commandTable map[string]commandEntry

func init() {
	commandTable = map[string]commandEntry{
		"status":                    {commandFlags{postMortem: true}, (*SessionController).handleStatus},
		"feature_get":               {commandFlags{postMortem: true}, (*SessionController).handleFeatureGet},
		"feature_set":               {commandFlags{postMortem: true}, (*SessionController).handleFeatureSet},
		"run":                       {commandFlags{continues: true}, (*SessionController).handleRun},
		"step_into":                 {commandFlags{continues: true}, (*SessionController).handleStepInto},
		"step_over":                 {commandFlags{continues: true}, (*SessionController).handleStepOver},
		"step_out":                  {commandFlags{continues: true}, (*SessionController).handleStepOut},
		"stop":                      {commandFlags{postMortem: true}, (*SessionController).handleStop},
		"detach":                    {commandFlags{postMortem: true}, (*SessionController).handleDetach},
		"breakpoint_set":            {commandFlags{}, (*SessionController).handleBreakpointSet},
		"breakpoint_get":            {commandFlags{postMortem: true}, (*SessionController).handleBreakpointGet},
		"breakpoint_update":         {commandFlags{postMortem: true}, (*SessionController).handleBreakpointUpdate},
		"breakpoint_remove":         {commandFlags{postMortem: true}, (*SessionController).handleBreakpointRemove},
		"breakpoint_list":           {commandFlags{postMortem: true}, (*SessionController).handleBreakpointList},
		"stack_depth":               {commandFlags{postMortem: true}, (*SessionController).handleStackDepth},
		"stack_get":                 {commandFlags{postMortem: true}, (*SessionController).handleStackGet},
		"context_names":             {commandFlags{postMortem: true}, (*SessionController).handleContextNames},
		"context_get":               {commandFlags{postMortem: true}, (*SessionController).handleContextGet},
		"property_get":              {commandFlags{postMortem: true}, (*SessionController).handlePropertyGet},
		"property_set":              {commandFlags{postMortem: true}, (*SessionController).handlePropertySet},
		"property_value":            {commandFlags{}, (*SessionController).handlePropertyValue},
		"eval":                      {commandFlags{postMortem: true}, (*SessionController).handleEval},
		"source":                    {commandFlags{postMortem: true}, (*SessionController).handleSource},
		"stdout":                    {commandFlags{postMortem: true}, (*SessionController).handleStdout},
		"stderr":                    {commandFlags{postMortem: true}, (*SessionController).handleStderr},
		"typemap_get":               {commandFlags{postMortem: true}, (*SessionController).handleTypemapGet},
		"xcmd_profiler_name_get":    {commandFlags{postMortem: true}, (*SessionController).handleProfilerNameGet},
		"xcmd_get_executable_lines": {commandFlags{}, (*SessionController).handleGetExecutableLines},
	}
}

// lookupCommand returns the table entry for name, or false if it is not a
// command this adapter recognizes at all (the dispatcher answers such a
// name with ErrUnimplemented).
func lookupCommand(name string) (commandEntry, bool) {
	e, ok := commandTable[name]
	return e, ok
}
