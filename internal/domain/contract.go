package domain

import "fmt"

// ContractError marks a precondition failure caused by caller misuse rather
// than bad user input. It is raised via panic and is never expected at correct
// production call sites; the process-level recovery treats it as fatal.
type ContractError struct {
	Msg string
}

func (e *ContractError) Error() string { return "contract violation: " + e.Msg }

// Invariant panics with a ContractError when cond is false.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(&ContractError{Msg: fmt.Sprintf(format, args...)})
	}
}
