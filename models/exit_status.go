package models

import "fmt"

// ExitStatus is returned from a handler or engine run when the guest exits.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}
