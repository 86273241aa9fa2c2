package command

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/locking"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("command")

// Command is a single operation of a session.
type Command interface {
	// Name is the lowercase name of the command, e.g. "open".
	Name() string
	// Databases adds the resources the command reads and writes to lr.
	Databases(lr *locking.LockResult)
	// Run executes the command. Output and notices are added to r.
	Run(s *core.Session, r *Result) error
}

// Validator is implemented by commands that can reject their arguments
// before any lock is acquired.
type Validator interface {
	Validate() error
}

// --------------------------------------------------------------------------
// Result
// --------------------------------------------------------------------------

// Result is the outcome of one command.
type Result struct {
	Info    string   // Status message of a successful command
	Notices []string // Advisories, the command still succeeded
	Output  []string // Lines produced by the command
	Err     error    // Failure, nil on success
}

func (r *Result) OK() bool {
	return r.Err == nil
}

// Message returns the error message on failure and the info otherwise.
func (r *Result) Message() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Info
}

func (r *Result) notice(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.Notices = append(r.Notices, msg)
	log.Infof("notice: %s", msg)
}

func (r *Result) print(format string, args ...interface{}) {
	r.Output = append(r.Output, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Execution
// --------------------------------------------------------------------------

// Execute runs cmd for s under the locks the command declares.
func Execute(s *core.Session, cmd Command) *Result {
	r := &Result{}

	if v, ok := cmd.(Validator); ok {
		if err := v.Validate(); err != nil {
			r.Err = err
			return r
		}
	}

	lr := locking.NewLockResult()
	cmd.Databases(lr)
	release := s.Context().Locks().Acquire(lr)
	defer release()

	start := time.Now()
	r.Err = cmd.Run(s, r)
	s.Context().Timer(cmd.Name()).UpdateSince(start)

	if r.Err != nil {
		log.Debugf("session %s: %s failed: %v", s.ID(), cmd.Name(), r.Err)
	}
	return r
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
