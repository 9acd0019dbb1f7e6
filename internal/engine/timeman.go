package engine

import (
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
)

// UCILimits holds the time-control fields of a UCI "go" command.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // moves until the next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time for this move, overrides everything else
	Depth     int              // maximum search depth (0 = no limit)
	Nodes     uint64           // maximum nodes (0 = no limit)
	Infinite  bool             // search until "stop"
}

const defaultMovesToGo = 20

// TimeManager derives a soft and hard deadline for the current search from
// the UCI time control: movetime, when given, is used as both; otherwise
// hard = remaining/movesToGo + increment and soft = 0.6*hard, with
// movesToGo defaulting to 20 for sudden-death controls.
type TimeManager struct {
	soft      time.Duration
	hard      time.Duration
	startTime time.Time
	untimed   bool
}

// NewTimeManager creates an uninitialized time manager; call Init before use.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the deadlines for a search as color us at game ply ply.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.startTime = time.Now()

	if limits.MoveTime > 0 {
		tm.soft = limits.MoveTime
		tm.hard = limits.MoveTime
		tm.untimed = false
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		tm.untimed = true
		return
	}
	tm.untimed = false

	movesToGo := limits.MovesToGo
	if movesToGo <= 0 {
		movesToGo = defaultMovesToGo
	}

	tm.hard = limits.Time[us]/time.Duration(movesToGo) + limits.Inc[us]
	tm.soft = tm.hard * 6 / 10

	if tm.hard > limits.Time[us] {
		tm.hard = limits.Time[us]
	}
}

// Elapsed returns the time elapsed since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// PastOptimum reports whether the soft deadline has passed — the point
// past which the search should finish its current iteration and stop
// rather than start another.
func (tm *TimeManager) PastOptimum() bool {
	if tm.untimed {
		return false
	}
	return tm.Elapsed() >= tm.soft
}
