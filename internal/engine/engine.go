package engine

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/nnue"
)

// NumWorkers is the number of parallel search threads (matches CPU cores
// unless overridden by the UCI Threads option).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo is the data behind a UCI "info" line.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// SearchLimits constrains a single Search call.
type SearchLimits struct {
	Depth    int           // maximum depth (0 = no limit)
	Nodes    uint64        // maximum nodes (0 = no limit)
	MoveTime time.Duration // fixed time for this move (0 = no limit)
	Infinite bool          // search until Stop
}

// Engine owns the shared transposition table and a pool of search threads
// (Lazy SMP: every thread searches the same position to increasing depth,
// sharing only the TT). Each thread owns its own position copy, NNUE
// accumulator stack, and ordering heuristics.
type Engine struct {
	tt       *TranspositionTable
	searcher []*Searcher
	stopFlag atomic.Bool

	net *nnue.Network

	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition table sized ttSizeMB
// megabytes and one search thread per NumWorkers. weightsFile, if
// non-empty, is the NNUE weights file to load; otherwise search threads
// fall back to material-only evaluation.
func NewEngine(ttSizeMB int, weightsFile string) (*Engine, error) {
	tt := NewTranspositionTable(ttSizeMB)

	var net *nnue.Network
	if weightsFile != "" {
		net = nnue.NewNetwork()
		if err := net.LoadWeights(weightsFile); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		tt:  tt,
		net: net,
	}
	e.setThreadCount(NumWorkers)

	return e, nil
}

// newEvaluator builds an Evaluator for one search thread: the shared NNUE
// network when weights were loaded, otherwise the material-only fallback,
// so a no-weights configuration never runs on an untrained network.
func (e *Engine) newEvaluator() Evaluator {
	if e.net == nil {
		return materialEvaluator{}
	}
	return nnue.NewEvaluatorFromNetwork(e.net)
}

func (e *Engine) setThreadCount(n int) {
	if n < 1 {
		n = 1
	}
	e.searcher = make([]*Searcher, n)
	for i := range e.searcher {
		e.searcher[i] = NewSearcher(i, e.tt, e.newEvaluator(), &e.stopFlag)
	}
}

// SetThreads resizes the search thread pool; call only between searches.
func (e *Engine) SetThreads(n int) {
	log.Printf("[Engine] Resizing to %d threads", n)
	e.setThreadCount(n)
}

// Threads returns the current number of search threads.
func (e *Engine) Threads() int {
	return len(e.searcher)
}

// Resize replaces the transposition table with one of the given size,
// discarding its contents.
func (e *Engine) Resize(ttSizeMB int) {
	e.tt = NewTranspositionTable(ttSizeMB)
	for i, s := range e.searcher {
		e.searcher[i] = NewSearcher(s.id, e.tt, s.eval, &e.stopFlag)
	}
}

// Clear empties the transposition table and clears every thread's killer
// and counter-move tables, halving its history scores (see MoveOrderer.Clear).
func (e *Engine) Clear() {
	e.tt.Clear()
	for _, s := range e.searcher {
		s.orderer.Clear()
	}
}

// Stop signals all running searches to return their best result so far.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Perft counts the leaf nodes at depth below pos, for move-generator
// verification; not evaluated, not search, no TT involvement.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move)
	}
	return nodes
}

// Evaluate returns a static evaluation of pos with a fresh accumulator,
// using the NNUE network if one is loaded or the material fallback otherwise.
func (e *Engine) Evaluate(pos *board.Position) int {
	ev := e.newEvaluator()
	ev.Refresh(pos)
	return ev.Evaluate(pos)
}

// Nodes returns the total node count across all search threads, as of the
// most recently completed or currently running search.
func (e *Engine) Nodes() uint64 {
	return e.totalNodes()
}

// Search runs a search bounded only by limits (used by "go depth N" /
// "go movetime N" / "go infinite"; see SearchWithUCILimits for tournament
// time controls).
func (e *Engine) Search(pos *board.Position, limits SearchLimits) board.Move {
	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = time.Now().Add(limits.MoveTime)
	}
	return e.run(pos, limits.Depth, limits.Nodes, deadline, nil)
}

// SearchWithUCILimits runs a search governed by UCI tournament time
// control (wtime/btime/winc/binc/movestogo), using soft/hard deadlines
// derived by TimeManager.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	maxDepth := limits.Depth
	if maxDepth <= 0 {
		maxDepth = MaxPly
	}
	return e.run(pos, maxDepth, limits.Nodes, time.Time{}, tm)
}

// run is the shared iterative-deepening driver for both Search entry
// points: the root thread (searcher 0) walks depths 1..maxDepth with
// aspiration windows and reports info; the remaining threads race it at
// the same depths (Lazy SMP), contributing only through the shared TT.
func (e *Engine) run(pos *board.Position, maxDepth int, nodeLimit uint64, deadline time.Time, tm *TimeManager) board.Move {
	if maxDepth <= 0 || maxDepth > MaxPly {
		maxDepth = MaxPly
	}

	e.stopFlag.Store(false)
	e.tt.NewSearch()

	if hardTimer := e.armHardStop(deadline, tm); hardTimer != nil {
		defer hardTimer.Stop()
	}

	for _, s := range e.searcher {
		s.Reset(pos)
	}

	var wg sync.WaitGroup
	for i := 1; i < len(e.searcher); i++ {
		wg.Add(1)
		go func(s *Searcher) {
			defer wg.Done()
			e.helperLoop(s, maxDepth)
		}(e.searcher[i])
	}

	main := e.searcher[0]
	startTime := time.Now()
	var bestMove board.Move
	var bestScore int
	prevScore := 0

	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() {
			break
		}

		move, score := e.searchDepthWithAspiration(main, depth, prevScore)
		if e.stopFlag.Load() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			prevScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				SelDepth: main.SelDepth(),
				Score:    bestScore,
				Nodes:    e.totalNodes(),
				Time:     time.Since(startTime),
				PV:       main.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-MaxPly || bestScore < -MateScore+MaxPly {
			break
		}
		if nodeLimit > 0 && e.totalNodes() >= nodeLimit {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if tm != nil && tm.PastOptimum() {
			break
		}
	}

	e.stopFlag.Store(true)
	wg.Wait()

	return bestMove
}

// helperLoop runs plain full-width iterative deepening for a non-root Lazy
// SMP thread: it never reports info or decides when to stop, only
// populates the shared TT with results the root thread's probes benefit
// from.
func (e *Engine) helperLoop(s *Searcher, maxDepth int) {
	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() {
			return
		}
		s.SearchDepth(depth, -Infinity, Infinity)
	}
}

const (
	aspirationDelta    = 25
	aspirationWideFull = 1000
)

// searchDepthWithAspiration runs one root iteration with the aspiration
// window scheme: start narrow around the previous iteration's score,
// widen on fail-low/fail-high, and fall back to a full-width search once
// the window has grown past aspirationWideFull.
func (e *Engine) searchDepthWithAspiration(s *Searcher, depth, prevScore int) (board.Move, int) {
	if depth < 5 || prevScore == 0 {
		return s.SearchDepth(depth, -Infinity, Infinity)
	}

	delta := aspirationDelta
	alpha := prevScore - delta
	beta := prevScore + delta
	if alpha < -Infinity {
		alpha = -Infinity
	}
	if beta > Infinity {
		beta = Infinity
	}

	for {
		move, score := s.SearchDepth(depth, alpha, beta)
		if e.stopFlag.Load() {
			return move, score
		}

		if score <= alpha {
			beta = (alpha + beta) / 2
			delta += delta / 2
			alpha = prevScore - delta
		} else if score >= beta {
			delta += delta / 2
			beta = prevScore + delta
		} else {
			return move, score
		}

		if delta >= aspirationWideFull {
			alpha, beta = -Infinity, Infinity
		} else {
			if alpha < -Infinity {
				alpha = -Infinity
			}
			if beta > Infinity {
				beta = Infinity
			}
		}
	}
}

func (e *Engine) totalNodes() uint64 {
	var total uint64
	for _, s := range e.searcher {
		total += s.Nodes()
	}
	return total
}

// armHardStop starts a timer that forces e.stopFlag once the hard deadline
// passes — either the movetime deadline or tm's hard budget. negamax and
// quiescence only poll stopFlag periodically via Searcher.stopped, so
// without this an in-flight deep iteration would run to completion
// regardless of the clock. Returns nil for an untimed search.
func (e *Engine) armHardStop(deadline time.Time, tm *TimeManager) *time.Timer {
	var hard time.Time
	switch {
	case tm != nil && !tm.untimed:
		hard = tm.startTime.Add(tm.hard)
	case !deadline.IsZero():
		hard = deadline
	default:
		return nil
	}

	remaining := time.Until(hard)
	if remaining <= 0 {
		e.stopFlag.Store(true)
		return nil
	}
	return time.AfterFunc(remaining, func() { e.stopFlag.Store(true) })
}
