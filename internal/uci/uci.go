// Package uci implements the Universal Chess Interface protocol loop that
// drives an engine.Engine from stdin/stdout.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/engine"
	"github.com/kestrelchess/kestrel/internal/store"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	ply      int

	hashMB  int
	weights string

	store *store.Store

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	profileFile *os.File
}

// New creates a new UCI protocol handler around an already-constructed
// engine. db may be nil, in which case telemetry is simply not recorded.
// weights is the NNUE weights path the engine was built with, recorded
// alongside each search's telemetry.
func New(eng *engine.Engine, db *store.Store, weights string) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		hashMB:   16,
		weights:  weights,
		store:    db,
	}
}

// Run starts the UCI main loop, reading commands from stdin until "quit".
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

// handleUCI responds to the "uci" command with engine identity and options.
func (u *UCI) handleUCI() {
	fmt.Println("id name Kestrel")
	fmt.Println("id author Kestrel Authors")
	fmt.Println()
	fmt.Println("option name Hash type spin default 16 min 1 max 32768")
	fmt.Println("option name Threads type spin default 1 min 1 max 1024")
	fmt.Println("option name EvalFile type string default <empty>")
	fmt.Println("option name Clear Hash type button")
	fmt.Println("uciok")
}

// handleNewGame resets the engine's learned state for a new game and
// reports the telemetry accumulated across this and prior runs.
func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
	u.ply = 0

	if u.store != nil {
		if t, err := u.store.LoadTelemetry(); err == nil {
			fmt.Printf("info string telemetry: %d searches, %d positions searched, last network %q\n",
				t.TotalSearches, t.TotalPositionsSearch, t.LastNetworkPath)
		}
	}
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}

		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid FEN: %v\n", err)
			return
		}
		u.position = pos

		moveStart = len(args)
		for i := fenEnd; i < len(args); i++ {
			if args[i] == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	u.ply = 0
	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := u.parseMove(moveStr)
			if move == board.NoMove {
				fmt.Fprintf(os.Stderr, "info string invalid move: %s\n", moveStr)
				return
			}
			u.position.MakeMove(move)
			u.ply++
		}
	}
}

// parseMove converts a UCI move string to a board.Move legal in the current
// position, or board.NoMove if the string doesn't name a legal move.
func (u *UCI) parseMove(moveStr string) board.Move {
	m, err := board.ParseMove(moveStr, u.position)
	if err != nil {
		return board.NoMove
	}

	legal := u.position.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == m {
			return m
		}
	}
	return board.NoMove
}

// handleGo starts a search with the given "go" parameters.
func (u *UCI) handleGo(args []string) {
	limits := u.parseGoLimits(args)

	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()
	ply := u.ply

	go func() {
		defer close(u.searchDone)

		var move board.Move
		if limits.isUCITime {
			move = u.engine.SearchWithUCILimits(pos, limits.uci, ply)
		} else {
			move = u.engine.Search(pos, limits.plain)
		}

		u.searching = false

		if u.store != nil {
			if err := u.store.RecordSearch(u.engine.Nodes(), u.weights); err != nil {
				fmt.Fprintf(os.Stderr, "info string telemetry write failed: %v\n", err)
			}
		}

		if move == board.NoMove {
			fmt.Println("bestmove 0000")
			return
		}
		fmt.Printf("bestmove %s\n", move.String())
	}()
}

// goLimits holds the parsed form of a "go" command: either a plain
// SearchLimits (depth/nodes/movetime/infinite) or a UCI tournament time
// control, depending on which fields were given.
type goLimits struct {
	plain     engine.SearchLimits
	uci       engine.UCILimits
	isUCITime bool
}

func (u *UCI) parseGoLimits(args []string) goLimits {
	var g goLimits

	hasClock := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				d, _ := strconv.Atoi(args[i+1])
				g.plain.Depth = d
				g.uci.Depth = d
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				g.plain.Nodes = n
				g.uci.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				g.plain.MoveTime = time.Duration(ms) * time.Millisecond
				g.uci.MoveTime = g.plain.MoveTime
				i++
			}
		case "infinite":
			g.plain.Infinite = true
			g.uci.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				g.uci.Time[board.White] = time.Duration(ms) * time.Millisecond
				hasClock = true
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				g.uci.Time[board.Black] = time.Duration(ms) * time.Millisecond
				hasClock = true
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				g.uci.Inc[board.White] = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				g.uci.Inc[board.Black] = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				g.uci.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	g.isUCITime = hasClock && g.uci.MoveTime == 0
	return g
}

// sendInfo outputs search progress in UCI "info" format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	if info.SelDepth > 0 {
		parts = append(parts, fmt.Sprintf("seldepth %d", info.SelDepth))
	}

	if info.Score > engine.MateScore-engine.MaxPly {
		mateIn := (engine.MateScore - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		mateIn := -(engine.MateScore + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		pvStrs := make([]string, len(info.PV))
		for i, m := range info.PV {
			pvStrs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pvStrs, " "))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and blocks until it finishes.
func (u *UCI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

// handleQuit stops any search, closes profiling and the telemetry store,
// and exits. os.Exit bypasses the caller's deferred cleanup, so the store
// must be flushed here rather than left to main's defer.
func (u *UCI) handleQuit() {
	u.handleStop()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
	}
	if u.store != nil {
		u.store.Close()
	}
	os.Exit(0)
}

// handleSetOption processes "setoption name <name> value <value>" commands.
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err == nil && mb >= 1 {
			u.hashMB = mb
			u.engine.Resize(mb)
		}
	case "threads":
		n, err := strconv.Atoi(value)
		if err == nil && n >= 1 {
			u.engine.SetThreads(n)
		}
	case "clear hash":
		u.engine.Clear()
	case "evalfile":
		u.weights = value
		eng, err := engine.NewEngine(u.hashMB, u.weights)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string failed to load eval file %s: %v\n", value, err)
			return
		}
		eng.SetThreads(u.engine.Threads())
		u.engine = eng
	case "cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			u.profileFile = nil
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "info string failed to create profile: %v\n", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				fmt.Fprintf(os.Stderr, "info string failed to start profile: %v\n", err)
				return
			}
			u.profileFile = f
		}
	}
}

// handlePerft runs a perft node-count test from the current position (a
// non-standard but conventional UCI extension used by most engines),
// printing the divide breakdown — each root move's node count — followed
// by the grand total.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}

	start := time.Now()

	var total uint64
	if depth > 0 {
		moves := u.position.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			move := moves.Get(i)
			u.position.MakeMove(move)
			nodes := u.engine.Perft(u.position, depth-1)
			u.position.UnmakeMove(move)

			fmt.Printf("%s: %d\n", move.String(), nodes)
			total += nodes
		}
	} else {
		total = 1
	}

	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", total)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(total) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}
