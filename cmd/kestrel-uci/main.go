// Command kestrel-uci runs the engine as a UCI chess engine, talking the
// protocol over stdin/stdout.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/kestrelchess/kestrel/internal/engine"
	"github.com/kestrelchess/kestrel/internal/store"
	"github.com/kestrelchess/kestrel/internal/uci"
)

// defaultNetworkFile is the NNUE weights file name auto-discovered on
// startup, mirroring the teacher's default big-network file name.
const defaultNetworkFile = "network.bin"

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 16, "transposition table size in MB")
	threads    = flag.Int("threads", 1, "number of search threads")
	evalFile   = flag.String("evalfile", "", "path to NNUE weights file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	weights := *evalFile
	if weights == "" {
		weights = autoDiscoverNetwork()
	}

	eng, err := engine.NewEngine(*hashMB, weights)
	if err != nil {
		log.Printf("warning: NNUE weights not loaded (%v), using material evaluation", err)
		weights = ""
		eng, err = engine.NewEngine(*hashMB, weights)
		if err != nil {
			log.Fatal("could not create engine: ", err)
		}
	}
	eng.SetThreads(*threads)

	db, err := store.Open()
	if err != nil {
		log.Printf("warning: persistent store unavailable (%v), telemetry is in-memory only", err)
		db = nil
	}
	if db != nil {
		if err := db.RecordStartup(weights); err != nil {
			log.Printf("warning: could not record startup telemetry: %v", err)
		}
	}

	protocol := uci.New(eng, db, weights)
	protocol.Run()
}

// autoDiscoverNetwork looks for a default-named NNUE weights file in a
// handful of conventional locations, returning "" (material evaluation) if
// none is found.
func autoDiscoverNetwork() string {
	searchPaths := []string{
		".",
		"./nnue",
		filepath.Join(getHomeDir(), ".kestrel", "nnue"),
	}

	for _, dir := range searchPaths {
		path := filepath.Join(dir, defaultNetworkFile)
		if fileExists(path) {
			return path
		}
	}

	return ""
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
