// Command mpc-run drives a quick multi-party computation across a roster
// of player servers: the first server leads, every server contributes one
// row of data, and the per-player results are printed as JSON.
//
// # Usage
//
//	go run ./cmd/mpc-run \
//	  --servers=http://p0:9876,http://p1:9876,http://p2:9876 \
//	  --program=overlap --source=program.mpc \
//	  --data='[[1],[2],[3]]'
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cosmian/scs/mpc"
)

func main() {
	var (
		serverList  = flag.String("servers", "", "Comma-separated player server URLs, leader first (at least 3)")
		programName = flag.String("program", "", "Program name")
		sourcePath  = flag.String("source", "", "Path to the program source (optional)")
		dataJSON    = flag.String("data", "", "JSON array with one data row per player")
		timeout     = flag.Duration("timeout", 60*time.Second, "Bound on each status wait")
	)
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	servers := strings.Split(*serverList, ",")
	if *serverList == "" || *programName == "" || *dataJSON == "" {
		fmt.Fprintln(os.Stderr, "usage: mpc-run --servers=... --program=... --data=...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var data [][]any
	if err := json.Unmarshal([]byte(*dataJSON), &data); err != nil {
		log.Fatal("invalid --data", zap.Error(err))
	}

	program := mpc.Program{Name: *programName}
	if *sourcePath != "" {
		source, err := os.ReadFile(*sourcePath)
		if err != nil {
			log.Fatal("reading program source", zap.Error(err))
		}
		program.Source = string(source)
	}

	coordinator, err := mpc.NewCoordinator(servers,
		mpc.WithWaitTimeout(*timeout),
		mpc.WithLogger(log))
	if err != nil {
		log.Fatal("building coordinator", zap.Error(err))
	}

	result, err := coordinator.QuickRun(program, data)
	if err != nil {
		log.Fatal("computation failed", zap.Error(err))
	}

	if result.DebugOutput != "" {
		fmt.Fprintln(os.Stderr, result.DebugOutput)
	}
	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		log.Fatal("encoding results", zap.Error(err))
	}
	fmt.Println(string(out))
}
