// inspect-session prints stored interview sessions for debugging. With no
// arguments it lists stored session ids; with an id it dumps the full
// persisted document.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/intervue/interview-service/config"
	"github.com/intervue/interview-service/repository"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	repo, err := repository.New(cfg.Session.DataDir)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}

	if flag.NArg() == 0 {
		ids, err := repo.ListSessions()
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		if len(ids) == 0 {
			fmt.Println("no stored sessions")
			return
		}
		for _, id := range ids {
			s, err := repo.Load(id)
			if err != nil || s == nil {
				fmt.Printf("%s  (unreadable)\n", id)
				continue
			}
			fmt.Printf("%s  state=%s  questions=%d  exchanges=%d\n",
				id, s.State, s.QuestionsGenerated, s.ExchangesCompleted())
		}
		return
	}

	id := flag.Arg(0)
	s, err := repo.Load(id)
	if err != nil {
		log.Fatalf("Failed to load session %s: %v", id, err)
	}
	if s == nil {
		fmt.Printf("session not found: %s\n", id)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render session %s: %v", id, err)
	}
	fmt.Println(string(out))
}
