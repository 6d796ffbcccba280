package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"stocktake/internal/config"
	"stocktake/internal/engine"
	"stocktake/internal/journal"
	"stocktake/internal/remote"
	"stocktake/internal/server"
	"stocktake/internal/session"
	"stocktake/internal/store"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logrus.New()

	st := store.New(cfg.InventoryPath, cfg.InventoryDelimiter)
	if err := st.Load(); err != nil && !errors.Is(err, store.ErrNotLoaded) {
		must(err)
	}

	jr := journal.New(cfg.JournalPath)
	sess := session.NewContext(cfg.SessionHistorySize)
	client := remote.NewClient(cfg, log)
	eng := engine.New(cfg, st, client, jr, sess.Ledger, log)

	srv := server.New(cfg, st, eng, jr, sess, log)
	must(srv.ListenAndServe())
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
