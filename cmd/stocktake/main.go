package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stocktake/internal"
	"stocktake/internal/config"
	"stocktake/internal/engine"
	"stocktake/internal/journal"
	"stocktake/internal/remote"
	"stocktake/internal/report"
	"stocktake/internal/server"
	"stocktake/internal/session"
	"stocktake/internal/store"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logrus.New()
	st := store.New(cfg.InventoryPath, cfg.InventoryDelimiter)
	jr := journal.New(cfg.JournalPath)
	sess := session.NewContext(cfg.SessionHistorySize)
	client := remote.NewClient(cfg, log)
	eng := engine.New(cfg, st, client, jr, sess.Ledger, log)

	cmd := os.Args[1]
	switch cmd {
	case "inventory:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "inventory file (.csv or .xlsx)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		content, err := os.ReadFile(*file)
		must(err)
		rows, err := store.ParseUpload(*file, content)
		must(err)
		required := []string{store.ColBarcode}
		if cfg.RemoteEnabled() {
			required = append(required, store.ColExternalID)
		}
		must(st.Replace(rows, required))
		stats := st.Stats()
		fmt.Printf("inventory loaded: %d rows\n", stats.Total)

	case "inventory:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output csv path")
		_ = fs.Parse(os.Args[2:])
		must(st.Load())
		path := *out
		if strings.TrimSpace(path) == "" {
			path = fmt.Sprintf("inventory_%s.csv", time.Now().Format("20060102_1504"))
		}
		f, err := os.Create(path)
		must(err)
		err = st.Export(f)
		_ = f.Close()
		must(err)
		fmt.Printf("inventory exported to %s\n", path)

	case "status":
		must(st.Load())
		stats := st.Stats()
		progress := 0.0
		if stats.Total > 0 {
			progress = 100 * float64(stats.Counted) / float64(stats.Total)
		}
		fmt.Printf("products: %d\ncounted:  %d / %d (%.1f%%)\n", stats.Total, stats.Counted, stats.Total, progress)

	case "scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		code := fs.String("code", "", "barcode")
		name := fs.String("name", "", "name search term")
		_ = fs.Parse(os.Args[2:])
		must(st.Load())
		resolved, err := lookup(eng, *code, *name)
		must(err)
		printResolved(resolved)

	case "count":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		code := fs.String("code", "", "barcode")
		name := fs.String("name", "", "name search term")
		qty := fs.Int("qty", -1, "physically counted quantity")
		yes := fs.Bool("yes", false, "submit the adjustment for a nonzero delta")
		_ = fs.Parse(os.Args[2:])
		if *qty < 0 {
			must(fmt.Errorf("--qty must be a non-negative integer"))
		}
		must(st.Load())

		resolved, err := lookup(eng, *code, *name)
		must(err)
		printResolved(resolved)

		decision := eng.Decide(resolved, *qty)
		fmt.Printf("counted:  %d  delta: %+g  (%s, %s)\n",
			decision.CountedQuantity, decision.Delta, decision.Kind, decision.Magnitude)

		if decision.Kind == internal.KindMatch {
			must(eng.RecordNoOp(resolved, *qty))
			fmt.Println("count matches, recorded locally")
			return
		}
		if !*yes {
			fmt.Println("nonzero delta; re-run with --yes to submit the adjustment")
			return
		}
		result, err := eng.Confirm(context.Background(), resolved, decision)
		if errors.Is(err, engine.ErrNoExternalID) {
			must(eng.RecordNoOp(resolved, *qty))
			fmt.Println("no external id to reconcile against; count recorded locally only")
			return
		}
		must(err)
		fmt.Printf("adjustment submitted: delta=%+g new quantity=%d\n", result.SubmittedDelta, result.NewQuantity)

	case "journal:list":
		entries, err := jr.All()
		must(err)
		if len(entries) == 0 {
			fmt.Println("journal is empty")
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %-16s %-6s %g -> %g (delta %+g) %s\n",
				e.Timestamp.Format(time.RFC3339), e.Barcode, e.Direction,
				e.QuantityBefore, e.QuantityAfter, e.Delta, e.DisplayName)
		}

	case "report:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		must(st.Load())
		must(report.WriteXLSX(st.Records(), *out))
		fmt.Printf("report written to %s\n", *out)

	case "serve":
		if err := st.Load(); err != nil && !errors.Is(err, store.ErrNotLoaded) {
			must(err)
		}
		srv := server.New(cfg, st, eng, jr, sess, log)
		must(srv.ListenAndServe())

	default:
		usage()
		os.Exit(1)
	}
}

func lookup(eng *engine.Engine, code, name string) (*internal.ResolvedProduct, error) {
	term, mode := code, engine.ByBarcode
	if strings.TrimSpace(code) == "" {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--code or --name is required")
		}
		term, mode = name, engine.ByName
	}

	resolved, err := eng.Lookup(context.Background(), term, mode)
	var ambiguous *engine.AmbiguousError
	if errors.As(err, &ambiguous) {
		fmt.Printf("%q matches several products:\n", ambiguous.Term)
		for _, c := range ambiguous.Candidates {
			fmt.Printf("  %-16s %s\n", c.Barcode, c.DisplayName)
		}
		return nil, fmt.Errorf("narrow the search or scan a barcode")
	}
	return resolved, err
}

func printResolved(resolved *internal.ResolvedProduct) {
	name := resolved.Snapshot.Name
	if name == "" {
		name = resolved.Record.DisplayName
	}
	fmt.Printf("product:  %s (barcode %s)\n", name, resolved.Record.Barcode)
	fmt.Printf("expected: %g units\n", resolved.Snapshot.AvailableQuantity)
	if resolved.Record.Counted() {
		fmt.Printf("warning: already counted this cycle (%s units)\n", resolved.Record.LastCountedQuantity)
	}
}

func usage() {
	fmt.Println("usage: stocktake <command>")
	fmt.Println("commands:")
	fmt.Println("  inventory:load   --file=inventory.csv|.xlsx")
	fmt.Println("  inventory:export [--out=inventory.csv]")
	fmt.Println("  status")
	fmt.Println("  scan             --code=... | --name=...")
	fmt.Println("  count            --code=... --qty=N [--yes]")
	fmt.Println("  journal:list")
	fmt.Println("  report:xlsx      --out=report.xlsx")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
