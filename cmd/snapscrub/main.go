// Command snapscrub is the CLI front end for the scrub engine: a
// single "scrub" command mapping to the options surface of spec
// section 6, plus a "status" subcommand that queries a running statusd
// server. Grounded on the teacher's own CLI library, minio/cli.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/cli"

	"github.com/arrayvault/snapscrub/catalog"
	"github.com/arrayvault/snapscrub/config"
	"github.com/arrayvault/snapscrub/diskset"
	"github.com/arrayvault/snapscrub/logger"
	"github.com/arrayvault/snapscrub/mirror"
	"github.com/arrayvault/snapscrub/parity"
	"github.com/arrayvault/snapscrub/progress"
	"github.com/arrayvault/snapscrub/raidcodec"
	"github.com/arrayvault/snapscrub/scrub"
	"github.com/arrayvault/snapscrub/statusd"
)

func main() {
	app := cli.NewApp()
	app.Name = "snapscrub"
	app.Usage = "background integrity scrubber for a snapshot-RAID array"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{scrubCommand, statusCommand}
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "quiet", Usage: "suppress startup chatter"},
		cli.BoolFlag{Name: "json", Usage: "emit logs as JSON"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("quiet") {
			logger.EnableQuiet()
		}
		if c.GlobalBool("json") {
			logger.EnableJSON()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var scrubCommand = cli.Command{
	Name:  "scrub",
	Usage: "verify data and parity blocks against the catalog",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "array topology YAML file", Value: "snapscrub.yaml"},
		cli.StringFlag{Name: "catalog", Usage: "catalog file path", Value: "snapscrub.catalog"},
		cli.Uint64Flag{Name: "autosave", Usage: "bytes between autosaves, 0 disables"},
		cli.Uint64Flag{Name: "force", Usage: "force an explicit stripe count regardless of age/quota"},
		cli.BoolFlag{Name: "force-even", Usage: "force a full even-index scrub (test aid)"},
		cli.BoolFlag{Name: "skip-sequential", Usage: "hint random access, skip readahead"},
		cli.BoolFlag{Name: "expect-recoverable", Usage: "invert the exit code: no errors found is a failure"},
		cli.StringFlag{Name: "status-addr", Usage: "address to serve /status and /metrics on, empty disables"},
	},
	Action: runScrub,
}

func runScrub(c *cli.Context) error {
	arr, err := config.Load(c.String("config"))
	if err != nil {
		logger.FatalIf(err, "failed to load array configuration")
	}

	cat, err := catalog.Load(c.String("catalog"))
	if err != nil {
		logger.FatalIf(err, "failed to load catalog")
	}

	seed, err := arr.HashSeed()
	if err != nil {
		logger.FatalIf(err, "invalid hash seed")
	}

	handles := make([]scrub.DiskHandle, len(arr.Disks))
	for i, d := range arr.Disks {
		handles[i] = diskset.NewHandle(d.Name, d.Root)
	}

	parityReaders := make([]scrub.ParityReader, 0, arr.Level)
	pReader, err := parity.Open("parity", arr.ParityPath, arr.BlockSize, c.Bool("skip-sequential"))
	if err != nil {
		logger.FatalIf(err, "failed to open parity file")
	}
	parityReaders = append(parityReaders, pReader)
	if arr.Level == 2 {
		qReader, err := parity.Open("qarity", arr.QarityPath, arr.BlockSize, c.Bool("skip-sequential"))
		if err != nil {
			logger.FatalIf(err, "failed to open qarity file")
		}
		parityReaders = append(parityReaders, qReader)
	}

	runID := uuid.NewString()
	logger.Printf("starting scrub run %s\n", runID)

	guard := statusd.NewGuard()
	if addr := c.String("status-addr"); addr != "" {
		srv := statusd.NewServer(guard)
		go func() {
			_ = http.ListenAndServe(addr, srv)
		}()
	}

	opts := scrub.Options{
		BlockSize:         arr.BlockSize,
		Level:             raidcodec.Level(arr.Level),
		HashSeed:          seed,
		Autosave:          c.Uint64("autosave"),
		ForceScrub:        uint32(c.Uint64("force")),
		ForceScrubEven:    c.Bool("force-even"),
		SkipSequential:    c.Bool("skip-sequential"),
		ExpectRecoverable: c.Bool("expect-recoverable"),
		Now:               time.Now().Unix(),
	}

	mir, err := mirror.New(arr.Mirror)
	if err != nil {
		logger.FatalIf(err, "failed to build catalog mirror")
	}

	report := progress.NewBar(nil)
	saver := &catalogSaver{cat: cat, path: c.String("catalog"), mirror: mir}

	orch := scrub.NewOrchestrator(cat, handles, parityReaders, opts, logger.Log{}, report, saver)
	guard.Update(func(s *statusd.Snapshot) { s.RunID = runID; s.Running = true; s.StartedAt = opts.Now })

	res, runErr := orch.Run()

	guard.Update(func(s *statusd.Snapshot) {
		s.Running = false
		s.CountPos, s.CountMax = res.CountPos, res.CountMax
		s.Error, s.SilentError = res.Error, res.SilentError
		s.FinishedAt = time.Now().Unix()
	})
	statusd.RecordRun(countBad(cat), cat.BlockMax, res.Error, res.SilentError, time.Now().Unix())

	if runErr != nil {
		return runErr
	}
	return saver.Save()
}

func countBad(cat *catalog.Catalog) uint32 {
	var bad uint32
	for _, w := range cat.UsedInfos() {
		if w.Bad {
			bad++
		}
	}
	return bad
}

// catalogSaver adapts catalog.Save to scrub.Saver for the autosave
// driver and the final implicit save. Every successful save is
// followed by a best-effort mirror upload (spec.md §4.14): a failed
// mirror upload is logged, never returned, since mirroring must not
// fail the scrub run.
type catalogSaver struct {
	cat    *catalog.Catalog
	path   string
	mirror *mirror.Mirror
}

func (s *catalogSaver) Save() error {
	if err := s.cat.Save(s.path); err != nil {
		return err
	}
	objectName := fmt.Sprintf("%s.%d", filepath.Base(s.path), time.Now().Unix())
	if err := s.mirror.Upload(context.Background(), s.path, objectName); err != nil {
		logger.Printf("mirror upload failed: %v\n", err)
	}
	return nil
}

var statusCommand = cli.Command{
	Name:  "status",
	Usage: "query a running snapscrub status server",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "addr", Usage: "statusd address", Value: "localhost:9542"},
	},
	Action: func(c *cli.Context) error {
		resp, err := http.Get(fmt.Sprintf("http://%s/status", c.String("addr")))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var snap statusd.Snapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			return err
		}
		fmt.Printf("running=%v block=%d count=%d/%d error=%d silent=%d\n",
			snap.Running, snap.BlockIndex, snap.CountPos, snap.CountMax, snap.Error, snap.SilentError)
		return nil
	},
}
