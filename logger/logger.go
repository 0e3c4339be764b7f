// Package logger implements the user-facing output of spec section 6:
// one structured line per per-stripe incident, and a final summary
// line. Adapted from the teacher's cmd/logger/logger.go — same
// leveled/colorized/JSON-mode design, re-themed around scrub's own
// error taxonomy instead of S3 request/bucket/object fields.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/minio/mc/pkg/console"
)

var (
	colorBold = color.New(color.Bold).SprintFunc()
	colorRed  = color.New(color.FgRed).SprintfFunc()
)

// Level mirrors the teacher's Error/Fatal split.
type Level int8

const (
	Error Level = iota + 1
	Fatal
)

func (l Level) String() string {
	if l == Fatal {
		return "FATAL"
	}
	return "ERROR"
}

var (
	quiet, jsonFlag bool
)

// EnableQuiet turns off Println/Printf startup chatter, leaving only
// block errors and the summary.
func EnableQuiet() { quiet = true }

// EnableJSON switches block-error and fatal output to one JSON object
// per line; the summary line stays plain text.
func EnableJSON() {
	jsonFlag = true
	quiet = true
}

// Println wraps console.Println, honoring the quiet flag.
func Println(args ...interface{}) {
	if !quiet {
		console.Println(args...)
	}
}

// Printf wraps console.Printf, honoring the quiet flag.
func Printf(format string, args ...interface{}) {
	if !quiet {
		console.Printf(format, args...)
	}
}

type blockErrorEntry struct {
	Time  string `json:"time"`
	Index uint32 `json:"index"`
	Scope string `json:"scope"`
	Path  string `json:"path,omitempty"`
	Kind  string `json:"kind"`
	Pos   int64  `json:"pos"`
}

// Log is the concrete scrub.Logger: one line per incident in the
// error:<index>:<scope>:<path>: <kind> at position <pos> shape spec
// section 6 requires, plus the final summary line.
type Log struct{}

// BlockError emits one incident line.
func (Log) BlockError(index uint32, scope, path, kind string, pos int64) {
	if jsonFlag {
		b, err := json.Marshal(blockErrorEntry{
			Time:  time.Now().UTC().Format(time.RFC3339Nano),
			Index: index,
			Scope: scope,
			Path:  path,
			Kind:  kind,
			Pos:   pos,
		})
		if err != nil {
			panic("logger: json marshal of blockErrorEntry failed: " + err.Error())
		}
		fmt.Println(string(b))
		return
	}
	fmt.Println(colorRed("error:%d:%s:%s: %s at position %d", index, scope, path, kind, pos))
}

// Summary emits the final "N read/data errors" / "M silent errors" /
// "No error" line. Per spec section 6 it is only ever called when
// countPos > 0 — the caller (scrub.Orchestrator) enforces that.
func (Log) Summary(countPos, errorCount, silentError uint32) {
	if errorCount == 0 && silentError == 0 {
		fmt.Println(colorBold("No error"))
		return
	}
	fmt.Printf("%d read/data errors\n", errorCount)
	if silentError > 0 {
		fmt.Println(colorRed("%d silent errors", silentError))
	}
}

// FatalIf prints msg and err, then exits the process. The CLI uses it
// for fatal startup failures: loading the configuration or catalog,
// decoding the hash seed, opening the parity or qarity file, and
// building the catalog mirror. The empty-array condition is not routed
// here; it comes back as an error from the orchestrator's Run.
func FatalIf(err error, msg string, data ...interface{}) {
	if err == nil {
		return
	}
	message := fmt.Sprintf(msg, data...)
	timeOfError := time.Now().UTC().Format(time.RFC3339Nano)
	if jsonFlag {
		b, merr := json.Marshal(struct {
			Level string `json:"level"`
			Time  string `json:"time"`
			Cause string `json:"cause"`
			Msg   string `json:"message"`
		}{Level: Fatal.String(), Time: timeOfError, Cause: err.Error(), Msg: message})
		if merr != nil {
			panic(merr)
		}
		fmt.Println(string(b))
		os.Exit(1)
	}
	fmt.Println(colorRed(colorBold(fmt.Sprintf("[%s] [%s] %s (%s)", timeOfError, Fatal.String(), message, err.Error()))))
	os.Exit(1)
}
