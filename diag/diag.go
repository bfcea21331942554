// Package diag renders process-table diagnostics: a columnar listing
// (control-P's procdump, in the original) whose columns depend on the
// active scheduling policy, and a verbose per-process state dump for
// debugging. Both read the table racily, by design -- the per-slot
// lock is not acquired, matching the original's procdump.
package diag

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"github.com/arctir/schedcore/mlfq"
	"github.com/arctir/schedcore/proc"
)

// ProcDump renders a columnar listing of every non-UNUSED slot in t,
// in table order. The column set depends on policyName: RR and FCFS
// show the base columns; PBS adds its dynamic-priority bookkeeping;
// MLFQ adds one residence-count column per queue level.
func ProcDump(t *proc.Table, policyName string) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(headerFor(policyName))
	table.AppendBulk(rowsFor(t, policyName))
	table.Render()
	return buf.Bytes()
}

func headerFor(policyName string) []string {
	header := []string{"pid", "state", "name", "ctime", "rtime"}
	switch policyName {
	case "PBS":
		header = append(header, "pdynamic", "wtime", "ns")
	case "MLFQ":
		for level := 0; level < mlfq.NumLevels; level++ {
			header = append(header, fmt.Sprintf("q%d", level))
		}
	}
	return header
}

func rowsFor(t *proc.Table, policyName string) [][]string {
	var rows [][]string
	for i := 0; i < t.NumSlots(); i++ {
		p := t.Slot(i)
		s := p.Snapshot()
		if s.State == proc.Unused {
			continue
		}
		row := []string{
			strconv.Itoa(s.PID),
			s.State.String(),
			s.Name,
			strconv.FormatInt(s.CTime, 10),
			strconv.FormatInt(s.RTime, 10),
		}
		switch policyName {
		case "PBS":
			row = append(row,
				strconv.Itoa(s.PDynamic),
				strconv.FormatInt(s.WTime, 10),
				strconv.Itoa(s.NS),
			)
		case "MLFQ":
			for level := 0; level < mlfq.NumLevels; level++ {
				row = append(row, strconv.FormatInt(s.QCount[level], 10))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Dump renders a deep, field-by-field view of a single process's
// snapshot, for debugging a specific pid rather than scanning the
// whole table.
func Dump(t *proc.Table, pid int) string {
	p := t.Lookup(pid)
	if p == nil {
		return fmt.Sprintf("diag: no such pid %d", pid)
	}
	return spew.Sdump(p.Snapshot())
}
