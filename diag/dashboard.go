package diag

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arctir/schedcore/proc"
)

const (
	processesPath     = "/process/"
	processesTreePath = "/tree/"
)

// Dashboard serves a live HTML view of a process table over HTTP: an
// all-processes listing, a per-process field dump, and a parent-chain
// tree view. It reads the table the same way ProcDump does, racily and
// without per-slot locks.
type Dashboard struct {
	table      *proc.Table
	policyName string

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewDashboard returns a Dashboard over table, labelling pages with
// policyName.
func NewDashboard(table *proc.Table, policyName string) *Dashboard {
	return &Dashboard{table: table, policyName: policyName, lastRefresh: time.Now()}
}

// ListenAndServe registers the dashboard's handlers and blocks serving
// HTTP on addr (e.g. ":8080").
func (d *Dashboard) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handleAllProcesses)
	mux.HandleFunc("/refresh", d.handleRefresh)
	mux.HandleFunc(processesPath, d.handleProcessDetails)
	mux.HandleFunc(processesTreePath, d.handleProcessTree)
	log.Printf("diag: dashboard serving at %s", addr)
	return http.ListenAndServe(addr, mux)
}

type allProcessesData struct {
	LastRefresh time.Time
	Policy      string
	Processes   []proc.Snapshot
}

func (d *Dashboard) snapshots() []proc.Snapshot {
	var out []proc.Snapshot
	for i := 0; i < d.table.NumSlots(); i++ {
		s := d.table.Slot(i).Snapshot()
		if s.State == proc.Unused {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (d *Dashboard) handleAllProcesses(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	data := allProcessesData{
		LastRefresh: d.lastRefresh,
		Policy:      d.policyName,
		Processes:   d.snapshots(),
	}
	d.mu.Unlock()

	t, err := createTemplate(allProcessesView)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, data); err != nil {
		writeFailure(w, err)
	}
}

func (d *Dashboard) handleRefresh(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.lastRefresh = time.Now()
	d.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (d *Dashboard) handleProcessDetails(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, processesPath))
	if err != nil {
		writeFailure(w, err)
		return
	}
	p := d.table.Lookup(pid)
	if p == nil {
		writeFailure(w, fmt.Errorf("no process with pid %d", pid))
		return
	}
	t, err := createTemplate(viewProcessDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, p.Snapshot()); err != nil {
		writeFailure(w, err)
	}
}

func (d *Dashboard) handleProcessTree(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, processesTreePath))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if d.table.Lookup(pid) == nil {
		writeFailure(w, fmt.Errorf("no process with pid %d", pid))
		return
	}
	chain := d.parentChain(pid)
	t, err := createTemplate(viewTreeDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, chain); err != nil {
		writeFailure(w, err)
	}
}

// parentChain walks from pid up through ParentPID links, returning the
// snapshot chain from pid to its most distant known ancestor.
func (d *Dashboard) parentChain(pid int) []proc.Snapshot {
	var chain []proc.Snapshot
	seen := map[int]bool{}
	for pid != 0 && !seen[pid] {
		p := d.table.Lookup(pid)
		if p == nil {
			break
		}
		s := p.Snapshot()
		chain = append(chain, s)
		seen[pid] = true
		pid = s.ParentPID
	}
	return chain
}

// snapshotField is one rendered row of a process's field dump.
type snapshotField struct {
	Field string
	Value string
}

// snapshotFields reflects over a proc.Snapshot's exported fields for
// the detail view -- the same generic, reflection-driven field walk
// the original dashboard used for its process struct.
func snapshotFields(s proc.Snapshot) []snapshotField {
	var out []snapshotField
	t := reflect.TypeOf(s)
	v := reflect.ValueOf(s)
	for i := 0; i < t.NumField(); i++ {
		out = append(out, snapshotField{
			Field: t.Field(i).Name,
			Value: fmt.Sprintf("%v", v.Field(i).Interface()),
		})
	}
	return out
}

func createTemplate(body string) (*template.Template, error) {
	return template.New("response").
		Funcs(template.FuncMap{"snapshotFields": snapshotFields}).
		Parse(dashboardHeader + body + dashboardFooter)
}

func writeFailure(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	t, tErr := createTemplate(errorView)
	if tErr != nil {
		return
	}
	t.Execute(w, err.Error())
}
