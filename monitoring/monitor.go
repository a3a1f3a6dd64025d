// Package monitoring turns a cache model into a web server, serving the
// visualization dashboard and exposing the model's configure/access/reset
// operations over a REST API.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachevis/cache"
	"github.com/sarchlab/cachevis/insts"
	"github.com/sarchlab/cachevis/monitoring/web"
)

// Monitor serves a cache model over HTTP. The model resolves one access at
// a time, so the monitor serializes all state-touching requests behind one
// lock.
type Monitor struct {
	modelLock sync.Mutex
	model     *cache.Cache

	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor around a configured cache model.
func NewMonitor(model *cache.Cache) *Monitor {
	return &Monitor{model: model}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the dashboard in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// StartServer starts serving the dashboard and the API. It returns after
// the listener is up; serving continues in the background.
func (m *Monitor) StartServer() {
	r := m.routes()
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving cache visualization at %s\n", url)

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) routes() *mux.Router {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/configure", m.configure).Methods(http.MethodPost)
	r.HandleFunc("/api/access", m.access).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/inspect", m.inspect)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

type configureReq struct {
	Mode      string `json:"mode"`
	CacheSize int    `json:"cache_size"`
	BlockSize int    `json:"block_size"`
	Assoc     int    `json:"assoc"`
}

func (m *Monitor) configure(w http.ResponseWriter, r *http.Request) {
	req := configureReq{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	mode, err := cache.ParseMode(req.Mode)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	g := cache.Geometry{
		NumLines:  req.CacheSize,
		BlockSize: req.BlockSize,
		Assoc:     req.Assoc,
	}

	m.modelLock.Lock()
	err = m.model.Configure(mode, g)
	m.modelLock.Unlock()

	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	m.state(w, r)
}

type accessReq struct {
	Command string `json:"command"`
}

type accessRsp struct {
	Inst   string             `json:"inst"`
	Result cache.AccessResult `json:"result"`
	State  cache.Snapshot     `json:"state"`
}

func (m *Monitor) access(w http.ResponseWriter, r *http.Request) {
	req := accessReq{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	inst, err := insts.Parse(req.Command)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	m.modelLock.Lock()
	result, err := m.model.Access(inst.Op, inst.Address)
	var snapshot cache.Snapshot
	if err == nil {
		snapshot = m.model.Snapshot()
	}
	m.modelLock.Unlock()

	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, accessRsp{
		Inst:   inst.String(),
		Result: result,
		State:  snapshot,
	})
}

func (m *Monitor) reset(w http.ResponseWriter, r *http.Request) {
	m.modelLock.Lock()
	m.model.Reset()
	m.modelLock.Unlock()

	m.state(w, r)
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	m.modelLock.Lock()
	snapshot := m.model.Snapshot()
	m.modelLock.Unlock()

	writeJSON(w, snapshot)
}

func (m *Monitor) inspect(w http.ResponseWriter, _ *http.Request) {
	m.modelLock.Lock()
	defer m.modelLock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.model)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(payload)
	dieOnErr(err)
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	fmt.Fprintf(w, "{\"error\":%q}", err.Error())
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
