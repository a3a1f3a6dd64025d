package replay

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/sarchlab/cachevis/cache"
	"github.com/sarchlab/cachevis/insts"
)

// TraceTableName is the table access traces are recorded into.
const TraceTableName = "cache_access_trace"

// An AccessTrace is one recorded row of a replay: the instruction, the
// address breakdown, and what the cache did with it. SetIndex is -1 in
// fully-associative mode.
type AccessTrace struct {
	RunID      string
	Step       uint64
	Op         string
	Register   string
	Address    int64
	Offset     uint64
	SetIndex   int
	Tag        uint64
	Outcome    string
	LineIndex  int
	Evicted    bool
	EvictedTag uint64
}

// A Replayer feeds instruction batches to one cache model, one access at a
// time, in program order. Instruction i+1 only ever observes the state left
// by instruction i.
type Replayer struct {
	model    *cache.Cache
	recorder DataRecorder

	tableCreated bool
}

// NewReplayer creates a Replayer around a configured cache model.
func NewReplayer(model *cache.Cache) *Replayer {
	return &Replayer{model: model}
}

// WithRecorder makes the replayer record every access into the given
// recorder.
func (r *Replayer) WithRecorder(rec DataRecorder) *Replayer {
	r.recorder = rec
	return r
}

// Run executes the program and returns the per-access reports in program
// order. A rejected instruction aborts the run; accesses already resolved
// keep their effect on the model (each access is atomic, the batch is not).
func (r *Replayer) Run(program []insts.Inst) ([]cache.AccessResult, error) {
	runID := xid.New().String()

	results := make([]cache.AccessResult, 0, len(program))

	for i, inst := range program {
		result, err := r.model.Access(inst.Op, inst.Address)
		if err != nil {
			return results, fmt.Errorf("instruction %d (%s): %w", i, inst, err)
		}

		results = append(results, result)
		r.record(runID, inst, result)
	}

	if r.recorder != nil {
		r.recorder.Flush()
	}

	return results, nil
}

func (r *Replayer) record(
	runID string,
	inst insts.Inst,
	result cache.AccessResult,
) {
	if r.recorder == nil {
		return
	}

	if !r.tableCreated {
		r.recorder.CreateTable(TraceTableName, AccessTrace{})
		r.tableCreated = true
	}

	r.recorder.InsertData(TraceTableName, AccessTrace{
		RunID:      runID,
		Step:       result.Step,
		Op:         inst.Op.String(),
		Register:   inst.Register,
		Address:    inst.Address,
		Offset:     result.Fields.Offset,
		SetIndex:   result.Fields.Index,
		Tag:        result.Fields.Tag,
		Outcome:    result.Outcome.String(),
		LineIndex:  result.LineIndex,
		Evicted:    result.Evicted,
		EvictedTag: result.EvictedTag,
	})
}
