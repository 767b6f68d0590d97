package domain

// StageCategory classifies how a pipeline stage is scheduled.
type StageCategory string

const (
	CategorySequential StageCategory = "sequential"
	CategoryParallel   StageCategory = "parallel"
	CategoryFinal      StageCategory = "final"
)

// StageStatus is the client-side view of one stage's progress.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageActive    StageStatus = "active"
	StageCompleted StageStatus = "completed"
)

// StageID names one phase of the backend generation pipeline.
type StageID string

const (
	StageValidation     StageID = "validation"
	StageClassification StageID = "classification"
	StageTranslation    StageID = "translation"
	StageMedia          StageID = "media"
	StageExamples       StageID = "examples"
	StageSynonyms       StageID = "synonyms"
	StageSyllables      StageID = "syllables"
	StagePronunciation  StageID = "pronunciation"
	StageConjugation    StageID = "conjugation"
	StageFinalQuality   StageID = "final_quality"
)

// ProcessingStage is one node of the fixed ten-stage pipeline graph.
type ProcessingStage struct {
	ID       StageID       `json:"id"`
	Category StageCategory `json:"category"`
	Order    int           `json:"order"`
	Status   StageStatus   `json:"status"`
}

// stageFlow is the fixed pipeline graph: three sequential stages, six
// parallel stages fanned out after translation, and one final stage.
var stageFlow = []ProcessingStage{
	{ID: StageValidation, Category: CategorySequential, Order: 1},
	{ID: StageClassification, Category: CategorySequential, Order: 2},
	{ID: StageTranslation, Category: CategorySequential, Order: 3},
	{ID: StageMedia, Category: CategoryParallel, Order: 4},
	{ID: StageExamples, Category: CategoryParallel, Order: 5},
	{ID: StageSynonyms, Category: CategoryParallel, Order: 6},
	{ID: StageSyllables, Category: CategoryParallel, Order: 7},
	{ID: StagePronunciation, Category: CategoryParallel, Order: 8},
	{ID: StageConjugation, Category: CategoryParallel, Order: 9},
	{ID: StageFinalQuality, Category: CategoryFinal, Order: 10},
}

// StageGraph is a mutable copy of the pipeline graph for one request.
type StageGraph []ProcessingStage

// NewStageGraph returns a fresh graph with the first sequential stage
// active and everything else pending.
func NewStageGraph() StageGraph {
	g := make(StageGraph, len(stageFlow))
	copy(g, stageFlow)
	g[0].Status = StageActive
	return g
}

// Stage returns the stage with the given id.
func (g StageGraph) Stage(id StageID) (ProcessingStage, bool) {
	for _, s := range g {
		if s.ID == id {
			return s, true
		}
	}
	return ProcessingStage{}, false
}

// Complete marks the given stage completed and applies the gating rules:
// completing a sequential stage activates the next sequential stage, and
// completing translation additionally activates every still-pending
// parallel stage. A parallel stage therefore never turns active before
// translation has completed. Completing an already-completed or unknown
// stage is a no-op.
func (g StageGraph) Complete(id StageID) {
	idx := -1
	for i := range g {
		if g[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || g[idx].Status == StageCompleted {
		return
	}
	g[idx].Status = StageCompleted

	if g[idx].Category != CategorySequential {
		return
	}
	if g[idx].ID == StageTranslation {
		for i := range g {
			if g[i].Category == CategoryParallel && g[i].Status == StagePending {
				g[i].Status = StageActive
			}
		}
		return
	}
	for i := range g {
		if g[i].Category == CategorySequential && g[i].Order == g[idx].Order+1 && g[i].Status == StagePending {
			g[i].Status = StageActive
		}
	}
}

// CompleteAll marks every stage completed (terminal success path).
func (g StageGraph) CompleteAll() {
	for i := range g {
		g[i].Status = StageCompleted
	}
}

// Completed reports whether every stage has completed.
func (g StageGraph) Completed() bool {
	for _, s := range g {
		if s.Status != StageCompleted {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the graph.
func (g StageGraph) Clone() StageGraph {
	out := make(StageGraph, len(g))
	copy(out, g)
	return out
}
