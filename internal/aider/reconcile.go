package aider

import (
	"context"
	"sync"
	"time"
)

// Request describes one aider invocation. Dir is explicit — the core
// never consults the process-wide working directory.
type Request struct {
	Command string
	Args    []string
	Dir     string

	// ExtraPatterns extends the classifier's error signatures for this
	// invocation (per-repository configuration). Built-ins keep
	// priority.
	ExtraPatterns []Pattern
	// SettleMax overrides the tailer's maximum quiesce wait when > 0.
	SettleMax time.Duration
}

// Result is what an invocation produced, reconciled from the process
// streams and the conversation-log window. Succeeded is true only when
// a completion marker was classified: a clean exit with no marker is
// "ran, but produced no recognizable outcome", which callers must
// report differently from a process failure.
type Result struct {
	Summary   string
	ErrorText string
	Succeeded bool
}

// Reconciler sequences one invocation: capture the log's pre-size, run
// the process, wait for the external writer to settle, read the newly
// appended window, and classify it.
type Reconciler struct {
	runner     Runner
	tailer     *Tailer
	classifier *Classifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler builds a Reconciler. A nil runner, tailer, or
// classifier gets the default implementation.
func NewReconciler(runner Runner, tailer *Tailer, classifier *Classifier) *Reconciler {
	if runner == nil {
		runner = ExecRunner{}
	}
	if tailer == nil {
		tailer = NewTailer()
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Reconciler{
		runner:     runner,
		tailer:     tailer,
		classifier: classifier,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing invocations that share root.
// Two concurrent invocations against the same conversation log would
// cross-talk: the second's pre-size capture could land between the
// first's append and the first's window read. One invocation at a time
// per resolved root removes that race.
func (r *Reconciler) lockFor(root string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[root]
	if !ok {
		l = &sync.Mutex{}
		r.locks[root] = l
	}
	return l
}

// Execute runs one invocation end to end.
//
// Process failures (*StartError, *ExitError) propagate to the caller,
// which turns them into a user-visible message — the reconciler does
// not swallow them. Log tailing never fails the invocation: any
// degradation yields an empty window and flows through classification
// as OutcomeNone.
func (r *Reconciler) Execute(ctx context.Context, req Request) (Result, error) {
	root := ResolveRoot(req.Dir)
	logPath := HistoryPath(req.Dir)

	lock := r.lockFor(root)
	lock.Lock()
	defer lock.Unlock()

	preSize := PreSize(logPath)

	if _, err := r.runner.Run(ctx, req.Command, req.Args, req.Dir); err != nil {
		return Result{}, err
	}

	tailer := r.tailer
	if req.SettleMax > 0 {
		tailer = &Tailer{Min: r.tailer.Min, Max: req.SettleMax, Poll: r.tailer.Poll}
	}
	tailer.Settle(logPath)
	suffix := ReadWindow(logPath, preSize)

	classifier := r.classifier
	if len(req.ExtraPatterns) > 0 {
		classifier = NewClassifier(req.ExtraPatterns...)
	}
	outcome := classifier.Classify(suffix)
	switch outcome.Kind {
	case OutcomeSummary:
		return Result{Summary: outcome.Text, Succeeded: true}, nil
	case OutcomeError:
		// Exit code 0 but the log shows aider reported an internal
		// error: exit-code success and semantic success are different
		// signals.
		return Result{ErrorText: outcome.Text}, nil
	default:
		return Result{}, nil
	}
}
