// Package assocmem evaluates populations of quantized associative memories.
//
// Feature vectors are quantized to integer levels, registered into one
// relational memory per label group, and test probes are recognized against
// every group. When several groups answer, an arbiter picks one, either at
// random or by lowest memory entropy.
//
// # Quick Start
//
//	cfg := assocmem.DefaultConfig()
//	r, _ := assocmem.NewRunner(cfg, assocmem.WithLogger(assocmem.NewTextLogger(slog.LevelInfo)))
//
//	folds, _ := dataset.LoadAll("./runs", 10)
//	results := r.RunFolds(ctx, folds)
//	summary, _ := assocmem.Summarize(results)
//
// # Experiments
//
//   - Size sweep (RunFolds, EvaluateSizes): one bank per fold and memory size,
//     reporting per-group precision and recall, entropy and arbitration
//     behaviour.
//   - Incremental fill (RunFill, FillFold): one bank per fold at a fixed size,
//     filled in equal stages, reporting the recalled prototype of every
//     probe after each stage.
//
// Units run concurrently, bounded by a resource.Controller. A failing fold
// is reported in its own result and never cancels its siblings.
//
// The engine packages (quantization, memory, bank, arbiter) are synchronous
// and can be used on their own.
package assocmem
