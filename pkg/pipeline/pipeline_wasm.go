//go:build (js && wasm) || wasip1

package pipeline

// The js/wasm runtime is single-threaded and wasip1 has no thread support in
// the Go runtime, so batches run one request at a time there.
func init() {
	defaultConcurrency = 1
}
