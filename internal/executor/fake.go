package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse is the scripted outcome of a command run through Fake.
type FakeResponse struct {
	Stdout string
	Stderr string
	Err    error
}

// Fake is an in-memory Executor for tests. Commands are matched on the longest
// registered prefix of their space-joined command line, on word boundaries.
type Fake struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	calls     []string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: map[string]FakeResponse{}}
}

// On registers the response for any command line starting with prefix.
func (f *Fake) On(prefix string, resp FakeResponse) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[prefix] = resp

	return f
}

// Run records the command and returns the matching scripted response.
func (f *Fake) Run(_ context.Context, name string, args ...string) (*Result, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, line)

	match := ""
	found := false

	for prefix := range f.responses {
		if hasWordPrefix(line, prefix) && len(prefix) >= len(match) {
			match = prefix
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("failed to run: %s: executable file not found", line)
	}

	resp := f.responses[match]
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Result{Stdout: resp.Stdout, Stderr: resp.Stderr}, nil
}

// Calls returns every command line run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string{}, f.calls...)
}

// Called returns true if any command starting with prefix was run.
func (f *Fake) Called(prefix string) bool {
	for _, call := range f.Calls() {
		if hasWordPrefix(call, prefix) {
			return true
		}
	}

	return false
}

func hasWordPrefix(line string, prefix string) bool {
	return line == prefix || strings.HasPrefix(line, prefix+" ")
}
