package properties

import "strings"

// fakeEnvironment is an in-memory env.Environment with read counting,
// used to verify idempotent loads and fresh reloads.
type fakeEnvironment struct {
	files     map[string]map[string]string // path -> parsed contents
	vars      map[string]string
	sysProps  map[string]string
	fileReads int
}

func newFakeEnvironment() *fakeEnvironment {
	return &fakeEnvironment{
		files:    make(map[string]map[string]string),
		vars:     make(map[string]string),
		sysProps: make(map[string]string),
	}
}

func (f *fakeEnvironment) PropertiesFile(path string) (map[string]string, error) {
	f.fileReads++
	props, ok := f.files[path]
	if !ok {
		return nil, nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, nil
}

func (f *fakeEnvironment) VariablesByPrefix(prefix string) map[string]string {
	return byPrefix(f.vars, prefix)
}

func (f *fakeEnvironment) SystemPropertiesByPrefix(prefix string) map[string]string {
	return byPrefix(f.sysProps, prefix)
}

func byPrefix(source map[string]string, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range source {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// countingInstaller records installer invocations.
type countingInstaller struct {
	calls int
	last  map[string]string
}

func (c *countingInstaller) Install(props map[string]string) {
	c.calls++
	c.last = props
}
